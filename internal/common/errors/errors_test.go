package errors

import (
	stderrors "errors"
	"testing"

	"spreadsheet-hooks/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToActionableResponse_SingleFailureShape(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantCode    string
	}{
		{
			name:        "missing fields",
			err:         NewFieldNotFoundError([]string{"iName", "iCVC"}),
			wantMessage: "Required fields not found: iName, iCVC",
			wantCode:    "FIELD_NOT_FOUND",
		},
		{
			name:        "invalid values",
			err:         NewInvalidFieldValueError([]string{"iAmount"}, "iAmount: \"abc\""),
			wantMessage: "Invalid values for fields: iAmount",
			wantCode:    "INVALID_FIELD_VALUE",
		},
		{
			name:        "provider card error keeps provider text",
			err:         NewProviderError(ErrCodeProviderCard, "token.create", "Your card number is incorrect.", nil),
			wantMessage: "Your card number is incorrect.",
			wantCode:    "PROVIDER_CARD_ERROR",
		},
		{
			name:        "plain error becomes internal",
			err:         stderrors.New("boom"),
			wantMessage: "Unexpected error",
			wantCode:    "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := ToActionableResponse(tt.err)
			require.NotNil(t, verdict)
			assert.False(t, verdict.Success)
			assert.Equal(t, models.ResponseActionCancel, verdict.ResponseAction)
			assert.Equal(t, []string{tt.wantMessage}, verdict.Messages)
			assert.Equal(t, tt.wantCode, verdict.ErrorCode)
		})
	}
}

func TestNewProviderError(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := NewProviderError(ErrCodeProviderNetwork, "charge.create", "connection refused", cause)

	assert.True(t, err.Retryable)
	assert.Equal(t, "charge.create", err.Metadata["operation"])
	assert.Contains(t, err.Details, "connection refused")
	assert.True(t, stderrors.Is(err, cause))

	card := NewProviderError(ErrCodeProviderCard, "token.create", "declined", nil)
	assert.False(t, card.Retryable)
	assert.Equal(t, "token.create", card.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFieldNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidFieldValue))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeDuplicateSubmission))
	assert.Equal(t, "PROVIDER", GetErrorCategory(ErrCodeProviderCard))
	assert.Equal(t, "PROVIDER", GetErrorCategory(ErrCodeProviderAuth))
	assert.Equal(t, "NETWORK", GetErrorCategory(ErrCodeProviderNetwork))
	assert.Equal(t, "INTERNAL", GetErrorCategory(ErrCodeSerializationFailed))
}

func TestVerdictToBPMNError(t *testing.T) {
	verdict := ToActionableResponse(NewProviderError(ErrCodeProviderCard, "charge.create", "Your card was declined.", nil))

	bpmnErr := VerdictToBPMNError(verdict)
	assert.Equal(t, BPMNErrorCodeCancelled, bpmnErr.Code)
	assert.Equal(t, "Your card was declined.", bpmnErr.Message)
	assert.Equal(t, 0, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "PROVIDER_CARD_ERROR", vars["originalErrorCode"])
	assert.Equal(t, "PROVIDER", vars["errorCategory"])
	assert.Equal(t, []string{"Your card was declined."}, vars["hookMessages"])
}

func TestConvertToBPMNError_NeverRetries(t *testing.T) {
	stdErr := NewProviderError(ErrCodeProviderNetwork, "token.create", "timeout", nil)
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.Equal(t, "PROVIDER_NETWORK_ERROR", bpmnErr.ToErrorVariables()["originalErrorCode"])
}
