package models

// MessageLevel classifies a message shown to the spreadsheet user.
type MessageLevel string

const (
	MessageLevelInformational MessageLevel = "Informational"
	MessageLevelWarning       MessageLevel = "Warning"
	MessageLevelError         MessageLevel = "Error"
)

// ResponseAction tells the host what to do with the flow that depends on the hook.
type ResponseAction string

const (
	ResponseActionNone   ResponseAction = "None"
	ResponseActionCancel ResponseAction = "Cancel"
)

type ResponseMessage struct {
	Message      string       `json:"message"`
	MessageLevel MessageLevel `json:"messageLevel"`
}

// ActionableResponse is the verdict a hook returns to the host engine.
// ErrorCode tags a failed verdict for adapters that need more than the messages.
type ActionableResponse struct {
	Success          bool              `json:"success"`
	ResponseMessages []ResponseMessage `json:"responseMessages,omitempty"`
	Messages         []string          `json:"messages,omitempty"`
	ResponseAction   ResponseAction    `json:"responseAction,omitempty"`
	ErrorCode        string            `json:"errorCode,omitempty"`
}

// Cancelled reports whether the host is asked to abort the dependent flow.
func (r *ActionableResponse) Cancelled() bool {
	return r != nil && r.ResponseAction == ResponseActionCancel
}

// AllMessages returns the plain messages followed by the leveled ones.
func (r *ActionableResponse) AllMessages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Messages)+len(r.ResponseMessages))
	out = append(out, r.Messages...)
	for _, m := range r.ResponseMessages {
		out = append(out, m.Message)
	}
	return out
}

// NewSuccessResponse builds a successful verdict with one informational message.
func NewSuccessResponse(message string) *ActionableResponse {
	return &ActionableResponse{
		Success: true,
		ResponseMessages: []ResponseMessage{
			{Message: message, MessageLevel: MessageLevelInformational},
		},
		ResponseAction: ResponseActionNone,
	}
}

// NewCancelResponse builds a failed verdict asking the host to cancel.
func NewCancelResponse(messages ...string) *ActionableResponse {
	return &ActionableResponse{
		Success:        false,
		Messages:       messages,
		ResponseAction: ResponseActionCancel,
	}
}
