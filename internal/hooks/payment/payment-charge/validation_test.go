package paymentcharge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellInt(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    int64
		wantErr bool
	}{
		{" 2024 ", 2024, false},
		{"12", 12, false},
		{"500", 500, false},
		{"\t500\n", 500, false},
		{float64(500), 500, false},
		{500, 500, false},
		{int64(7), 7, false},
		{"-3", -3, false},
		{"abc", 0, true},
		{"", 0, true},
		{"5.5", 0, true},
		{float64(5.5), 0, true},
		{true, 0, true},
		{nil, 0, true},
	}

	for _, tt := range tests {
		got, err := cellInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%#v", tt.in)
			continue
		}
		require.NoError(t, err, "%#v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", cellText(nil))
	assert.Equal(t, "Jane", cellText("Jane"))
	assert.Equal(t, "4242424242424242", cellText(float64(4242424242424242)))
	assert.Equal(t, "123", cellText(float64(123)))
	assert.Equal(t, "1.5", cellText(1.5))
	assert.Equal(t, "true", cellText(true))
}

func TestStripWhitespace(t *testing.T) {
	assert.Equal(t, "4242424242424242", stripWhitespace("4242 4242 4242 4242"))
	assert.Equal(t, "4242424242424242", stripWhitespace(" 4242\t4242\n4242 4242 "))
	assert.Equal(t, "4242424242424242", stripWhitespace("4242\u00a04242\u20034242 4242"))
}

func TestLastFour(t *testing.T) {
	assert.Equal(t, "4242", lastFour("4242424242424242"))
	assert.Equal(t, "12", lastFour("12"))
}

func TestExtractInput_PreservesCVCAndDescription(t *testing.T) {
	req := createValidRequest()
	setInput(req, RefCVC, " 012 ")
	setInput(req, RefDesc, "  spaced  ")

	input, out, err := extractInput(req, createValidResponse())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, " 012 ", input.CVC)
	assert.Equal(t, "  spaced  ", input.Description)
	assert.Equal(t, "Jane Doe", input.Name)
}

func TestExtractInput_FirstMatchWins(t *testing.T) {
	req := createValidRequest()
	req.Inputs = append(req.Inputs, req.Inputs[6])
	req.Inputs[len(req.Inputs)-1].Value = cellGrid("999")

	input, _, err := extractInput(req, createValidResponse())
	require.NoError(t, err)
	assert.Equal(t, int64(500), input.Amount)
}
