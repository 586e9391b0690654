package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var req CreateBookingRequest
	err := Decode(strings.NewReader(`{"eventId":"e","stallId":"s","price":1}`), &req)
	assert.ErrorIs(t, err, ErrInvalidBody)
}

func TestDecode_RejectsEmptyAndTrailing(t *testing.T) {
	var req CreateBookingRequest
	assert.ErrorIs(t, Decode(strings.NewReader("  "), &req), ErrInvalidBody)
	assert.ErrorIs(t, Decode(strings.NewReader(`{"eventId":"e"} {"eventId":"f"}`), &req), ErrInvalidBody)
}

func TestDecode_RejectsOversizedBody(t *testing.T) {
	var req CreateBookingRequest
	body := `{"eventId":"e","stallId":"s","paymentRef":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	err := Decode(strings.NewReader(body), &req)
	assert.ErrorIs(t, err, ErrInvalidBody)
	assert.Contains(t, err.Error(), "too large")
}

func TestDecode_AndValidate(t *testing.T) {
	var req CreateBookingRequest
	require.NoError(t, Decode(strings.NewReader(`{"eventId":"e","stallId":"s","amount":0,"paymentRef":"p"}`), &req))
	assert.NoError(t, req.Validate())
	require.NotNil(t, req.Amount)
	assert.Equal(t, int64(0), *req.Amount)

	assert.Error(t, CreateBookingRequest{EventID: "e"}.Validate())
	assert.Error(t, ReviewRequest{}.Validate())
	assert.Error(t, EditStallRequest{}.Validate())

	price := int64(10)
	assert.Error(t, CreateStallRequest{Name: "A", Tier: "gold", Price: &price}.Validate())
}
