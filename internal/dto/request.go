package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidBody = errors.New("invalid request body")

// MaxBodyBytes caps every request body Decode will read.
const MaxBodyBytes = 64 << 10

// Decode reads exactly one JSON object from r and rejects unknown fields.
func Decode(r io.Reader, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return ErrInvalidBody
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("%w: body too large", ErrInvalidBody)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidBody)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidBody)
	}
	return nil
}

type CreateBookingRequest struct {
	EventID    string `json:"eventId"`
	StallID    string `json:"stallId"`
	Amount     *int64 `json:"amount,omitempty"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

func (r CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.EventID) == "" || strings.TrimSpace(r.StallID) == "" {
		return errors.New("eventId and stallId are required")
	}
	return nil
}

type ReviewRequest struct {
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"reviewText,omitempty"`
}

func (r ReviewRequest) Validate() error {
	if r.Rating == nil {
		return errors.New("rating is required")
	}
	return nil
}

type CreateStallRequest struct {
	Name     string `json:"name"`
	Tier     string `json:"tier"`
	Price    *int64 `json:"price"`
	QtyTotal *int   `json:"qtyTotal"`
	Specs    string `json:"specs,omitempty"`
}

func (r CreateStallRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Tier) == "" || r.Price == nil || r.QtyTotal == nil {
		return errors.New("name, tier, price and qtyTotal are required")
	}
	return nil
}

type EditStallRequest struct {
	Name     *string `json:"name,omitempty"`
	Tier     *string `json:"tier,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	QtyTotal *int    `json:"qtyTotal,omitempty"`
	Specs    *string `json:"specs,omitempty"`
}

func (r EditStallRequest) Validate() error {
	if r.Name == nil && r.Tier == nil && r.Price == nil && r.QtyTotal == nil && r.Specs == nil {
		return errors.New("nothing to update")
	}
	return nil
}
