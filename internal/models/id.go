package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid id")

// ParseID is the only way raw identifiers from a request become entity ids.
func ParseID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

func NewID() uuid.UUID {
	return uuid.New()
}
