package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("INVALID_TRANSITION")

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
