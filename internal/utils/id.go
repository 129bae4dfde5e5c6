package utils

import (
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	guestAlphabet = "0123456789abcdef"
	guestLength   = 12
)

var guestID = mustGuestGenerator()

func mustGuestGenerator() func() string {
	gen, err := nanoid.CustomASCII(guestAlphabet, guestLength)
	if err != nil {
		panic(err)
	}
	return gen
}

// NewID returns a unique session identifier.
func NewID() string {
	return uuid.NewString()
}

// GuestName returns a random 12-character hex username for anonymous clients.
func GuestName() string {
	return guestID()
}
