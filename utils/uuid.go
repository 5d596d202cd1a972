package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new random (v4) identifier for items and bids
func GenerateID() string {
	return uuid.New().String()
}
