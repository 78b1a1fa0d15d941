package shared

import "github.com/google/uuid"

// NewID generates a new random entity identifier
func NewID() string {
	return uuid.NewString()
}
