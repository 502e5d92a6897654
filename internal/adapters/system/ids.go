package system

import "github.com/google/uuid"

// UUIDs issues random v4 identifiers.
type UUIDs struct{}

func (UUIDs) NewID() string {
	return uuid.New().String()
}
