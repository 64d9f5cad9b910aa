package uid

import "github.com/google/uuid"

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// Short returns a compact 8-character identifier, used for lock owners and
// withdrawal session references where a full UUID is overkill.
func Short() string {
	return uuid.New().String()[:8]
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
