package pkguid

import "github.com/google/uuid"

// UUID generates canonical UUID strings of one version.
type UUID struct {
	next func() (uuid.UUID, error)
}

// NewTimeUUID returns a version 7 generator. Its values sort by creation
// time, which suits correlation IDs that are grepped out of logs.
func NewTimeUUID() *UUID {
	return &UUID{next: uuid.NewV7}
}

// NewRandomUUID returns a version 4 generator. Account keys are handed to
// other users as transfer addresses, so they carry no timing information.
func NewRandomUUID() *UUID {
	return &UUID{next: uuid.NewRandom}
}

// Generate returns a new UUID string. It panics if the system entropy
// source fails.
func (u *UUID) Generate() string {
	return uuid.Must(u.next()).String()
}
