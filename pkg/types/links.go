package types

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRef is the shareable reference a guardian uses to approve an
// account. URL carries the raw token and the student id; this struct is the
// only place the raw value surfaces and it must never be logged or persisted.
type VerificationRef struct {
	URL       string
	Token     string
	StudentID uuid.UUID
	ExpiresAt time.Time
}

// ReferenceBuilder renders a verification reference into a URL the external
// email collaborator can deliver. Implementations decide the exact shape:
// the default builder emits the raw token and student id as query parameters,
// the securelink adapter wraps them in a signed link.
type ReferenceBuilder interface {
	Build(studentID uuid.UUID, rawToken string, expiresAt time.Time) (string, error)
}
