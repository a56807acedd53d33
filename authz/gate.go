// Package authz centralizes the caller-must-be-subject rule so commands and
// queries share one authorization gate instead of repeating equality checks
// at every call site.
package authz

import (
	"context"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

// Gate decides whether an actor may operate on a student account. It is
// intentionally small so hosts can swap custom gates in tests or layer in
// their own session checks.
type Gate interface {
	Authorize(ctx context.Context, actor types.ActorRef, studentID uuid.UUID) error
}

type selfService struct{}

// SelfService returns the default gate: the actor must be the subject
// account. Cross-account requests fail with ErrUnauthorized.
func SelfService() Gate { return selfService{} }

// Authorize implements Gate.
func (selfService) Authorize(_ context.Context, actor types.ActorRef, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return types.ErrStudentIDRequired
	}
	if actor.ID != studentID {
		return types.ErrUnauthorized
	}
	return nil
}

type trusted struct{}

// Trusted returns a gate that never blocks. Revocation uses it: proof of
// guardian authorization for that action is an external concern, so the
// caller is treated as trusted.
func Trusted() Gate { return trusted{} }

// Authorize implements Gate.
func (trusted) Authorize(_ context.Context, _ types.ActorRef, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return types.ErrStudentIDRequired
	}
	return nil
}

// Ensure returns a non-nil gate so command constructors can accept nil gates
// when tests instantiate them directly. The fallback is the self-service
// rule, never the trusted one.
func Ensure(g Gate) Gate {
	if g == nil {
		return selfService{}
	}
	return g
}
