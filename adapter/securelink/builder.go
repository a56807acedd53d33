package securelink

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

// DefaultVerifyRoute is the securelink route used for verification links.
const DefaultVerifyRoute = "consent.verify"

// Builder renders signed verification links. The raw token and student id
// travel inside the signed payload, so tampering with either invalidates the
// whole link.
type Builder struct {
	manager types.SecureLinkManager
	route   string
}

// NewBuilder constructs a signed-link reference builder. Route defaults to
// DefaultVerifyRoute; the manager's route table must contain it.
func NewBuilder(manager types.SecureLinkManager, route string) (*Builder, error) {
	if manager == nil {
		return nil, errors.New("securelink manager required")
	}
	if strings.TrimSpace(route) == "" {
		route = DefaultVerifyRoute
	}
	return &Builder{manager: manager, route: route}, nil
}

var _ types.ReferenceBuilder = (*Builder)(nil)

// Build generates a signed verification link carrying the token payload.
func (b *Builder) Build(studentID uuid.UUID, rawToken string, expiresAt time.Time) (string, error) {
	if b == nil || b.manager == nil {
		return "", errors.New("securelink builder not configured")
	}
	if studentID == uuid.Nil {
		return "", types.ErrStudentIDRequired
	}
	if strings.TrimSpace(rawToken) == "" {
		return "", errors.New("securelink: raw token required")
	}
	return b.manager.Generate(b.route, types.SecureLinkPayload{
		"token":      rawToken,
		"student_id": studentID.String(),
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// ExtractToken pulls the raw token and student id out of a validated link
// payload, for hosts wiring the verify endpoint behind securelink.
func ExtractToken(payload types.SecureLinkPayload) (uuid.UUID, string, error) {
	rawToken, _ := payload["token"].(string)
	if strings.TrimSpace(rawToken) == "" {
		return uuid.Nil, "", errors.New("securelink: payload missing token")
	}
	rawStudent, _ := payload["student_id"].(string)
	studentID, err := uuid.Parse(rawStudent)
	if err != nil {
		return uuid.Nil, "", errors.New("securelink: payload missing student id")
	}
	return studentID, rawToken, nil
}
