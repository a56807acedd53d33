package goauth

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/google/uuid"
)

func TestAccountFromUser(t *testing.T) {
	now := time.Now()
	verifiedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &auth.User{
		ID:     uuid.New(),
		Status: auth.UserStatus("active"),
		Email:  "student@example.com",
		Metadata: map[string]any{
			MetaIsUnder13:         true,
			MetaParentEmail:       "parent@example.com",
			MetaConsentVerifiedAt: verifiedAt.Format(time.RFC3339),
		},
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	account := AccountFromUser(user)
	if account == nil {
		t.Fatalf("expected user to be converted")
	}
	if !account.IsUnder13 {
		t.Fatalf("expected under-13 flag to be copied")
	}
	if account.ParentEmail != "parent@example.com" {
		t.Fatalf("expected parent email to be copied")
	}
	if account.Status != types.AccountStatusActive {
		t.Fatalf("expected status to match")
	}
	if !account.ConsentVerifiedAt.Equal(verifiedAt) {
		t.Fatalf("expected verified timestamp to be parsed")
	}
	if !account.ConsentVerified() {
		t.Fatalf("expected account to read as verified")
	}
}

func TestApplyConsentStateRoundTrip(t *testing.T) {
	user := &auth.User{
		ID:     uuid.New(),
		Status: auth.UserStatus("active"),
		Metadata: map[string]any{
			MetaIsUnder13:         true,
			MetaParentEmail:       "parent@example.com",
			MetaConsentVerifiedAt: "2026-03-01T12:00:00Z",
		},
	}

	account := AccountFromUser(user)
	revokedAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	account.Status = types.AccountStatusSuspendedDeletion
	account.ConsentRevokedAt = revokedAt
	account.DeletionRequestedAt = revokedAt
	account.DeletionScheduledAt = revokedAt.Add(30 * 24 * time.Hour)

	applyConsentState(user, account)
	if user.Status != auth.UserStatus("suspended_deletion") {
		t.Fatalf("expected user status to track the account status")
	}
	if user.Metadata[MetaConsentRevokedAt] != "2026-04-01T09:00:00Z" {
		t.Fatalf("expected revocation timestamp in metadata, got %v", user.Metadata[MetaConsentRevokedAt])
	}

	reread := AccountFromUser(user)
	if reread.ConsentVerified() {
		t.Fatalf("expected revocation to win over older verification")
	}
	if reread.DeletionScheduledAt.IsZero() {
		t.Fatalf("expected deletion schedule to survive the round trip")
	}
}

func TestApplyConsentStateClearsStaleKeys(t *testing.T) {
	user := &auth.User{
		ID:     uuid.New(),
		Status: auth.UserStatus("suspended_deletion"),
		Metadata: map[string]any{
			MetaIsUnder13:           true,
			MetaParentEmail:         "parent@example.com",
			MetaConsentRevokedAt:    "2026-04-01T09:00:00Z",
			MetaDeletionScheduledAt: "2026-05-01T09:00:00Z",
		},
	}

	account := AccountFromUser(user)
	account.Status = types.AccountStatusActive
	account.ConsentVerifiedAt = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	account.ConsentRevokedAt = time.Time{}
	account.DeletionRequestedAt = time.Time{}
	account.DeletionScheduledAt = time.Time{}

	applyConsentState(user, account)
	if _, ok := user.Metadata[MetaConsentRevokedAt]; ok {
		t.Fatalf("expected revocation key to be removed")
	}
	if _, ok := user.Metadata[MetaDeletionScheduledAt]; ok {
		t.Fatalf("expected deletion schedule key to be removed")
	}
	if !AccountFromUser(user).ConsentVerified() {
		t.Fatalf("expected fresh verification to read as verified")
	}
}
