package goauth

import (
	"time"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-consent/pkg/types"
)

// Metadata keys used to carry consent state on go-auth user records.
const (
	MetaIsUnder13           = "is_under13"
	MetaParentEmail         = "parent_email"
	MetaConsentVerifiedAt   = "consent_verified_at"
	MetaConsentRevokedAt    = "consent_revoked_at"
	MetaDeletionRequestedAt = "deletion_requested_at"
	MetaDeletionScheduledAt = "deletion_scheduled_at"
)

// AccountFromUser projects a go-auth user onto the consent account model.
func AccountFromUser(user *auth.User) *types.Account {
	if user == nil {
		return nil
	}
	account := &types.Account{
		ID:                  user.ID,
		Status:              types.AccountStatus(user.Status),
		IsUnder13:           metaBool(user.Metadata, MetaIsUnder13),
		ParentEmail:         metaString(user.Metadata, MetaParentEmail),
		ConsentVerifiedAt:   metaTime(user.Metadata, MetaConsentVerifiedAt),
		ConsentRevokedAt:    metaTime(user.Metadata, MetaConsentRevokedAt),
		DeletionRequestedAt: metaTime(user.Metadata, MetaDeletionRequestedAt),
		DeletionScheduledAt: metaTime(user.Metadata, MetaDeletionScheduledAt),
	}
	if user.CreatedAt != nil {
		account.CreatedAt = *user.CreatedAt
	}
	if user.UpdatedAt != nil {
		account.UpdatedAt = *user.UpdatedAt
	}
	return account
}

func applyConsentState(user *auth.User, account *types.Account) {
	if user == nil || account == nil {
		return
	}
	user.Status = auth.UserStatus(account.Status)
	if user.Metadata == nil {
		user.Metadata = map[string]any{}
	}
	user.Metadata[MetaIsUnder13] = account.IsUnder13
	setMetaString(user.Metadata, MetaParentEmail, account.ParentEmail)
	setMetaTime(user.Metadata, MetaConsentVerifiedAt, account.ConsentVerifiedAt)
	setMetaTime(user.Metadata, MetaConsentRevokedAt, account.ConsentRevokedAt)
	setMetaTime(user.Metadata, MetaDeletionRequestedAt, account.DeletionRequestedAt)
	setMetaTime(user.Metadata, MetaDeletionScheduledAt, account.DeletionScheduledAt)
}

func metaBool(metadata map[string]any, key string) bool {
	value, ok := metadata[key].(bool)
	return ok && value
}

func metaString(metadata map[string]any, key string) string {
	value, _ := metadata[key].(string)
	return value
}

func metaTime(metadata map[string]any, key string) time.Time {
	switch value := metadata[key].(type) {
	case time.Time:
		return value
	case string:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

func setMetaString(metadata map[string]any, key, value string) {
	if value == "" {
		delete(metadata, key)
		return
	}
	metadata[key] = value
}

func setMetaTime(metadata map[string]any, key string, value time.Time) {
	if value.IsZero() {
		delete(metadata, key)
		return
	}
	metadata[key] = value.UTC().Format(time.RFC3339)
}
