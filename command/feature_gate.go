package command

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const (
	featureConsentRequest = "consent.request"
	featureConsentResend  = "consent.resend"
)

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, studentID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	if studentID == uuid.Nil {
		return gate.Enabled(ctx, key)
	}
	scopeSet := featuregate.ScopeSet{
		System: true,
		UserID: studentID.String(),
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeSet(scopeSet))
}
