package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-consent/command"
	"github.com/goliatone/go-consent/pkg/types"
	"github.com/goliatone/go-consent/query"
	"github.com/goliatone/go-consent/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var lifecycleEpoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestService_ConsentLifecycle(t *testing.T) {
	ctx := context.Background()
	accounts := newMemAccountRepo()
	tokens := newMemTokenRepo()
	audit := newMemAuditStore()
	clock := staticClock{at: lifecycleEpoch}

	student := uuid.New()
	accounts.seed(&types.Account{
		ID:          student,
		IsUnder13:   true,
		ParentEmail: "guardian@example.com",
		Status:      types.AccountStatusPendingConsent,
	})

	var events []types.ConsentEvent
	svc := service.New(service.Config{
		AccountRepository: accounts,
		TokenRepository:   tokens,
		ReferenceBuilder:  plainBuilder{},
		AuditSink:         audit,
		Clock:             clock,
		Logger:            types.NopLogger{},
		Hooks: types.Hooks{
			AfterConsent: func(_ context.Context, event types.ConsentEvent) {
				events = append(events, event)
			},
		},
	})
	require.True(t, svc.Ready())
	require.NoError(t, svc.HealthCheck(ctx))

	actor := types.ActorRef{ID: student, Type: "student"}

	requested := &command.ConsentRequestResult{}
	err := svc.Commands().Request.Execute(ctx, command.ConsentRequestInput{
		StudentID:   student,
		ParentEmail: "guardian@example.com",
		Actor:       actor,
		Result:      requested,
	})
	require.NoError(t, err)
	require.NotEmpty(t, requested.Ref.Token)
	require.Contains(t, requested.Ref.URL, requested.Ref.Token)
	require.Equal(t, lifecycleEpoch.Add(7*24*time.Hour), requested.Ref.ExpiresAt)

	pending, err := svc.Queries().Pending.Query(ctx, query.PendingRequestInput{
		StudentID: student,
		Actor:     actor,
	})
	require.NoError(t, err)
	require.True(t, pending.Pending)

	verified := &command.ConsentVerifyResult{}
	err = svc.Commands().Verify.Execute(ctx, command.ConsentVerifyInput{
		StudentID: student,
		Token:     requested.Ref.Token,
		Result:    verified,
	})
	require.NoError(t, err)
	require.Equal(t, types.AccountStatusActive, verified.Account.Status)

	status, err := svc.Queries().Status.Query(ctx, query.ConsentStatusInput{
		StudentID: student,
		Actor:     actor,
	})
	require.NoError(t, err)
	require.True(t, status.ConsentVerified)
	require.False(t, status.NeedsConsent)

	err = svc.Commands().Revoke.Execute(ctx, command.ConsentRevokeInput{
		StudentID: student,
		Actor:     actor,
		Reason:    "guardian request",
	})
	require.NoError(t, err)

	status, err = svc.Queries().Status.Query(ctx, query.ConsentStatusInput{
		StudentID: student,
		Actor:     actor,
	})
	require.NoError(t, err)
	require.Equal(t, types.AccountStatusSuspendedDeletion, status.Status)
	require.Equal(t, lifecycleEpoch.Add(30*24*time.Hour), status.DeletionScheduledAt)

	require.Len(t, events, 3)
	require.Equal(t, types.ConsentActionRequested, events[0].Action)
	require.Equal(t, types.ConsentActionVerified, events[1].Action)
	require.Equal(t, types.ConsentActionRevoked, events[2].Action)
}

func TestService_ResendInvalidatesOlderLinks(t *testing.T) {
	ctx := context.Background()
	accounts := newMemAccountRepo()
	tokens := newMemTokenRepo()
	audit := newMemAuditStore()

	student := uuid.New()
	accounts.seed(&types.Account{
		ID:          student,
		IsUnder13:   true,
		ParentEmail: "guardian@example.com",
		Status:      types.AccountStatusPendingConsent,
	})

	svc := service.New(service.Config{
		AccountRepository: accounts,
		TokenRepository:   tokens,
		ReferenceBuilder:  plainBuilder{},
		AuditSink:         audit,
		Clock:             staticClock{at: lifecycleEpoch},
		Logger:            types.NopLogger{},
	})

	actor := types.ActorRef{ID: student, Type: "student"}
	first := &command.ConsentRequestResult{}
	require.NoError(t, svc.Commands().Request.Execute(ctx, command.ConsentRequestInput{
		StudentID:   student,
		ParentEmail: "guardian@example.com",
		Actor:       actor,
		Result:      first,
	}))

	resent := &command.ConsentResendResult{}
	require.NoError(t, svc.Commands().Resend.Execute(ctx, command.ConsentResendInput{
		StudentID: student,
		Actor:     actor,
		Result:    resent,
	}))
	require.Equal(t, 1, resent.Invalidated)
	require.NotEqual(t, first.Ref.Token, resent.Ref.Token)

	// The stale link no longer verifies; the fresh one does.
	err := svc.Commands().Verify.Execute(ctx, command.ConsentVerifyInput{
		StudentID: student,
		Token:     first.Ref.Token,
	})
	require.ErrorIs(t, err, types.ErrInvalidOrExpiredToken)
	require.NoError(t, svc.Commands().Verify.Execute(ctx, command.ConsentVerifyInput{
		StudentID: student,
		Token:     resent.Ref.Token,
	}))
}

func TestService_AuditRepositoryFallsBackToSink(t *testing.T) {
	ctx := context.Background()
	accounts := newMemAccountRepo()
	tokens := newMemTokenRepo()
	audit := newMemAuditStore()

	student := uuid.New()
	accounts.seed(&types.Account{
		ID:          student,
		IsUnder13:   true,
		ParentEmail: "guardian@example.com",
		Status:      types.AccountStatusPendingConsent,
	})

	svc := service.New(service.Config{
		AccountRepository: accounts,
		TokenRepository:   tokens,
		ReferenceBuilder:  plainBuilder{},
		AuditSink:         audit,
		Clock:             staticClock{at: lifecycleEpoch},
		Logger:            types.NopLogger{},
	})

	actor := types.ActorRef{ID: student, Type: "student"}
	require.NoError(t, svc.Commands().Request.Execute(ctx, command.ConsentRequestInput{
		StudentID:   student,
		ParentEmail: "guardian@example.com",
		Actor:       actor,
	}))

	feed, err := svc.Queries().AuditFeed.Query(ctx, types.AuditFilter{
		Actor:     actor,
		StudentID: student,
	})
	require.NoError(t, err)
	require.Len(t, feed.Records, 1)
	require.Equal(t, types.ConsentActionRequested, feed.Records[0].Action)

	stats, err := svc.Queries().AuditStats.Query(ctx, query.AuditStatsInput{
		StudentID: student,
		Actor:     actor,
	})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.ByAction[types.ConsentActionRequested])
}

func TestService_HealthCheckReportsMissingDependencies(t *testing.T) {
	svc := service.New(service.Config{})
	require.False(t, svc.Ready())
	require.ErrorIs(t, svc.HealthCheck(context.Background()), types.ErrServiceNotReady)
}

type staticClock struct {
	at time.Time
}

func (c staticClock) Now() time.Time { return c.at }

type plainBuilder struct{}

func (plainBuilder) Build(studentID uuid.UUID, rawToken string, _ time.Time) (string, error) {
	return "https://example.test/consent/verify?token=" + rawToken + "&student=" + studentID.String(), nil
}

type memAccountRepo struct {
	accounts map[uuid.UUID]*types.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[uuid.UUID]*types.Account{}}
}

func (r *memAccountRepo) seed(account *types.Account) {
	clone := *account
	r.accounts[account.ID] = &clone
}

func (r *memAccountRepo) GetAccount(_ context.Context, id uuid.UUID) (*types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *memAccountRepo) MarkVerified(_ context.Context, id uuid.UUID, verifiedAt time.Time) (*types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	account.Status = types.AccountStatusActive
	account.ConsentVerifiedAt = verifiedAt
	account.ConsentRevokedAt = time.Time{}
	account.DeletionRequestedAt = time.Time{}
	account.DeletionScheduledAt = time.Time{}
	clone := *account
	return &clone, nil
}

func (r *memAccountRepo) MarkRevoked(_ context.Context, id uuid.UUID, revokedAt, deletionScheduledAt time.Time) (*types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	account.Status = types.AccountStatusSuspendedDeletion
	account.ConsentRevokedAt = revokedAt
	account.DeletionRequestedAt = revokedAt
	account.DeletionScheduledAt = deletionScheduledAt
	clone := *account
	return &clone, nil
}

type memTokenRepo struct {
	tokens map[uuid.UUID]*types.ConsentToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[uuid.UUID]*types.ConsentToken{}}
}

func (r *memTokenRepo) CreateToken(_ context.Context, token types.ConsentToken) (*types.ConsentToken, error) {
	clone := token
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	r.tokens[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *memTokenRepo) GetTokenByHash(_ context.Context, studentID uuid.UUID, tokenHash string) (*types.ConsentToken, error) {
	for _, token := range r.tokens {
		if token.StudentID == studentID && token.TokenHash == tokenHash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memTokenRepo) ConsumeToken(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	token, ok := r.tokens[id]
	if !ok || !token.UsedAt.IsZero() || !usedAt.Before(token.ExpiresAt) {
		return types.ErrTokenNotUsable
	}
	token.UsedAt = usedAt
	return nil
}

func (r *memTokenRepo) InvalidateTokens(_ context.Context, studentID uuid.UUID, usedAt time.Time) (int, error) {
	count := 0
	for _, token := range r.tokens {
		if token.StudentID == studentID && token.UsedAt.IsZero() {
			token.UsedAt = usedAt
			count++
		}
	}
	return count, nil
}

func (r *memTokenRepo) GetLatestUsable(_ context.Context, studentID uuid.UUID, at time.Time) (*types.ConsentToken, error) {
	var latest *types.ConsentToken
	for _, token := range r.tokens {
		if token.StudentID != studentID || !token.Usable(at) {
			continue
		}
		if latest == nil || token.IssuedAt.After(latest.IssuedAt) {
			latest = token
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

// memAuditStore implements both the sink and the read side so the service can
// reuse it for the audit queries without an explicit AuditRepository.
type memAuditStore struct {
	records []types.AuditRecord
}

func newMemAuditStore() *memAuditStore {
	return &memAuditStore{}
}

func (s *memAuditStore) Log(_ context.Context, record types.AuditRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *memAuditStore) ListConsentLog(_ context.Context, filter types.AuditFilter) (types.AuditPage, error) {
	page := types.AuditPage{}
	for _, record := range s.records {
		if filter.StudentID != uuid.Nil && record.StudentID != filter.StudentID {
			continue
		}
		page.Records = append(page.Records, record)
	}
	page.Total = len(page.Records)
	return page, nil
}

func (s *memAuditStore) ConsentLogStats(_ context.Context, studentID uuid.UUID) (types.AuditStats, error) {
	stats := types.AuditStats{ByAction: map[types.ConsentAction]int{}}
	for _, record := range s.records {
		if studentID != uuid.Nil && record.StudentID != studentID {
			continue
		}
		stats.Total++
		stats.ByAction[record.Action]++
	}
	return stats, nil
}
