package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-consent/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// fakeClock returns a fixed instant and can be advanced by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*types.Account

	verifyCalled bool
	revokeCalled bool
	getErr       error
	verifyErr    error
	revokeErr    error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uuid.UUID]*types.Account{}}
}

func (r *fakeAccountRepo) GetAccount(_ context.Context, id uuid.UUID) (*types.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (r *fakeAccountRepo) MarkVerified(_ context.Context, id uuid.UUID, verifiedAt time.Time) (*types.Account, error) {
	r.verifyCalled = true
	if r.verifyErr != nil {
		return nil, r.verifyErr
	}
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

func (r *fakeAccountRepo) MarkRevoked(_ context.Context, id uuid.UUID, revokedAt, deletionScheduledAt time.Time) (*types.Account, error) {
	r.revokeCalled = true
	if r.revokeErr != nil {
		return nil, r.revokeErr
	}
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

type fakeTokenRepo struct {
	tokens      map[uuid.UUID]*types.ConsentToken
	lastCreated *types.ConsentToken
	createErr   error
	consumeErr  error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[uuid.UUID]*types.ConsentToken{}}
}

func (r *fakeTokenRepo) CreateToken(_ context.Context, token types.ConsentToken) (*types.ConsentToken, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := token
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	r.tokens[clone.ID] = &clone
	r.lastCreated = &clone
	out := clone
	return &out, nil
}

func (r *fakeTokenRepo) GetTokenByHash(_ context.Context, studentID uuid.UUID, tokenHash string) (*types.ConsentToken, error) {
	for _, token := range r.tokens {
		if token.StudentID == studentID && token.TokenHash == tokenHash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) ConsumeToken(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	if r.consumeErr != nil {
		return r.consumeErr
	}
	token, ok := r.tokens[id]
	if !ok {
		return types.ErrTokenNotUsable
	}
	if !token.UsedAt.IsZero() || !usedAt.Before(token.ExpiresAt) {
		return types.ErrTokenNotUsable
	}
	token.UsedAt = usedAt
	return nil
}

func (r *fakeTokenRepo) InvalidateTokens(_ context.Context, studentID uuid.UUID, usedAt time.Time) (int, error) {
	count := 0
	for _, token := range r.tokens {
		if token.StudentID == studentID && token.UsedAt.IsZero() {
			token.UsedAt = usedAt
			count++
		}
	}
	return count, nil
}

func (r *fakeTokenRepo) GetLatestUsable(_ context.Context, studentID uuid.UUID, at time.Time) (*types.ConsentToken, error) {
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

type recordingAuditSink struct {
	records []types.AuditRecord
	err     error
	onLog   func(types.AuditRecord)
}

func (s *recordingAuditSink) Log(_ context.Context, record types.AuditRecord) error {
	if s.onLog != nil {
		s.onLog(record)
	}
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

type stubTokenSource struct {
	raw  string
	next int
}

func (s *stubTokenSource) Generate() (string, error) {
	s.next++
	return fmt.Sprintf("%s-%d", s.raw, s.next), nil
}

// stubBuilder renders predictable URLs so assertions stay simple.
type stubBuilder struct {
	lastStudent uuid.UUID
	lastToken   string
}

func (b *stubBuilder) Build(studentID uuid.UUID, rawToken string, _ time.Time) (string, error) {
	b.lastStudent = studentID
	b.lastToken = rawToken
	return "https://example.com/consent/verify?token=" + rawToken + "&student=" + studentID.String(), nil
}
