package authgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aryadevs/authgate/credential"
)

// countingStore is an in-memory credential.Store recording call counts. When
// fail is set every operation returns it.
type countingStore struct {
	mu      sync.Mutex
	records map[string]string
	fail    error

	getCalls    int
	putCalls    int
	rotateCalls int
}

func newCountingStore() *countingStore {
	return &countingStore{records: map[string]string{}}
}

func (s *countingStore) Get(_ context.Context, userID string) (credential.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++

	if s.fail != nil {
		return credential.Record{}, s.fail
	}
	token, ok := s.records[userID]
	if !ok {
		return credential.Record{}, credential.ErrNotFound
	}
	return credential.Record{UserID: userID, RefreshToken: token}, nil
}

func (s *countingStore) Put(_ context.Context, userID, refreshToken string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++

	if s.fail != nil {
		return s.fail
	}
	s.records[userID] = refreshToken
	return nil
}

func (s *countingStore) Rotate(_ context.Context, userID, presented, next string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateCalls++

	if s.fail != nil {
		return s.fail
	}
	current, ok := s.records[userID]
	if !ok {
		return credential.ErrNotFound
	}
	if current != presented {
		return credential.ErrTokenMismatch
	}
	s.records[userID] = next
	return nil
}

func (s *countingStore) stored(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret")
	cfg.Token.RefreshSecret = []byte("test-refresh-secret")
	cfg.Token.AccessTTL = time.Minute
	cfg.Token.RefreshTTL = time.Hour
	cfg.Session.StoreTimeout = 0
	cfg.Metrics.Enabled = true
	return cfg
}

func newFakeEngine(t *testing.T) (*Engine, *countingStore) {
	t.Helper()

	store := newCountingStore()
	engine, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, store
}

func TestAuthenticateFastPathNoStoreCalls(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	store.getCalls, store.putCalls, store.rotateCalls = 0, 0, 0

	res, err := engine.Authenticate(ctx, Credentials{AccessToken: pair.AccessToken})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Outcome != OutcomeAccessValid {
		t.Fatalf("expected fast-path outcome, got %v", res.Outcome)
	}
	if res.Identity.SubjectID != "u-1" || res.Identity.Email != "u1@example.com" {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}
	if store.getCalls != 0 || store.putCalls != 0 || store.rotateCalls != 0 {
		t.Fatalf("fast path touched the store: get=%d put=%d rotate=%d",
			store.getCalls, store.putCalls, store.rotateCalls)
	}
	if got := engine.MetricsSnapshot().Counters[MetricAccessValid]; got != 1 {
		t.Fatalf("expected one fast-path acceptance, got %d", got)
	}
}

func TestAuthenticateSeamlessRenewal(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	res, err := engine.Authenticate(ctx, Credentials{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Outcome != OutcomeRotated {
		t.Fatalf("expected rotation, got %v", res.Outcome)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}
	if res.Tokens.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if store.rotateCalls != 1 {
		t.Fatalf("expected one rotate, got %d", store.rotateCalls)
	}
	if store.stored("u-1") != res.Tokens.RefreshToken {
		t.Fatal("store does not hold the rotated token")
	}

	// The fresh access token is immediately usable on the fast path.
	res2, err := engine.Authenticate(ctx, Credentials{AccessToken: res.Tokens.AccessToken})
	if err != nil {
		t.Fatalf("authenticate with rotated access token: %v", err)
	}
	if res2.Outcome != OutcomeAccessValid {
		t.Fatalf("expected fast-path outcome, got %v", res2.Outcome)
	}
}

func TestAuthenticateStaleRefreshAfterRotation(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := engine.Authenticate(ctx, Credentials{RefreshToken: pair.RefreshToken}); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	rotateCalls := store.rotateCalls

	_, err = engine.Authenticate(ctx, Credentials{RefreshToken: pair.RefreshToken})
	if !errors.Is(err, ErrStaleRefreshToken) {
		t.Fatalf("expected ErrStaleRefreshToken, got %v", err)
	}
	// A stale token must be rejected before any rotation attempt.
	if store.rotateCalls != rotateCalls {
		t.Fatalf("stale token reached Rotate: %d calls", store.rotateCalls)
	}
	if got := engine.MetricsSnapshot().Counters[MetricStaleTokenRejected]; got != 1 {
		t.Fatalf("expected one stale rejection, got %d", got)
	}
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	engine, _ := newFakeEngine(t)
	ctx := context.Background()

	_, err := engine.Authenticate(ctx, Credentials{})
	if !errors.Is(err, ErrMissingAccessToken) {
		t.Fatalf("expected ErrMissingAccessToken, got %v", err)
	}

	_, err = engine.Authenticate(ctx, Credentials{AccessToken: "not-a-token"})
	if !errors.Is(err, ErrMissingRefreshToken) {
		t.Fatalf("expected ErrMissingRefreshToken, got %v", err)
	}
}

func TestAuthenticateUnknownSession(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	store.mu.Lock()
	delete(store.records, "u-1")
	store.mu.Unlock()

	_, err = engine.Authenticate(ctx, Credentials{RefreshToken: pair.RefreshToken})
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestAuthenticateExpiredRefreshToken(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte("test-refresh-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := store.Put(ctx, "u-1", signed, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	// The token matches the stored value but fails signature-and-expiry
	// verification, so the rejection is expiry, not staleness.
	_, err = engine.Authenticate(ctx, Credentials{RefreshToken: signed})
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
}

func TestAuthenticateUndecodableRefreshToken(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	_, err := engine.Authenticate(ctx, Credentials{RefreshToken: "garbage"})
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
	if store.getCalls != 0 {
		t.Fatalf("undecodable token reached the store: %d calls", store.getCalls)
	}
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	store.mu.Lock()
	store.fail = credential.ErrUnavailable
	store.mu.Unlock()

	_, err = engine.Authenticate(ctx, Credentials{RefreshToken: pair.RefreshToken})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	// Nothing rotated: the stored credential is untouched.
	store.mu.Lock()
	store.fail = nil
	current := store.records["u-1"]
	store.mu.Unlock()
	if current != pair.RefreshToken {
		t.Fatal("store mutated during a failed authentication")
	}
}

func TestIssueStoresSingleCredential(t *testing.T) {
	engine, store := newFakeEngine(t)
	ctx := context.Background()

	first, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := engine.Issue(ctx, Identity{SubjectID: "u-1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	// A fresh login replaces the previous refresh credential outright.
	if store.stored("u-1") != second.RefreshToken {
		t.Fatal("store does not hold the latest refresh token")
	}
	_, err = engine.Authenticate(ctx, Credentials{RefreshToken: first.RefreshToken})
	if !errors.Is(err, ErrStaleRefreshToken) {
		t.Fatalf("expected ErrStaleRefreshToken for the replaced token, got %v", err)
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	engine, _ := newFakeEngine(t)

	_, err := engine.Issue(context.Background(), Identity{})
	if !errors.Is(err, ErrTokenIssueFailed) {
		t.Fatalf("expected ErrTokenIssueFailed, got %v", err)
	}
}

func TestEngineNotReady(t *testing.T) {
	var engine *Engine

	if _, err := engine.Authenticate(context.Background(), Credentials{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Issue(context.Background(), Identity{SubjectID: "u-1"}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithStore(newCountingStore())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected Build without store or redis to fail")
	}
}
