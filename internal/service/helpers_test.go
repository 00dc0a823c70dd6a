package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cachememory "github.com/prn-tf/theory-forum/internal/cache/memory"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/repository/memory"
)

// testServices wires every service on a fresh memory store.
type testServices struct {
	store    *memory.Store
	repos    *repository.Repositories
	metrics  *metrics.Metrics
	tokens   *TokenService
	users    *UserService
	theories *TheoryService
	comments *CommentService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	logger := zerolog.Nop()
	store := memory.NewStore(logger)
	cache := cachememory.NewCache(time.Minute, logger)
	t.Cleanup(func() {
		_ = cache.Close()
		_ = store.Close()
	})

	repos := store.Repositories()
	m := metrics.New()
	tokens := NewTokenService(cache, 0, m, logger)

	return &testServices{
		store:    store,
		repos:    repos,
		metrics:  m,
		tokens:   tokens,
		users:    NewUserService(repos.User, tokens, bcrypt.MinCost, m, logger),
		theories: NewTheoryService(repos.Theory, repos.User, m, logger),
		comments: NewCommentService(repos.Comment, repos.User, m, logger),
	}
}

// register creates a user and returns its id and token.
func (ts *testServices) register(t *testing.T, name string) (int64, string) {
	t.Helper()
	out, err := ts.users.RegisterOrLogin(context.Background(), RegisterOrLoginInput{
		Username: name,
		Secret:   "TRUSTNO1",
	})
	require.NoError(t, err)
	return out.User.ID, out.Token
}

// stepClock returns a clock that advances by one minute per call.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func ptr[T any](v T) *T {
	return &v
}

// =============================================================================
// Mocks
// =============================================================================

// MockCache is a mock implementation of repository.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Close() error {
	return m.Called().Error(0)
}

var _ repository.Cache = (*MockCache)(nil)
