package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fluentphrases/internal/model"
	"fluentphrases/internal/repository"
	"fluentphrases/internal/token"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendPasswordReset(ctx context.Context, email, resetToken string) error {
	args := m.Called(ctx, email, resetToken)
	return args.Error(0)
}

type testEnv struct {
	clock   *fakeClock
	users   *repository.MemoryUserRepo
	content *repository.MemoryContentRepo
	codec   *token.Codec
	sender  *mockSender
	auth    AuthService
	quota   EntitlementService
}

var testPhrases = []model.Phrase{
	{ID: "p1", Language: "en", Category: "Greeting and Introducing", Text: "Hello", Translation: "Hola"},
	{ID: "p2", Language: "en", Category: "Health and Wellness", Text: "I feel well", Translation: "Me siento bien"},
	{ID: "p3", Language: "en", Category: "Travel", Text: "Where is the station?", Translation: "¿Dónde está la estación?"},
	{ID: "p4", Language: "pt", Category: "Travel", Text: "Onde fica a estação?", Translation: "Where is the station?"},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec([]byte("test-secret"), "fluentphrases", token.WithClock(clock.Now))
	require.NoError(t, err)

	users := repository.NewMemoryUserRepo()
	content := repository.NewMemoryContentRepo(testPhrases, nil)
	sender := &mockSender{}

	auth, err := NewAuthService(users, codec, sender, AuthConfig{BcryptCost: bcrypt.MinCost}, clock.Now, zerolog.Nop())
	require.NoError(t, err)
	quota := NewEntitlementService(users, content, EntitlementConfig{
		FreeCategories: []string{"Greeting and Introducing", "Health and Wellness"},
		Location:       time.UTC,
	}, clock.Now, zerolog.Nop())

	return &testEnv{
		clock:   clock,
		users:   users,
		content: content,
		codec:   codec,
		sender:  sender,
		auth:    auth,
		quota:   quota,
	}
}

// signUp registers a user and returns the stored record.
func (e *testEnv) signUp(t *testing.T, email string) *model.User {
	t.Helper()
	res, err := e.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Ana", LastName: "Lee", Email: email, Password: "secret-pass",
	})
	require.NoError(t, err)
	u, err := e.users.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	return u
}

func (e *testEnv) reload(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
