package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fluentphrases/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignUp(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Ana", LastName: "Lee", Email: "  Ana@X.com ", Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", res.User.Email)
	assert.Equal(t, model.RoleFree, res.User.Role)

	claims, err := env.codec.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)

	stored := env.reload(t, claims.Subject)
	assert.Equal(t, model.RoleFree, stored.Role)
	assert.Equal(t, 0, stored.DailyPhrasesCount)
	assert.Equal(t, env.clock.Now(), stored.LastPhrasesReset)
	assert.NotEqual(t, []byte("secret-pass"), stored.PasswordHash)
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")

	_, err := env.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Other", LastName: "Person", Email: "ANA@x.com", Password: "another-pass",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_SignIn(t *testing.T) {
	env := newTestEnv(t)
	u := env.signUp(t, "ana@x.com")

	res, err := env.auth.SignIn(context.Background(), "ANA@x.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	claims, err := env.codec.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestAuthService_SignIn_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")

	_, wrongPassword := env.auth.SignIn(context.Background(), "ana@x.com", "not-the-password")
	_, unknownEmail := env.auth.SignIn(context.Background(), "nobody@x.com", "secret-pass")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	u := env.signUp(t, "ana@x.com")

	var sent string
	env.sender.On("SendPasswordReset", mock.Anything, "ana@x.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return(nil)

	require.NoError(t, env.auth.RequestPasswordReset(context.Background(), "ana@x.com"))
	env.sender.AssertExpectations(t)

	stored := env.reload(t, u.ID)
	require.NotNil(t, stored.ResetPasswordToken)
	assert.Equal(t, sent, *stored.ResetPasswordToken)
	require.NotNil(t, stored.ResetPasswordExpiry)
	assert.Equal(t, env.clock.Now().Add(30*time.Minute), *stored.ResetPasswordExpiry)
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.auth.RequestPasswordReset(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	env.sender.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RequestPasswordReset_NotificationFailureKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.signUp(t, "ana@x.com")

	env.sender.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp unavailable"))

	err := env.auth.RequestPasswordReset(context.Background(), "ana@x.com")
	assert.ErrorIs(t, err, ErrNotificationFailed)

	stored := env.reload(t, u.ID)
	assert.NotNil(t, stored.ResetPasswordToken)
	assert.NotNil(t, stored.ResetPasswordExpiry)
}

func TestAuthService_RequestPasswordReset_SendIgnoresCallerCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")

	env.sender.On("SendPasswordReset", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	}), "ana@x.com", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The store ignores ctx, so only the send context is observable.
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "ana@x.com"))
	env.sender.AssertExpectations(t)
}

func TestAuthService_ResetPassword_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")

	var resetToken string
	env.sender.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { resetToken = args.String(2) }).
		Return(nil)
	require.NoError(t, env.auth.RequestPasswordReset(context.Background(), "ana@x.com"))

	require.NoError(t, env.auth.ResetPassword(context.Background(), resetToken, "brand-new-pass"))

	_, err := env.auth.SignIn(context.Background(), "ana@x.com", "brand-new-pass")
	require.NoError(t, err)
	_, err = env.auth.SignIn(context.Background(), "ana@x.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = env.auth.ResetPassword(context.Background(), resetToken, "third-pass-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")

	var resetToken string
	env.sender.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { resetToken = args.String(2) }).
		Return(nil)
	require.NoError(t, env.auth.RequestPasswordReset(context.Background(), "ana@x.com"))

	env.clock.Advance(31 * time.Minute)
	err := env.auth.ResetPassword(context.Background(), resetToken, "brand-new-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ResetPassword_SessionTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ana@x.com")
	res, err := env.auth.SignIn(context.Background(), "ana@x.com", "secret-pass")
	require.NoError(t, err)

	err = env.auth.ResetPassword(context.Background(), res.Token, "brand-new-pass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Profile(t *testing.T) {
	env := newTestEnv(t)
	u := &model.User{
		ID: "u-1", FirstName: "Ana", LastName: "Lee", Email: "ana@x.com",
		PasswordHash: []byte("hash"), Role: model.RolePremium,
	}

	assert.Equal(t, Profile{ID: "u-1", FirstName: "Ana", LastName: "Lee", Email: "ana@x.com", Role: model.RolePremium}, env.auth.Profile(u))
}
