package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fluentphrases/internal/model"
	"fluentphrases/internal/notify"
	"fluentphrases/internal/repository"
	"fluentphrases/internal/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// SignUpInput carries already validated registration fields.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Profile is the public projection of a user. It never carries secrets.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      model.Role
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Token string
	User  Profile
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	// RequestPasswordReset persists a reset token and dispatches it. When
	// dispatch fails the token stays persisted and ErrNotificationFailed is returned.
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword redeems a reset token once and replaces the password.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	Profile(u *model.User) Profile
}

type AuthConfig struct {
	SessionTTL    time.Duration
	ResetTTL      time.Duration
	NotifyTimeout time.Duration
	BcryptCost    int
}

type authService struct {
	users     repository.UserRepository
	codec     *token.Codec
	sender    notify.Sender
	cfg       AuthConfig
	dummyHash []byte
	now       func() time.Time
	logger    zerolog.Logger
}

func NewAuthService(users repository.UserRepository, codec *token.Codec, sender notify.Sender, cfg AuthConfig, now func() time.Time, logger zerolog.Logger) (AuthService, error) {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = 30 * time.Minute
	}
	if cfg.NotifyTimeout == 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	// Compared against when the email is unknown so sign-in timing does not
	// reveal whether an account exists.
	dummy, err := bcrypt.GenerateFromPassword([]byte("fluentphrases-no-such-user"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &authService{
		users:     users,
		codec:     codec,
		sender:    sender,
		cfg:       cfg,
		dummyHash: dummy,
		now:       now,
		logger:    logger.With().Str("service", "AuthService").Logger(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:                uuid.NewString(),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             email,
		PasswordHash:      hash,
		Role:              model.RoleFree,
		DailyPhrasesCount: 0,
		LastPhrasesReset:  s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		return nil, err
	}

	tok, err := s.codec.Issue(u.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("User registered")
	return &AuthResult{Token: tok, User: s.Profile(u)}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.codec.Issue(u.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("User signed in")
	return &AuthResult{Token: tok, User: s.Profile(u)}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	resetToken, err := s.codec.Issue(u.ID, s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, resetToken, s.now().Add(s.cfg.ResetTTL)); err != nil {
		return err
	}

	// Delivery is bounded and detached from client cancellation; the token is
	// already committed whatever happens here.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	if err := s.sender.SendPasswordReset(sendCtx, u.Email, resetToken); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to dispatch password reset email")
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	s.logger.Info().Str("user_id", u.ID).Msg("Password reset requested")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.codec.Verify(resetToken)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ConsumeResetToken(ctx, claims.Subject, resetToken, hash, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: reset token not active", ErrInvalidToken)
		}
		return err
	}
	s.logger.Info().Str("user_id", claims.Subject).Msg("Password reset completed")
	return nil
}

func (s *authService) Profile(u *model.User) Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
