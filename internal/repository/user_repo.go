package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fluentphrases/internal/model"
)

// UserRepository is the credential store. It exclusively owns user records.
type UserRepository interface {
	// Create inserts u. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetResetToken stores a password reset token and its expiry.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// ConsumeResetToken replaces the password hash and clears the reset token
	// if token matches and has not expired at now. Returns ErrNotFound otherwise.
	ConsumeResetToken(ctx context.Context, id, token string, passwordHash []byte, now time.Time) error
	// ResetDailyUsage zeroes the counter of a free user whose last reset is
	// before dayStart, and reports whether a reset happened.
	ResetDailyUsage(ctx context.Context, id string, dayStart, now time.Time) (bool, error)
	// IncrementDailyUsage applies a pending reset (last reset before dayStart)
	// and then adds one, in a single atomic step. Only free users are counted;
	// ErrNotFound is returned when no free user matches id.
	IncrementDailyUsage(ctx context.Context, id string, dayStart, now time.Time) (int, error)
	// UpgradeToPremium moves a free user to premium and reports whether the
	// role changed. Users already premium or admin are left untouched.
	UpgradeToPremium(ctx context.Context, id string) (bool, error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, premium_expires_at,
	is_email_verified, verification_token, reset_password_token, reset_password_expires,
	daily_phrases_count, last_phrases_reset, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.PremiumExpiresAt,
		&u.IsEmailVerified, &u.VerificationToken, &u.ResetPasswordToken, &u.ResetPasswordExpiry,
		&u.DailyPhrasesCount, &u.LastPhrasesReset, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (id, first_name, last_name, email, password_hash, role, daily_phrases_count, last_phrases_reset)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role,
		u.DailyPhrasesCount, u.LastPhrasesReset).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}
	return u, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return u, err
}

func (r *userRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_password_token = $2, reset_password_expires = $3, updated_at = now()
              WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("storing reset token for user %s: %w", id, err)
	}
	return requireOneRow(res)
}

func (r *userRepo) ConsumeResetToken(ctx context.Context, id, token string, passwordHash []byte, now time.Time) error {
	query := `UPDATE users
              SET password_hash = $3, reset_password_token = NULL, reset_password_expires = NULL, updated_at = $4
              WHERE id = $1 AND reset_password_token = $2 AND reset_password_expires > $4`
	res, err := r.db.ExecContext(ctx, query, id, token, passwordHash, now)
	if err != nil {
		return fmt.Errorf("consuming reset token for user %s: %w", id, err)
	}
	return requireOneRow(res)
}

func (r *userRepo) ResetDailyUsage(ctx context.Context, id string, dayStart, now time.Time) (bool, error) {
	query := `UPDATE users SET daily_phrases_count = 0, last_phrases_reset = $3, updated_at = $3
              WHERE id = $1 AND role = 'free' AND last_phrases_reset < $2`
	res, err := r.db.ExecContext(ctx, query, id, dayStart, now)
	if err != nil {
		return false, fmt.Errorf("resetting daily usage for user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resetting daily usage for user %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *userRepo) IncrementDailyUsage(ctx context.Context, id string, dayStart, now time.Time) (int, error) {
	query := `UPDATE users SET
                daily_phrases_count = CASE WHEN last_phrases_reset < $2 THEN 1 ELSE daily_phrases_count + 1 END,
                last_phrases_reset  = CASE WHEN last_phrases_reset < $2 THEN $3 ELSE last_phrases_reset END,
                updated_at = $3
              WHERE id = $1 AND role = 'free'
              RETURNING daily_phrases_count`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id, dayStart, now).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("incrementing daily usage for user %s: %w", id, err)
	}
	return count, nil
}

func (r *userRepo) UpgradeToPremium(ctx context.Context, id string) (bool, error) {
	query := `UPDATE users SET role = 'premium', premium_expires_at = NULL, updated_at = now()
              WHERE id = $1 AND role = 'free'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("upgrading user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upgrading user %s: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}
	// Nothing changed: either already entitled or unknown.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user %s: %w", id, err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
