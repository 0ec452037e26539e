package repository

import (
	"context"
	"sync"
	"time"

	"fluentphrases/internal/model"
)

// MemoryUserRepo is an in-process UserRepository with the same conditional
// update semantics as the Postgres implementation. Used with STORE_DRIVER=memory
// and in tests.
type MemoryUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (r *MemoryUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = cloneUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryUserRepo) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.ResetPasswordToken = &token
	u.ResetPasswordExpiry = &expiresAt
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryUserRepo) ConsumeResetToken(_ context.Context, id, token string, passwordHash []byte, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.ResetPasswordToken == nil || *u.ResetPasswordToken != token ||
		u.ResetPasswordExpiry == nil || !u.ResetPasswordExpiry.After(now) {
		return ErrNotFound
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.ResetPasswordToken = nil
	u.ResetPasswordExpiry = nil
	u.UpdatedAt = now
	return nil
}

func (r *MemoryUserRepo) ResetDailyUsage(_ context.Context, id string, dayStart, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.Role != model.RoleFree || !u.LastPhrasesReset.Before(dayStart) {
		return false, nil
	}
	u.DailyPhrasesCount = 0
	u.LastPhrasesReset = now
	u.UpdatedAt = now
	return true, nil
}

func (r *MemoryUserRepo) IncrementDailyUsage(_ context.Context, id string, dayStart, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.Role != model.RoleFree {
		return 0, ErrNotFound
	}
	if u.LastPhrasesReset.Before(dayStart) {
		u.DailyPhrasesCount = 0
		u.LastPhrasesReset = now
	}
	u.DailyPhrasesCount++
	u.UpdatedAt = now
	return u.DailyPhrasesCount, nil
}

func (r *MemoryUserRepo) UpgradeToPremium(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if u.Role != model.RoleFree {
		return false, nil
	}
	u.Role = model.RolePremium
	u.PremiumExpiresAt = nil
	u.UpdatedAt = r.now()
	return true, nil
}

// SetRole overwrites a user's role. Intended for seeding and tests.
func (r *MemoryUserRepo) SetRole(id string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}
