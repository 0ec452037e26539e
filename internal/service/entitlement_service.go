package service

import (
	"context"
	"errors"
	"time"

	"fluentphrases/internal/model"
	"fluentphrases/internal/repository"

	"github.com/rs/zerolog"
)

// UsageInfo describes a user's entitlement and daily usage after any reset
// has been applied.
type UsageInfo struct {
	Role              model.Role
	DailyPhrasesCount int
	// DailyLimit is 0 when no limit is configured. The engine never blocks
	// on it; callers decide.
	DailyLimit   int
	Unrestricted bool
}

type EntitlementService interface {
	// AllowedCategories returns the category allow-list for u, and whether
	// one applies at all.
	AllowedCategories(u *model.User) ([]string, bool)
	// RefreshDailyUsage applies the calendar-day reset for free users and
	// returns the current state.
	RefreshDailyUsage(ctx context.Context, u *model.User) (*model.User, error)
	// IncrementUsage counts one phrase for free users and returns the new
	// counter. Other roles are not tracked and get their stored value back.
	IncrementUsage(ctx context.Context, u *model.User) (int, error)
	// QueryPhrases refreshes usage and returns the phrases u may see.
	QueryPhrases(ctx context.Context, u *model.User, language, category string) ([]model.Phrase, UsageInfo, error)
}

type EntitlementConfig struct {
	FreeCategories []string
	DailyLimit     int
	Location       *time.Location
}

type entitlementService struct {
	users   repository.UserRepository
	phrases repository.PhraseRepository
	cfg     EntitlementConfig
	now     func() time.Time
	logger  zerolog.Logger
}

func NewEntitlementService(users repository.UserRepository, phrases repository.PhraseRepository, cfg EntitlementConfig, now func() time.Time, logger zerolog.Logger) EntitlementService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	cfg.FreeCategories = append([]string{}, cfg.FreeCategories...)
	return &entitlementService{
		users:   users,
		phrases: phrases,
		cfg:     cfg,
		now:     now,
		logger:  logger.With().Str("service", "EntitlementService").Logger(),
	}
}

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	y, m, d := lt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// NeedsDailyReset reports whether now falls on a strictly later calendar day
// than lastReset in loc.
func NeedsDailyReset(lastReset, now time.Time, loc *time.Location) bool {
	return StartOfDay(now, loc).After(StartOfDay(lastReset, loc))
}

func (s *entitlementService) AllowedCategories(u *model.User) ([]string, bool) {
	if u.Entitlement().Unrestricted(s.now()) {
		return nil, false
	}
	return append([]string{}, s.cfg.FreeCategories...), true
}

func (s *entitlementService) RefreshDailyUsage(ctx context.Context, u *model.User) (*model.User, error) {
	now := s.now()
	if u.Role != model.RoleFree || !NeedsDailyReset(u.LastPhrasesReset, now, s.cfg.Location) {
		return u, nil
	}
	reset, err := s.users.ResetDailyUsage(ctx, u.ID, StartOfDay(now, s.cfg.Location), now)
	if err != nil {
		return nil, err
	}
	if reset {
		s.logger.Debug().Str("user_id", u.ID).Msg("Daily phrase counter reset")
		refreshed := *u
		refreshed.DailyPhrasesCount = 0
		refreshed.LastPhrasesReset = now
		return &refreshed, nil
	}
	// Another request reset (or incremented) first; read what it left.
	current, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return current, nil
}

func (s *entitlementService) IncrementUsage(ctx context.Context, u *model.User) (int, error) {
	if u.Role != model.RoleFree {
		return u.DailyPhrasesCount, nil
	}
	now := s.now()
	count, err := s.users.IncrementDailyUsage(ctx, u.ID, StartOfDay(now, s.cfg.Location), now)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}
	// The role changed since the principal was resolved, or the user is gone.
	current, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return current.DailyPhrasesCount, nil
}

func (s *entitlementService) QueryPhrases(ctx context.Context, u *model.User, language, category string) ([]model.Phrase, UsageInfo, error) {
	current, err := s.RefreshDailyUsage(ctx, u)
	if err != nil {
		return nil, UsageInfo{}, err
	}
	filter := model.PhraseFilter{Language: language, Category: category}
	allowed, restricted := s.AllowedCategories(current)
	if restricted {
		filter.Categories = allowed
	}
	phrases, err := s.phrases.Find(ctx, filter)
	if err != nil {
		return nil, UsageInfo{}, err
	}
	info := UsageInfo{
		Role:              current.Role,
		DailyPhrasesCount: current.DailyPhrasesCount,
		Unrestricted:      !restricted,
	}
	if restricted {
		info.DailyLimit = s.cfg.DailyLimit
	}
	return phrases, info, nil
}
