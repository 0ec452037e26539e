package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fluentphrases/internal/model"
	"fluentphrases/internal/payment"
	"fluentphrases/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Plans lists the purchasable premium plans by id.
var Plans = map[string]model.Plan{
	"monthly":  {ID: "monthly", Title: "Premium Monthly", Price: 9.99},
	"biannual": {ID: "biannual", Title: "Premium Biannual", Price: 49.99},
	"annual":   {ID: "annual", Title: "Premium Annual", Price: 89.99},
}

const planCurrency = "USD"

// WebhookMeta carries the request parts needed to authenticate a notification.
type WebhookMeta struct {
	Signature string // x-signature header
	RequestID string // x-request-id header
	DataID    string // data.id query parameter
}

// WebhookOutcome reports what reconciliation did with a notification. The
// HTTP layer acknowledges every outcome.
type WebhookOutcome string

const (
	WebhookIgnored           WebhookOutcome = "ignored"
	WebhookUpgraded          WebhookOutcome = "upgraded"
	WebhookAlreadyPremium    WebhookOutcome = "already_premium"
	WebhookUnknownUser       WebhookOutcome = "unknown_user"
	WebhookInvalid           WebhookOutcome = "invalid"
	WebhookFailed            WebhookOutcome = "failed"
	WebhookRejectedSignature WebhookOutcome = "rejected_signature"
)

type PaymentService interface {
	// CreatePreference opens a hosted checkout for plan on behalf of u and
	// returns the provider's preference id.
	CreatePreference(ctx context.Context, u *model.User, planID string) (string, error)
	// ReconcileWebhook applies a payment notification. It never fails; the
	// outcome is informational.
	ReconcileWebhook(ctx context.Context, payload []byte, meta WebhookMeta) WebhookOutcome
}

type PaymentConfig struct {
	FrontendURL   string
	BackendURL    string
	WebhookSecret string
}

type paymentService struct {
	users       repository.UserRepository
	deadLetters repository.DeadLetterRepository
	preferences payment.PreferenceCreator
	cfg         PaymentConfig
	logger      zerolog.Logger
}

func NewPaymentService(users repository.UserRepository, deadLetters repository.DeadLetterRepository, preferences payment.PreferenceCreator, cfg PaymentConfig, logger zerolog.Logger) PaymentService {
	return &paymentService{
		users:       users,
		deadLetters: deadLetters,
		preferences: preferences,
		cfg:         cfg,
		logger:      logger.With().Str("service", "PaymentService").Logger(),
	}
}

func (s *paymentService) CreatePreference(ctx context.Context, u *model.User, planID string) (string, error) {
	plan, ok := Plans[planID]
	if !ok {
		return "", ErrInvalidPlan
	}

	frontend := strings.TrimRight(s.cfg.FrontendURL, "/")
	req := payment.PreferenceRequest{
		Items: []payment.PreferenceItem{{
			ID:         plan.ID,
			Title:      plan.Title,
			Quantity:   1,
			UnitPrice:  plan.Price,
			CurrencyID: planCurrency,
		}},
		BackURLs: payment.BackURLs{
			Success: frontend + "/payment/success",
			Failure: frontend + "/payment/failure",
			Pending: frontend + "/payment/pending",
		},
		AutoReturn:      "approved",
		NotificationURL: strings.TrimRight(s.cfg.BackendURL, "/") + "/api/payments/webhook",
		Metadata:        map[string]string{"userId": u.ID, "planId": plan.ID},
	}

	id, err := s.preferences.CreatePreference(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Str("plan_id", plan.ID).Msg("Failed to create payment preference")
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	s.logger.Info().Str("user_id", u.ID).Str("plan_id", plan.ID).Str("preference_id", id).Msg("Payment preference created")
	return id, nil
}

func (s *paymentService) ReconcileWebhook(ctx context.Context, payload []byte, meta WebhookMeta) WebhookOutcome {
	if s.cfg.WebhookSecret != "" {
		if err := payment.VerifySignature(s.cfg.WebhookSecret, meta.Signature, meta.RequestID, meta.DataID); err != nil {
			s.logger.Warn().Err(err).Str("request_id", meta.RequestID).Msg("Rejected payment webhook signature")
			return WebhookRejectedSignature
		}
	}

	var event model.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Error().Err(err).Msg("Invalid payment webhook payload")
		return WebhookInvalid
	}
	s.logger.Info().Str("event_type", event.Type).Str("data_id", event.Data.ID).Msg("Payment webhook received")

	if event.Type != model.PaymentEventTypePayment {
		return WebhookIgnored
	}

	userID := event.UserID()
	if userID == "" {
		s.logger.Error().Str("data_id", event.Data.ID).Msg("Missing userId in payment metadata")
		return WebhookInvalid
	}
	if _, err := uuid.Parse(userID); err != nil {
		s.logger.Error().Str("user_id", userID).Msg("Malformed userId in payment metadata")
		return WebhookInvalid
	}

	changed, err := s.users.UpgradeToPremium(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Warn().Str("user_id", userID).Msg("Payment webhook for unknown user")
		return WebhookUnknownUser
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to upgrade user to premium")
		s.deadLetter(ctx, event.Type, userID, payload, err)
		return WebhookFailed
	case !changed:
		s.logger.Info().Str("user_id", userID).Msg("User already premium; webhook ignored")
		return WebhookAlreadyPremium
	}
	s.logger.Info().Str("user_id", userID).Msg("User upgraded to premium")
	return WebhookUpgraded
}

// deadLetter persists a notification that could not be applied. Failures are
// only logged since the provider is acknowledged regardless.
func (s *paymentService) deadLetter(ctx context.Context, eventType, userID string, payload []byte, cause error) {
	msg := &model.WebhookDeadLetter{
		EventType: eventType,
		UserID:    &userID,
		Payload:   string(payload),
		Error:     cause.Error(),
		Status:    model.DeadLetterStatusUnprocessed,
	}
	if err := s.deadLetters.Create(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to persist webhook dead letter")
		return
	}
	s.logger.Info().Str("dead_letter_id", msg.ID).Msg("Webhook stored for replay")
}
