// Package notify delivers password reset notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"fluentphrases/internal/pubsub"

	"github.com/rs/zerolog"
)

// Sender delivers a password reset token to an email address.
type Sender interface {
	SendPasswordReset(ctx context.Context, email, resetToken string) error
}

// ResetEmail is the job published for the mailer.
type ResetEmail struct {
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}

// ResetURL builds the frontend link that redeems token.
func ResetURL(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// PubSubSender hands reset emails to the mailer through a Pub/Sub topic.
type PubSubSender struct {
	publisher   pubsub.Publisher
	topic       string
	frontendURL string
	logger      zerolog.Logger
}

func NewPubSubSender(publisher pubsub.Publisher, topic, frontendURL string, logger zerolog.Logger) *PubSubSender {
	return &PubSubSender{
		publisher:   publisher,
		topic:       topic,
		frontendURL: frontendURL,
		logger:      logger.With().Str("component", "PubSubSender").Logger(),
	}
}

func (s *PubSubSender) SendPasswordReset(ctx context.Context, email, resetToken string) error {
	payload, err := json.Marshal(ResetEmail{
		Kind:     "password_reset",
		Email:    email,
		ResetURL: ResetURL(s.frontendURL, resetToken),
	})
	if err != nil {
		return fmt.Errorf("encode reset email: %w", err)
	}
	id, err := s.publisher.Publish(ctx, s.topic, payload, map[string]string{"kind": "password_reset"})
	if err != nil {
		return err
	}
	s.logger.Info().Str("message_id", id).Str("topic", s.topic).Msg("Password reset email queued")
	return nil
}

// LogSender writes reset links to the log instead of sending mail. Only for
// local development.
type LogSender struct {
	frontendURL string
	logger      zerolog.Logger
}

func NewLogSender(frontendURL string, logger zerolog.Logger) *LogSender {
	return &LogSender{frontendURL: frontendURL, logger: logger.With().Str("component", "LogSender").Logger()}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, resetToken string) error {
	s.logger.Info().Str("email", email).Str("reset_url", ResetURL(s.frontendURL, resetToken)).Msg("Password reset link (not sent)")
	return nil
}
