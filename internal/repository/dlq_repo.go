package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"fluentphrases/internal/model"

	"github.com/google/uuid"
)

// DeadLetterRepository keeps payment notifications that could not be applied.
type DeadLetterRepository interface {
	Create(ctx context.Context, message *model.WebhookDeadLetter) error
}

// NotificationDeadLetterRepository keeps notification jobs the mailer could
// not deliver.
type NotificationDeadLetterRepository interface {
	// CreateNotification stores message once per (subscription, message id);
	// redeliveries are ignored.
	CreateNotification(ctx context.Context, message *model.NotificationDeadLetter) error
}

type deadLetterRepo struct {
	db *sql.DB
}

func NewDeadLetterRepo(db *sql.DB) DeadLetterRepository {
	return &deadLetterRepo{db: db}
}

func (r *deadLetterRepo) Create(ctx context.Context, message *model.WebhookDeadLetter) error {
	query := `
        INSERT INTO webhook_dead_letters (event_type, user_id, payload, error, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	return r.db.QueryRowContext(
		ctx,
		query,
		message.EventType,
		message.UserID,
		message.Payload,
		message.Error,
		message.Status,
	).Scan(&message.ID, &message.CreatedAt)
}

type notificationDeadLetterRepo struct {
	db *sql.DB
}

func NewNotificationDeadLetterRepo(db *sql.DB) NotificationDeadLetterRepository {
	return &notificationDeadLetterRepo{db: db}
}

func (r *notificationDeadLetterRepo) CreateNotification(ctx context.Context, message *model.NotificationDeadLetter) error {
	query := `
        INSERT INTO notification_dead_letters (subscription_name, message_id, payload, attributes, status)
        VALUES ($1, $2, $3, $4::jsonb, $5)
        ON CONFLICT (subscription_name, message_id) DO NOTHING
    `
	_, err := r.db.ExecContext(
		ctx,
		query,
		message.SubscriptionName,
		message.MessageID,
		message.Payload,
		message.Attributes,
		message.Status,
	)
	if err != nil {
		return fmt.Errorf("creating dead letter message for subscription %s: %w", message.SubscriptionName, err)
	}
	return nil
}

// MemoryDeadLetterRepo collects dead letters in process.
type MemoryDeadLetterRepo struct {
	mu            sync.Mutex
	messages      []model.WebhookDeadLetter
	notifications []model.NotificationDeadLetter
}

func NewMemoryDeadLetterRepo() *MemoryDeadLetterRepo {
	return &MemoryDeadLetterRepo{}
}

func (r *MemoryDeadLetterRepo) Create(_ context.Context, message *model.WebhookDeadLetter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = uuid.NewString()
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

// Messages returns a copy of the stored dead letters.
func (r *MemoryDeadLetterRepo) Messages() []model.WebhookDeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.WebhookDeadLetter(nil), r.messages...)
}

func (r *MemoryDeadLetterRepo) CreateNotification(_ context.Context, message *model.NotificationDeadLetter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.SubscriptionName == message.SubscriptionName && n.MessageID == message.MessageID {
			return nil
		}
	}
	message.ID = uuid.NewString()
	message.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *message)
	return nil
}

// Notifications returns a copy of the stored notification dead letters.
func (r *MemoryDeadLetterRepo) Notifications() []model.NotificationDeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.NotificationDeadLetter(nil), r.notifications...)
}
