package model

import "time"

const (
	DeadLetterStatusUnprocessed = "unprocessed"
	DeadLetterStatusReplayed    = "replayed"
)

// WebhookDeadLetter is a payment notification whose reconciliation failed
// and must be replayed by an operator.
type WebhookDeadLetter struct {
	ID        string    `db:"id"`
	EventType string    `db:"event_type"`
	UserID    *string   `db:"user_id"`
	Payload   string    `db:"payload"` // raw JSON body as received
	Error     string    `db:"error"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// NotificationDeadLetter is a notification job the mailer gave up on,
// pushed back to us by the Pub/Sub dead-letter subscription.
type NotificationDeadLetter struct {
	ID               string    `db:"id"`
	SubscriptionName string    `db:"subscription_name"`
	MessageID        string    `db:"message_id"`
	Payload          string    `db:"payload"`
	Attributes       *string   `db:"attributes"` // JSON object, null when the message had none
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
}
