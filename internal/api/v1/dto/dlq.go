package dto

// PubSubPushRequest is the envelope Pub/Sub posts to a push endpoint. Here it
// carries reset-email jobs the mailer gave up on.
type PubSubPushRequest struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
	// DeliveryAttempt is only set when the subscription has a dead-letter policy.
	DeliveryAttempt int `json:"deliveryAttempt,omitempty"`
}

type PubSubMessage struct {
	Data        string            `json:"data"` // base64
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}
