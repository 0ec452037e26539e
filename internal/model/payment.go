package model

// PaymentEventTypePayment is the notification type sent when a payment completes.
const PaymentEventTypePayment = "payment"

// PaymentEvent is the untrusted webhook body posted by the payment provider.
type PaymentEvent struct {
	Type string           `json:"type"`
	Data PaymentEventData `json:"data"`
}

type PaymentEventData struct {
	ID       string                `json:"id"`
	Metadata *PaymentEventMetadata `json:"metadata"`
}

type PaymentEventMetadata struct {
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
}

// UserID returns the metadata user id, or "" when the payload omits it.
func (e *PaymentEvent) UserID() string {
	if e.Data.Metadata == nil {
		return ""
	}
	return e.Data.Metadata.UserID
}

// Plan is a purchasable premium plan.
type Plan struct {
	ID    string
	Title string
	Price float64
}
