package service

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/model"
	"fluentphrases/internal/repository"
)

// DLQService records notification jobs that exhausted their delivery attempts.
type DLQService interface {
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
}

type dlqService struct {
	repo repository.NotificationDeadLetterRepository
}

func NewDLQService(repo repository.NotificationDeadLetterRepository) DLQService {
	return &dlqService{repo: repo}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	// Keep the raw data if it is not valid base64.
	payload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		payload = []byte(req.Message.Data)
	}

	var attributes *string
	if len(req.Message.Attributes) > 0 {
		if b, err := json.Marshal(req.Message.Attributes); err == nil {
			a := string(b)
			attributes = &a
		}
	}

	return s.repo.CreateNotification(ctx, &model.NotificationDeadLetter{
		SubscriptionName: req.Subscription,
		MessageID:        req.Message.MessageID,
		Payload:          string(payload),
		Attributes:       attributes,
		Status:           model.DeadLetterStatusUnprocessed,
	})
}
