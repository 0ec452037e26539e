package service

import (
	"context"

	"fluentphrases/internal/model"
	"fluentphrases/internal/repository"
)

type ReadingService interface {
	List(ctx context.Context) ([]model.Reading, error)
}

type readingService struct {
	readings repository.ReadingRepository
}

func NewReadingService(readings repository.ReadingRepository) ReadingService {
	return &readingService{readings: readings}
}

func (s *readingService) List(ctx context.Context) ([]model.Reading, error) {
	return s.readings.List(ctx)
}
