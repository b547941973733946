package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"biomarkers/internal/domain"
)

// SleepService encapsulates sleep session use cases.
type SleepService struct {
	repo domain.SleepRepository
}

// NewSleepService creates a SleepService backed by the given repository.
func NewSleepService(repo domain.SleepRepository) *SleepService {
	return &SleepService{repo: repo}
}

// RecordSleep validates and stores a sleep session, assigning an ID when
// the caller did not provide one.
func (s *SleepService) RecordSleep(ctx context.Context, session *domain.SleepSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	return s.repo.AddSleep(ctx, session)
}

// ListSleep returns sleep sessions in the window in ascending end-time
// order.
func (s *SleepService) ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error) {
	start, end, limit = window(start, end, limit)
	return s.repo.ListSleep(ctx, userID, start, end, limit)
}

// LatestSleep returns the most recent sleep session, or ErrNotFound when the
// user has none.
func (s *SleepService) LatestSleep(ctx context.Context, userID int64) (*domain.SleepSession, error) {
	session, err := s.repo.LatestSleep(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

// DeleteSleep removes a sleep session owned by the user.
func (s *SleepService) DeleteSleep(ctx context.Context, userID int64, id string) error {
	return deleted(s.repo.DeleteSleep(ctx, userID, id))
}
