package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"biomarkers/internal/domain"
)

// Scheduler runs the periodic background jobs: device sync, daily analysis
// and session cleanup.
type Scheduler struct {
	cron      *cron.Cron
	sync      *SyncService
	analytics *AnalyticsService
	users     domain.UserRepository
	sessions  domain.SessionRepository
	log       zerolog.Logger

	// SyncSchedule and AnalysisSchedule are cron expressions; empty
	// selects the defaults (hourly sync, analysis at 06:00).
	SyncSchedule     string
	AnalysisSchedule string
}

// NewScheduler creates a Scheduler with the default schedules.
func NewScheduler(
	sync *SyncService,
	analytics *AnalyticsService,
	users domain.UserRepository,
	sessions domain.SessionRepository,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sync:      sync,
		analytics: analytics,
		users:     users,
		sessions:  sessions,
		log:       log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	syncSpec := s.SyncSchedule
	if syncSpec == "" {
		syncSpec = "@every 1h"
	}
	analysisSpec := s.AnalysisSchedule
	if analysisSpec == "" {
		analysisSpec = "0 6 * * *"
	}

	if _, err := s.cron.AddFunc(syncSpec, s.runSync); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(analysisSpec, s.runDailyAnalysis); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 6h", s.cleanupSessions); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("sync", syncSpec).Str("analysis", analysisSpec).Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	s.sync.SyncAllConnected(ctx, 7)
}

func (s *Scheduler) runDailyAnalysis() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	users, err := s.users.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list users for daily analysis")
		return
	}
	for _, u := range users {
		if _, err := s.analytics.DailyAnalysis(ctx, u.ID); err != nil {
			s.log.Error().Err(err).Int64("user_id", u.ID).Msg("daily analysis failed")
		}
	}
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.sessions.DeleteExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("session cleanup failed")
	}
}
