package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/config"
	"github.com/exovet/supportbot/internal/domain/models"
	"github.com/exovet/supportbot/internal/service/reporting"
	"github.com/exovet/supportbot/internal/service/telegram"
)

const sessionSweepSpec = "@every 5m"

// Scheduler manages scheduled tasks: the periodic admin digest and the
// stale conversation-session sweep.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	messagingSvc telegram.MessagingService
	sessions     *telegram.SessionManager
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, messagingSvc telegram.MessagingService, sessions *telegram.SessionManager, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(),
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		sessions:     sessions,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.Reporting.DigestCronSchedule, s.sendDigest); err != nil {
		s.logger.Error("failed to schedule admin digest", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(sessionSweepSpec, s.sweepSessions); err != nil {
		s.logger.Error("failed to schedule session sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sendDigest() {
	s.logger.Info("generating consultation digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	digest, err := s.reportingSvc.SummaryText(ctx)
	if err != nil {
		s.logger.Error("failed to generate digest", zap.Error(err))
		return
	}

	req := models.OutboundMessageRequest{
		ChatID:  s.cfg.Telegram.AdminID,
		Message: digest,
	}

	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send digest", zap.Error(err))
	} else {
		s.logger.Info("digest sent successfully")
	}
}

func (s *Scheduler) sweepSessions() {
	if s.sessions == nil {
		return
	}
	if removed := s.sessions.SweepExpired(); removed > 0 {
		s.logger.Info("expired stale conversation sessions", zap.Int("count", removed))
	}
}
