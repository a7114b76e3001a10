package services

import (
	"context"
	"time"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"
	"bidbout/pkg/utils"

	"github.com/robfig/cron/v3"
)

// CronLotScheduler drives lot lifecycle transitions from a persistent
// job table, polled once a minute. Jobs that fail stay pending and are
// retried on the next tick.
type CronLotScheduler struct {
	cron   *cron.Cron
	repo   domain.SchedulerRepository
	lotMgr *LotManager
	log    logger.Logger
}

func NewCronLotScheduler(repo domain.SchedulerRepository, lotMgr *LotManager, log logger.Logger) *CronLotScheduler {
	return &CronLotScheduler{
		cron:   cron.New(cron.WithSeconds()),
		repo:   repo,
		lotMgr: lotMgr,
		log:    log,
	}
}

func (s *CronLotScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting lot scheduler")

	_, err := s.cron.AddFunc("@every 1m", func() {
		s.processPendingJobs(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronLotScheduler) Stop() error {
	s.log.Info("Stopping lot scheduler")
	s.cron.Stop()
	return nil
}

func (s *CronLotScheduler) ScheduleLotStart(ctx context.Context, lotID string, startTime time.Time) error {
	job := &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		LotID:     lotID,
		JobType:   domain.JobStartLot,
		RunAt:     startTime,
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	}

	return s.repo.CreateJob(ctx, job)
}

func (s *CronLotScheduler) ScheduleLotEnd(ctx context.Context, lotID string, endTime time.Time) error {
	job := &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		LotID:     lotID,
		JobType:   domain.JobEndLot,
		RunAt:     endTime,
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	}

	return s.repo.CreateJob(ctx, job)
}

func (s *CronLotScheduler) CancelSchedule(ctx context.Context, lotID string) error {
	return s.repo.CancelJobsForLot(ctx, lotID)
}

func (s *CronLotScheduler) processPendingJobs(ctx context.Context) {
	jobs, err := s.repo.GetPendingJobs(ctx, time.Now())
	if err != nil {
		s.log.Error("Failed to get pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Processing job", "job_id", job.ID, "type", job.JobType, "lot_id", job.LotID)

		var err error
		switch job.JobType {
		case domain.JobStartLot:
			err = s.lotMgr.StartLot(ctx, job.LotID)
		case domain.JobEndLot:
			err = s.lotMgr.EndLot(ctx, job.LotID)
		}

		if err != nil {
			s.log.Error("Failed to execute job", "job_id", job.ID, "error", err)
			continue
		}

		if err := s.repo.UpdateJobStatus(ctx, job.ID, domain.JobExecuted); err != nil {
			s.log.Error("Failed to mark job executed", "job_id", job.ID, "error", err)
		}
	}
}
