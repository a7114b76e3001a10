package services

import (
	"context"
	"time"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"
	"bidbout/pkg/utils"
)

// LotManager owns the lot lifecycle: creation, the pending -> active ->
// ended transitions executed by the scheduler, and pre-start
// cancellation. Status transitions run only on the leader instance so
// several replicas can share one database.
type LotManager struct {
	lotRepo        domain.LotRepository
	stateCache     domain.LotStateCache
	eventPub       domain.EventPublisher
	scheduler      domain.LotScheduler
	leaderElection domain.LeaderElection
	instanceID     string
	log            logger.Logger
}

func NewLotManager(
	lotRepo domain.LotRepository,
	stateCache domain.LotStateCache,
	eventPub domain.EventPublisher,
	scheduler domain.LotScheduler,
	leaderElection domain.LeaderElection,
	instanceID string,
	log logger.Logger,
) *LotManager {
	return &LotManager{
		lotRepo:        lotRepo,
		stateCache:     stateCache,
		eventPub:       eventPub,
		scheduler:      scheduler,
		leaderElection: leaderElection,
		instanceID:     instanceID,
		log:            log,
	}
}

// SetScheduler breaks the manager/scheduler construction cycle: the
// scheduler needs the manager to execute jobs, the manager needs the
// scheduler to enqueue them.
func (m *LotManager) SetScheduler(scheduler domain.LotScheduler) {
	m.scheduler = scheduler
}

type CreateLotParams struct {
	SellerID     string
	Title        string
	Description  string
	PickupPlace  string
	ReservePrice int64
	StartTime    time.Time
	DurationDays int
}

func (m *LotManager) CreateLot(ctx context.Context, params CreateLotParams) (*domain.Lot, error) {
	now := time.Now()
	lot := &domain.Lot{
		ID:           utils.GenerateID("lot"),
		SellerID:     params.SellerID,
		Title:        params.Title,
		Description:  params.Description,
		PickupPlace:  params.PickupPlace,
		ReservePrice: params.ReservePrice,
		StartTime:    params.StartTime,
		EndTime:      params.StartTime.AddDate(0, 0, params.DurationDays),
		Status:       domain.LotPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.lotRepo.CreateLot(ctx, lot); err != nil {
		return nil, err
	}

	if err := m.scheduler.ScheduleLotStart(ctx, lot.ID, lot.StartTime); err != nil {
		return nil, err
	}
	if err := m.scheduler.ScheduleLotEnd(ctx, lot.ID, lot.EndTime); err != nil {
		return nil, err
	}

	m.log.Info("Lot created", "lot_id", lot.ID, "start_time", lot.StartTime, "end_time", lot.EndTime)
	return lot, nil
}

func (m *LotManager) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	return m.lotRepo.GetLot(ctx, lotID)
}

func (m *LotManager) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	return m.lotRepo.ListLots(ctx)
}

// CancelLot withdraws a lot before its auction starts. A running or
// finished auction cannot be cancelled.
func (m *LotManager) CancelLot(ctx context.Context, lotID string) error {
	lot, err := m.lotRepo.GetLot(ctx, lotID)
	if err != nil {
		return err
	}

	if !lot.StartTime.After(time.Now()) || lot.Status != domain.LotPending {
		return domain.ErrLotAlreadyStarted
	}

	if err := m.lotRepo.UpdateLotStatus(ctx, lotID, domain.LotCancelled); err != nil {
		return err
	}
	if err := m.stateCache.SetLotStatus(ctx, lotID, domain.LotCancelled); err != nil {
		return err
	}

	m.log.Info("Lot cancelled", "lot_id", lotID)
	return m.scheduler.CancelSchedule(ctx, lotID)
}

func (m *LotManager) StartLot(ctx context.Context, lotID string) error {
	isLeader, err := m.leaderElection.IsLeader(ctx, m.instanceID)
	if err != nil || !isLeader {
		return err
	}

	lot, err := m.lotRepo.GetLot(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.Status != domain.LotPending {
		return nil
	}

	m.log.Info("Starting lot auction", "lot_id", lotID)

	if err := m.lotRepo.UpdateLotStatus(ctx, lotID, domain.LotActive); err != nil {
		return err
	}
	return m.stateCache.SetLotStatus(ctx, lotID, domain.LotActive)
}

func (m *LotManager) EndLot(ctx context.Context, lotID string) error {
	isLeader, err := m.leaderElection.IsLeader(ctx, m.instanceID)
	if err != nil || !isLeader {
		return err
	}

	// Guard against double-ending when jobs are retried.
	currentStatus, err := m.stateCache.GetLotStatus(ctx, lotID)
	if err != nil || currentStatus != domain.LotActive {
		return err
	}

	m.log.Info("Ending lot auction", "lot_id", lotID)

	if err := m.lotRepo.UpdateLotStatus(ctx, lotID, domain.LotEnded); err != nil {
		return err
	}
	if err := m.stateCache.SetLotStatus(ctx, lotID, domain.LotEnded); err != nil {
		return err
	}

	return m.eventPub.PublishBidEvent(ctx, &domain.BidEvent{
		Type:      domain.LotClosed,
		LotID:     lotID,
		Timestamp: time.Now(),
	})
}
