package services

import (
	"context"
	"testing"
	"time"

	"bidbout/internal/domain"
	"bidbout/internal/infrastructure/memory"
	"bidbout/pkg/logger"

	"github.com/stretchr/testify/require"
)

type stubScheduler struct {
	starts    []string
	ends      []string
	cancelled []string
}

func (s *stubScheduler) ScheduleLotStart(ctx context.Context, lotID string, startTime time.Time) error {
	s.starts = append(s.starts, lotID)
	return nil
}

func (s *stubScheduler) ScheduleLotEnd(ctx context.Context, lotID string, endTime time.Time) error {
	s.ends = append(s.ends, lotID)
	return nil
}

func (s *stubScheduler) CancelSchedule(ctx context.Context, lotID string) error {
	s.cancelled = append(s.cancelled, lotID)
	return nil
}

func (s *stubScheduler) Start(ctx context.Context) error { return nil }
func (s *stubScheduler) Stop() error                     { return nil }

type stubLeader struct {
	leader bool
}

func (l *stubLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *stubLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *stubLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

func newLotManagerFixture(t *testing.T, isLeader bool) (*LotManager, *memory.LotRepository, *stubScheduler, *memory.LotStateCache) {
	t.Helper()

	lotRepo := memory.NewLotRepository()
	stateCache := memory.NewLotStateCache()
	scheduler := &stubScheduler{}

	manager := NewLotManager(
		lotRepo, stateCache, &capturePublisher{}, scheduler,
		&stubLeader{leader: isLeader}, "instance-1", logger.Nop())

	return manager, lotRepo, scheduler, stateCache
}

func TestLotManager_CreateLotSchedulesLifecycle(t *testing.T) {
	manager, lotRepo, scheduler, _ := newLotManagerFixture(t, true)

	start := time.Now().Add(time.Hour)
	lot, err := manager.CreateLot(context.Background(), CreateLotParams{
		SellerID:     "seller-1",
		Title:        "oak dresser",
		ReservePrice: 200,
		StartTime:    start,
		DurationDays: 7,
	})
	require.NoError(t, err)
	require.Equal(t, domain.LotPending, lot.Status)
	require.Equal(t, start.AddDate(0, 0, 7), lot.EndTime)

	stored, err := lotRepo.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	require.Equal(t, int64(200), stored.ReservePrice)

	require.Equal(t, []string{lot.ID}, scheduler.starts)
	require.Equal(t, []string{lot.ID}, scheduler.ends)
}

func TestLotManager_CancelBeforeStart(t *testing.T) {
	manager, lotRepo, scheduler, _ := newLotManagerFixture(t, true)

	lot, err := manager.CreateLot(context.Background(), CreateLotParams{
		SellerID:     "seller-1",
		Title:        "oak dresser",
		StartTime:    time.Now().Add(time.Hour),
		DurationDays: 3,
	})
	require.NoError(t, err)

	require.NoError(t, manager.CancelLot(context.Background(), lot.ID))

	stored, err := lotRepo.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	require.Equal(t, domain.LotCancelled, stored.Status)
	require.Equal(t, []string{lot.ID}, scheduler.cancelled)
}

func TestLotManager_CancelAfterStartRejected(t *testing.T) {
	manager, lotRepo, _, _ := newLotManagerFixture(t, true)

	lot := &domain.Lot{
		ID:        "lot-running",
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Status:    domain.LotActive,
	}
	require.NoError(t, lotRepo.CreateLot(context.Background(), lot))

	err := manager.CancelLot(context.Background(), lot.ID)
	require.ErrorIs(t, err, domain.ErrLotAlreadyStarted)
}

func TestLotManager_StartAndEndTransitions(t *testing.T) {
	manager, lotRepo, _, stateCache := newLotManagerFixture(t, true)
	ctx := context.Background()

	lot := &domain.Lot{ID: "lot-1", Status: domain.LotPending}
	require.NoError(t, lotRepo.CreateLot(ctx, lot))

	require.NoError(t, manager.StartLot(ctx, "lot-1"))
	status, err := stateCache.GetLotStatus(ctx, "lot-1")
	require.NoError(t, err)
	require.Equal(t, domain.LotActive, status)

	require.NoError(t, manager.EndLot(ctx, "lot-1"))
	stored, err := lotRepo.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	require.Equal(t, domain.LotEnded, stored.Status)

	// Ending again is a no-op, not an error.
	require.NoError(t, manager.EndLot(ctx, "lot-1"))
}

func TestLotManager_NonLeaderSkipsTransitions(t *testing.T) {
	manager, lotRepo, _, _ := newLotManagerFixture(t, false)
	ctx := context.Background()

	lot := &domain.Lot{ID: "lot-1", Status: domain.LotPending}
	require.NoError(t, lotRepo.CreateLot(ctx, lot))

	require.NoError(t, manager.StartLot(ctx, "lot-1"))

	stored, err := lotRepo.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	require.Equal(t, domain.LotPending, stored.Status, "followers must not transition lots")
}
