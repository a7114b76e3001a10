package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bidbout/internal/domain"
	"bidbout/internal/infrastructure/memory"
	"bidbout/pkg/logger"

	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*domain.BidEvent
}

func (p *capturePublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) captured() []*domain.BidEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.BidEvent(nil), p.events...)
}

func newBidServiceFixture(t *testing.T) (*BidService, *capturePublisher, string) {
	t.Helper()

	lotRepo := memory.NewLotRepository()
	ledger := memory.NewBidLedger()
	autoBids := memory.NewAutoBidStore()

	lot := &domain.Lot{
		ID:        "lot-test",
		Title:     "benchside lathe",
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Status:    domain.LotActive,
	}
	require.NoError(t, lotRepo.CreateLot(context.Background(), lot))

	publisher := &capturePublisher{}
	resolver := NewResolver(lotRepo, ledger, autoBids, logger.Nop())
	service := NewBidService(resolver, ledger, nil, publisher, logger.Nop())

	return service, publisher, lot.ID
}

func TestBidService_PlaceBidPublishesEvent(t *testing.T) {
	service, publisher, lotID := newBidServiceFixture(t)

	res, err := service.PlaceBid(context.Background(), lotID, "bidder-a", 40)
	require.NoError(t, err)
	require.Equal(t, int64(40), res.NewPrice)

	events := publisher.captured()
	require.Len(t, events, 1)
	require.Equal(t, domain.BidAccepted, events[0].Type)
	require.Equal(t, int64(40), events[0].Amount)
	require.Equal(t, "bidder-a", events[0].BidderID)
}

func TestBidService_AutoBidWarPublishesEveryEntry(t *testing.T) {
	service, publisher, lotID := newBidServiceFixture(t)
	ctx := context.Background()

	_, err := service.PlaceBid(ctx, lotID, "bidder-a", 60)
	require.NoError(t, err)
	_, err = service.SetAutoBid(ctx, lotID, "bidder-b", 100)
	require.NoError(t, err)

	res, err := service.SetAutoBid(ctx, lotID, "bidder-a", 150)
	require.NoError(t, err)
	require.Equal(t, int64(100), res.NewPrice)
	require.Equal(t, "bidder-a", res.WinnerID)

	// 1 manual + 1 opening + 3 war entries, one event each.
	events := publisher.captured()
	require.Len(t, events, 5)
	for _, e := range events {
		require.Equal(t, domain.BidAccepted, e.Type)
		require.Equal(t, lotID, e.LotID)
	}
}

func TestBidService_FailedBidPublishesNothing(t *testing.T) {
	service, publisher, lotID := newBidServiceFixture(t)
	ctx := context.Background()

	_, err := service.PlaceBid(ctx, lotID, "bidder-a", 60)
	require.NoError(t, err)
	require.Len(t, publisher.captured(), 1)

	_, err = service.PlaceBid(ctx, lotID, "bidder-b", 50)
	require.Error(t, err)
	require.Len(t, publisher.captured(), 1, "rejected bid must not publish")
}

func TestBidService_WinnerRegistrationPublishesNothing(t *testing.T) {
	service, publisher, lotID := newBidServiceFixture(t)
	ctx := context.Background()

	_, err := service.PlaceBid(ctx, lotID, "bidder-a", 60)
	require.NoError(t, err)

	_, err = service.SetAutoBid(ctx, lotID, "bidder-a", 300)
	require.NoError(t, err)
	require.Len(t, publisher.captured(), 1)
}

func TestBidService_GetBidHistory(t *testing.T) {
	service, _, lotID := newBidServiceFixture(t)
	ctx := context.Background()

	_, err := service.PlaceBid(ctx, lotID, "bidder-a", 40)
	require.NoError(t, err)
	_, err = service.PlaceBid(ctx, lotID, "bidder-b", 90)
	require.NoError(t, err)

	history, err := service.GetBidHistory(ctx, lotID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, int64(40), history[0].Amount)
	require.Equal(t, int64(90), history[1].Amount)
}
