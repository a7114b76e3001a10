package services

import (
	"context"
	"time"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"
)

// BidService is the entry point for the two bidding operations the API
// exposes. It delegates equilibrium search to the Resolver and, after a
// successful commit, refreshes the Redis price snapshot and publishes
// one event per accepted ledger entry so live feeds can replay the
// bidding war.
type BidService struct {
	resolver   *Resolver
	ledger     domain.BidLedger
	priceCache domain.PriceCache
	eventPub   domain.EventPublisher
	log        logger.Logger
}

func NewBidService(
	resolver *Resolver,
	ledger domain.BidLedger,
	priceCache domain.PriceCache,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *BidService {
	return &BidService{
		resolver:   resolver,
		ledger:     ledger,
		priceCache: priceCache,
		eventPub:   eventPub,
		log:        log,
	}
}

// PlaceBid submits a manual bid for immediate placement.
func (s *BidService) PlaceBid(ctx context.Context, lotID, bidderID string, amount int64) (*Resolution, error) {
	s.log.Info("Placing bid", "lot_id", lotID, "bidder_id", bidderID, "amount", amount)

	res, err := s.resolver.Resolve(ctx, lotID, bidderID, amount, false)
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, lotID, res)
	return res, nil
}

// SetAutoBid registers or raises the bidder's standing maximum for the
// lot and resolves any bidding war it triggers.
func (s *BidService) SetAutoBid(ctx context.Context, lotID, bidderID string, maxAmount int64) (*Resolution, error) {
	s.log.Info("Setting auto-bid", "lot_id", lotID, "bidder_id", bidderID, "max_amount", maxAmount)

	res, err := s.resolver.Resolve(ctx, lotID, bidderID, maxAmount, true)
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, lotID, res)
	return res, nil
}

// GetBidHistory returns the lot's ledger, oldest entry first.
func (s *BidService) GetBidHistory(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	return s.ledger.GetBidHistory(ctx, lotID)
}

// publishOutcome runs after the ledger commit; cache and pub/sub
// failures are logged, never surfaced, since the resolution itself is
// already durable.
func (s *BidService) publishOutcome(ctx context.Context, lotID string, res *Resolution) {
	if len(res.Entries) == 0 {
		return
	}

	if s.priceCache != nil {
		if err := s.priceCache.SetLotState(ctx, &domain.LotState{
			LotID:       lotID,
			Price:       res.NewPrice,
			WinnerID:    res.WinnerID,
			LastUpdated: time.Now(),
		}); err != nil {
			s.log.Error("Failed to update price cache", "lot_id", lotID, "error", err)
		}
	}

	if s.eventPub == nil {
		return
	}
	for _, entry := range res.Entries {
		event := &domain.BidEvent{
			Type:      domain.BidAccepted,
			LotID:     entry.LotID,
			BidderID:  entry.BidderID,
			Amount:    entry.Amount,
			Timestamp: entry.CreatedAt,
		}
		if err := s.eventPub.PublishBidEvent(ctx, event); err != nil {
			s.log.Error("Failed to publish bid event", "lot_id", lotID, "error", err)
		}
	}
}
