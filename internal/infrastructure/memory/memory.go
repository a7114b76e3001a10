// Package memory provides concurrency-safe in-memory implementations of
// the storage interfaces. They back the test suite and local runs
// without MySQL or Redis.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bidbout/internal/domain"
)

type LotRepository struct {
	mu   sync.RWMutex
	lots map[string]*domain.Lot
}

func NewLotRepository() *LotRepository {
	return &LotRepository{
		lots: make(map[string]*domain.Lot),
	}
}

func (r *LotRepository) CreateLot(ctx context.Context, lot *domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *lot
	r.lots[lot.ID] = &stored
	return nil
}

func (r *LotRepository) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lot, ok := r.lots[lotID]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
	}
	copied := *lot
	return &copied, nil
}

func (r *LotRepository) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lots := make([]*domain.Lot, 0, len(r.lots))
	for _, lot := range r.lots {
		copied := *lot
		lots = append(lots, &copied)
	}
	return lots, nil
}

func (r *LotRepository) GetActiveLots(ctx context.Context) ([]*domain.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lots []*domain.Lot
	for _, lot := range r.lots {
		if lot.Status == domain.LotActive {
			copied := *lot
			lots = append(lots, &copied)
		}
	}
	return lots, nil
}

func (r *LotRepository) UpdateLotStatus(ctx context.Context, lotID string, status domain.LotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, ok := r.lots[lotID]
	if !ok {
		return fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
	}
	lot.Status = status
	return nil
}

// BidLedger keeps per-lot append-only bid lists. AppendAll enforces the
// strictly-increasing amount invariant under one lock acquisition, so a
// batch commits whole or not at all.
type BidLedger struct {
	mu   sync.RWMutex
	bids map[string][]*domain.Bid
}

func NewBidLedger() *BidLedger {
	return &BidLedger{
		bids: make(map[string][]*domain.Bid),
	}
}

func (l *BidLedger) CurrentState(ctx context.Context, lotID string) (int64, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.bids[lotID]
	if len(entries) == 0 {
		return 0, "", nil
	}

	// Amounts only grow, so the latest entry is the highest.
	top := entries[len(entries)-1]
	return top.Amount, top.BidderID, nil
}

func (l *BidLedger) AppendAll(ctx context.Context, entries []*domain.Bid) error {
	if len(entries) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lotID := entries[0].LotID
	price := int64(0)
	if existing := l.bids[lotID]; len(existing) > 0 {
		price = existing[len(existing)-1].Amount
	}

	for _, entry := range entries {
		if entry.Amount <= price {
			return fmt.Errorf("append bid %d for lot %s at price %d: %w",
				entry.Amount, lotID, price, domain.ErrInvalidBid)
		}
		price = entry.Amount
	}

	for _, entry := range entries {
		stored := *entry
		l.bids[lotID] = append(l.bids[lotID], &stored)
	}
	return nil
}

func (l *BidLedger) GetBidHistory(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.bids[lotID]
	history := make([]*domain.Bid, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		history = append(history, &copied)
	}
	return history, nil
}

type AutoBidStore struct {
	mu       sync.RWMutex
	autoBids map[string]map[string]*domain.AutoBid // lotID -> bidderID -> commitment
}

func NewAutoBidStore() *AutoBidStore {
	return &AutoBidStore{
		autoBids: make(map[string]map[string]*domain.AutoBid),
	}
}

func (s *AutoBidStore) UpsertAutoBid(ctx context.Context, autoBid *domain.AutoBid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autoBids[autoBid.LotID] == nil {
		s.autoBids[autoBid.LotID] = make(map[string]*domain.AutoBid)
	}
	stored := *autoBid
	s.autoBids[autoBid.LotID][autoBid.BidderID] = &stored
	return nil
}

func (s *AutoBidStore) ActiveAutoBids(ctx context.Context, lotID string) ([]*domain.AutoBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var autoBids []*domain.AutoBid
	for _, ab := range s.autoBids[lotID] {
		copied := *ab
		autoBids = append(autoBids, &copied)
	}
	return autoBids, nil
}

type LotStateCache struct {
	mu       sync.RWMutex
	statuses map[string]domain.LotStatus
}

func NewLotStateCache() *LotStateCache {
	return &LotStateCache{
		statuses: make(map[string]domain.LotStatus),
	}
}

func (c *LotStateCache) SetLotStatus(ctx context.Context, lotID string, status domain.LotStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[lotID] = status
	return nil
}

func (c *LotStateCache) GetLotStatus(ctx context.Context, lotID string) (domain.LotStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[lotID], nil
}
