package services

import (
	"context"
	"fmt"
	"time"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"
	"bidbout/pkg/utils"
)

// Resolution is the outcome of one bid-resolution call: the ledger
// entries it appended and the equilibrium price/winner it reached.
type Resolution struct {
	NewPrice int64
	WinnerID string
	Entries  []*domain.Bid
}

// Resolver brings a lot's bidding state to equilibrium. Given a manual
// bid or an auto-bid registration it computes the chain of ledger
// entries - the submitted bid plus any defensive counter-bids placed on
// behalf of outbid auto-bidders - and commits them as one unit.
//
// All resolution steps for a single lot are serialized behind a per-lot
// mutex held for the whole call; resolutions on different lots never
// contend.
type Resolver struct {
	lotRepo  domain.LotRepository
	ledger   domain.BidLedger
	autoBids domain.AutoBidStore
	locks    *lotLocks
	log      logger.Logger
	now      func() time.Time
}

func NewResolver(
	lotRepo domain.LotRepository,
	ledger domain.BidLedger,
	autoBids domain.AutoBidStore,
	log logger.Logger,
) *Resolver {
	return &Resolver{
		lotRepo:  lotRepo,
		ledger:   ledger,
		autoBids: autoBids,
		locks:    newLotLocks(),
		log:      log,
		now:      time.Now,
	}
}

// Resolve processes a manual bid (isAutoBid false) or an auto-bid
// registration (isAutoBid true) for the lot and runs the proxy-defense
// loop until no remaining auto-bid can raise the price further.
//
// Input errors (ErrLotNotFound, ErrAuctionNotStarted, ErrAuctionEnded,
// BidTooLowError) are returned verbatim. Storage failures abort the
// whole resolution; no partial entry chain is ever committed.
func (r *Resolver) Resolve(ctx context.Context, lotID, bidderID string, amount int64, isAutoBid bool) (*Resolution, error) {
	if lotID == "" || bidderID == "" {
		return nil, fmt.Errorf("resolve: %w - missing lot or bidder id", domain.ErrInvalidBid)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("resolve: %w - non-positive amount", domain.ErrInvalidBid)
	}

	lock := r.locks.forLot(lotID)
	lock.Lock()
	defer lock.Unlock()

	lot, err := r.lotRepo.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if !lot.EndTime.After(now) || lot.Status == domain.LotEnded || lot.Status == domain.LotCancelled {
		return nil, domain.ErrAuctionEnded
	}
	if lot.StartTime.After(now) {
		return nil, domain.ErrAuctionNotStarted
	}

	price, winnerID, err := r.ledger.CurrentState(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("resolve: read current state for lot %s: %w", lotID, err)
	}

	var entries []*domain.Bid
	place := func(bidder string, amt int64) {
		entries = append(entries, &domain.Bid{
			ID:        utils.GenerateID("bid"),
			LotID:     lotID,
			BidderID:  bidder,
			Amount:    amt,
			CreatedAt: r.now(),
		})
		price = amt
		winnerID = bidder
	}

	if !isAutoBid {
		if amount <= price {
			return nil, &domain.BidTooLowError{CurrentPrice: price}
		}
		place(bidderID, amount)
	} else {
		if err := r.autoBids.UpsertAutoBid(ctx, &domain.AutoBid{
			LotID:     lotID,
			BidderID:  bidderID,
			MaxAmount: amount,
			UpdatedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("resolve: upsert auto-bid for lot %s: %w", lotID, err)
		}

		// The current winner has nothing to defend against; their own
		// registration places no immediate bid.
		if winnerID != bidderID {
			candidate := price + domain.MinStep
			if price == 0 {
				candidate = lot.ReservePrice
				if candidate < domain.OpeningFloor {
					candidate = domain.OpeningFloor
				}
			}
			if candidate > amount {
				candidate = amount
			}
			if candidate > price {
				place(bidderID, candidate)
			}
		}
	}

	autoBids, err := r.autoBids.ActiveAutoBids(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("resolve: read auto-bids for lot %s: %w", lotID, err)
	}

	// Proxy-defense loop. Terminates: every round strictly raises the
	// price toward a finite set of maxima, and the current winner is
	// never selected as defender.
	for {
		defender := selectDefender(autoBids, winnerID, price)
		if defender == nil {
			break
		}

		defense := price + domain.MinStep
		if defense > defender.MaxAmount {
			defense = defender.MaxAmount
		}
		if defense <= price {
			break
		}

		place(defender.BidderID, defense)
	}

	if len(entries) > 0 {
		if err := r.ledger.AppendAll(ctx, entries); err != nil {
			return nil, fmt.Errorf("resolve: append %d entries for lot %s: %w", len(entries), lotID, err)
		}
	}

	r.log.Info("Resolution complete",
		"lot_id", lotID, "bidder_id", bidderID,
		"entries", len(entries), "new_price", price, "winner_id", winnerID)

	return &Resolution{
		NewPrice: price,
		WinnerID: winnerID,
		Entries:  entries,
	}, nil
}

// selectDefender picks the auto-bid with the highest maximum among
// those whose bidder is not the current winner and whose maximum
// exceeds the current price. Ties go to the most recently updated
// commitment.
func selectDefender(autoBids []*domain.AutoBid, winnerID string, price int64) *domain.AutoBid {
	var best *domain.AutoBid
	for _, ab := range autoBids {
		if ab.BidderID == winnerID || ab.MaxAmount <= price {
			continue
		}
		if best == nil || ab.MaxAmount > best.MaxAmount ||
			(ab.MaxAmount == best.MaxAmount && ab.UpdatedAt.After(best.UpdatedAt)) {
			best = ab
		}
	}
	return best
}
