package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bidbout/internal/domain"
	"bidbout/internal/infrastructure/memory"
	"bidbout/pkg/logger"

	"github.com/stretchr/testify/require"
)

type resolverFixture struct {
	resolver *Resolver
	lotRepo  *memory.LotRepository
	ledger   *memory.BidLedger
	autoBids *memory.AutoBidStore
}

func newResolverFixture(t *testing.T, reservePrice int64) (*resolverFixture, string) {
	t.Helper()

	lotRepo := memory.NewLotRepository()
	ledger := memory.NewBidLedger()
	autoBids := memory.NewAutoBidStore()

	lot := &domain.Lot{
		ID:           "lot-test",
		SellerID:     "seller-1",
		Title:        "vintage radio",
		ReservePrice: reservePrice,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      time.Now().Add(time.Hour),
		Status:       domain.LotActive,
	}
	require.NoError(t, lotRepo.CreateLot(context.Background(), lot))

	return &resolverFixture{
		resolver: NewResolver(lotRepo, ledger, autoBids, logger.Nop()),
		lotRepo:  lotRepo,
		ledger:   ledger,
		autoBids: autoBids,
	}, lot.ID
}

func TestResolver_ManualBidOnEmptyLot(t *testing.T) {
	f, lotID := newResolverFixture(t, 50)

	res, err := f.resolver.Resolve(context.Background(), lotID, "bidder-a", 60, false)
	require.NoError(t, err)
	require.Equal(t, int64(60), res.NewPrice)
	require.Equal(t, "bidder-a", res.WinnerID)
	require.Len(t, res.Entries, 1)
}

func TestResolver_AutoBidOpensAboveCurrentPrice(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)

	_, err := f.resolver.Resolve(context.Background(), lotID, "bidder-a", 60, false)
	require.NoError(t, err)

	// B's opening candidate is 60+10=70, within B's maximum of 100.
	res, err := f.resolver.Resolve(context.Background(), lotID, "bidder-b", 100, true)
	require.NoError(t, err)
	require.Equal(t, int64(70), res.NewPrice)
	require.Equal(t, "bidder-b", res.WinnerID)
	require.Len(t, res.Entries, 1)
}

func TestResolver_ProxyBiddingWar(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 60, false)
	require.NoError(t, err)

	_, err = f.resolver.Resolve(ctx, lotID, "bidder-b", 100, true)
	require.NoError(t, err)

	// A registers max 150: (A,80), B defends (B,90), A defends (A,100),
	// B's max 100 cannot exceed 100 - equilibrium at 100, winner A.
	res, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 150, true)
	require.NoError(t, err)
	require.Equal(t, int64(100), res.NewPrice)
	require.Equal(t, "bidder-a", res.WinnerID)

	amounts := []int64{}
	bidders := []string{}
	for _, e := range res.Entries {
		amounts = append(amounts, e.Amount)
		bidders = append(bidders, e.BidderID)
	}
	require.Equal(t, []int64{80, 90, 100}, amounts)
	require.Equal(t, []string{"bidder-a", "bidder-b", "bidder-a"}, bidders)
}

func TestResolver_ManualBidAtCurrentPriceFails(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 60, false)
	require.NoError(t, err)

	_, err = f.resolver.Resolve(ctx, lotID, "bidder-b", 60, false)
	require.Error(t, err)

	btl, ok := domain.IsBidTooLow(err)
	require.True(t, ok)
	require.Equal(t, int64(60), btl.CurrentPrice)

	history, err := f.ledger.GetBidHistory(ctx, lotID)
	require.NoError(t, err)
	require.Len(t, history, 1, "rejected bid must not append")
}

func TestResolver_TimingErrors(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Duration
		end      time.Duration
		expected error
	}{
		{name: "auction_ended", start: -2 * time.Hour, end: -time.Hour, expected: domain.ErrAuctionEnded},
		{name: "auction_not_started", start: time.Hour, end: 2 * time.Hour, expected: domain.ErrAuctionNotStarted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lotRepo := memory.NewLotRepository()
			lot := &domain.Lot{
				ID:        "lot-" + tc.name,
				StartTime: time.Now().Add(tc.start),
				EndTime:   time.Now().Add(tc.end),
				Status:    domain.LotActive,
			}
			require.NoError(t, lotRepo.CreateLot(context.Background(), lot))

			resolver := NewResolver(lotRepo, memory.NewBidLedger(), memory.NewAutoBidStore(), logger.Nop())

			_, err := resolver.Resolve(context.Background(), lot.ID, "bidder-a", 100, false)
			require.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestResolver_UnknownLot(t *testing.T) {
	f, _ := newResolverFixture(t, 0)

	_, err := f.resolver.Resolve(context.Background(), "lot-missing", "bidder-a", 100, false)
	require.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestResolver_WinnerRegistrationPlacesNothing(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 60, false)
	require.NoError(t, err)

	res, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 500, true)
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Equal(t, int64(60), res.NewPrice)
	require.Equal(t, "bidder-a", res.WinnerID)

	// The maximum is still recorded for future defense.
	autoBids, err := f.autoBids.ActiveAutoBids(ctx, lotID)
	require.NoError(t, err)
	require.Len(t, autoBids, 1)
	require.Equal(t, int64(500), autoBids[0].MaxAmount)
}

func TestResolver_OpeningAutoBidUsesReserveFloor(t *testing.T) {
	tests := []struct {
		name     string
		reserve  int64
		max      int64
		expected int64
	}{
		{name: "reserve_above_floor", reserve: 50, max: 100, expected: 50},
		{name: "no_reserve_uses_floor", reserve: 0, max: 100, expected: 10},
		{name: "clamped_to_max_below_reserve", reserve: 50, max: 30, expected: 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, lotID := newResolverFixture(t, tc.reserve)

			res, err := f.resolver.Resolve(context.Background(), lotID, "bidder-a", tc.max, true)
			require.NoError(t, err)
			require.Equal(t, tc.expected, res.NewPrice)
			require.Equal(t, "bidder-a", res.WinnerID)
		})
	}
}

func TestResolver_EqualMaximaLaterRegistrantWins(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 20, false)
	require.NoError(t, err)

	_, err = f.resolver.Resolve(ctx, lotID, "bidder-b", 100, true)
	require.NoError(t, err)

	// C matches B's maximum. The war walks both up in steps; once both
	// hit 100 nobody can exceed it, and the increment rule decides who
	// holds it.
	res, err := f.resolver.Resolve(ctx, lotID, "bidder-c", 100, true)
	require.NoError(t, err)
	require.Equal(t, int64(100), res.NewPrice)
	require.Equal(t, "bidder-c", res.WinnerID, "later registrant holds an amount tie")

	history, err := f.ledger.GetBidHistory(ctx, lotID)
	require.NoError(t, err)
	last := history[len(history)-1]
	require.Equal(t, int64(100), last.Amount)
	require.Equal(t, "bidder-c", last.BidderID)
}

func TestResolver_LedgerInvariants(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 15, false)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, lotID, "bidder-b", 120, true)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, lotID, "bidder-c", 200, true)
	require.NoError(t, err)
	_, err = f.resolver.Resolve(ctx, lotID, "bidder-a", 300, false)
	require.NoError(t, err)

	history, err := f.ledger.GetBidHistory(ctx, lotID)
	require.NoError(t, err)
	require.NotEmpty(t, history)

	for i := 1; i < len(history); i++ {
		require.Greater(t, history[i].Amount, history[i-1].Amount,
			"ledger amounts must strictly increase")
		require.NotEqual(t, history[i].BidderID, history[i-1].BidderID,
			"a bidder never outbids themself")
	}
}

func TestResolver_FinalPriceBoundedByMaxima(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	maxima := []int64{40, 90, 130, 70}
	var finalRes *Resolution
	for i, max := range maxima {
		res, err := f.resolver.Resolve(ctx, lotID, fmt.Sprintf("bidder-%d", i), max, true)
		require.NoError(t, err)
		finalRes = res
	}

	var highest int64
	for _, m := range maxima {
		if m > highest {
			highest = m
		}
	}
	require.LessOrEqual(t, finalRes.NewPrice, highest)
}

func TestResolver_ConcurrentResolutionsSerialize(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	const bidders = 16
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half set auto-bids, half fire manual bids; BidTooLow losses
			// are expected under contention.
			var err error
			if i%2 == 0 {
				_, err = f.resolver.Resolve(ctx, lotID, fmt.Sprintf("bidder-%d", i), int64(100+10*i), true)
			} else {
				_, err = f.resolver.Resolve(ctx, lotID, fmt.Sprintf("bidder-%d", i), int64(50+10*i), false)
			}
			if err != nil {
				if _, ok := domain.IsBidTooLow(err); !ok {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	history, err := f.ledger.GetBidHistory(ctx, lotID)
	require.NoError(t, err)
	require.NotEmpty(t, history)

	seen := make(map[int64]bool)
	for i, bid := range history {
		require.False(t, seen[bid.Amount], "duplicate amount %d", bid.Amount)
		seen[bid.Amount] = true
		if i > 0 {
			require.Greater(t, bid.Amount, history[i-1].Amount)
			require.NotEqual(t, bid.BidderID, history[i-1].BidderID)
		}
	}
}

func TestResolver_InvalidInput(t *testing.T) {
	f, lotID := newResolverFixture(t, 0)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, lotID, "bidder-a", 0, false)
	require.ErrorIs(t, err, domain.ErrInvalidBid)

	_, err = f.resolver.Resolve(ctx, lotID, "", 100, false)
	require.ErrorIs(t, err, domain.ErrInvalidBid)

	_, err = f.resolver.Resolve(ctx, "", "bidder-a", 100, false)
	require.ErrorIs(t, err, domain.ErrInvalidBid)
}

func TestSelectDefender(t *testing.T) {
	now := time.Now()
	autoBids := []*domain.AutoBid{
		{BidderID: "a", MaxAmount: 100, UpdatedAt: now.Add(-2 * time.Minute)},
		{BidderID: "b", MaxAmount: 150, UpdatedAt: now.Add(-3 * time.Minute)},
		{BidderID: "c", MaxAmount: 150, UpdatedAt: now.Add(-time.Minute)},
	}

	// Highest maximum wins; on a tie the most recently updated does.
	defender := selectDefender(autoBids, "nobody", 90)
	require.Equal(t, "c", defender.BidderID)

	// The current winner is never a defender.
	defender = selectDefender(autoBids, "c", 90)
	require.Equal(t, "b", defender.BidderID)

	// Maxima at or below the price are out.
	defender = selectDefender(autoBids, "nobody", 150)
	require.Nil(t, defender)
}
