package domain

import (
	"context"
	"time"
)

// Repository interfaces
type LotRepository interface {
	CreateLot(ctx context.Context, lot *Lot) error
	GetLot(ctx context.Context, lotID string) (*Lot, error)
	ListLots(ctx context.Context) ([]*Lot, error)
	UpdateLotStatus(ctx context.Context, lotID string, status LotStatus) error
	GetActiveLots(ctx context.Context) ([]*Lot, error)
}

// BidLedger is the append-only bid history for lots and the source of
// truth for current price and winner.
type BidLedger interface {
	// CurrentState returns the price and winner of the highest-amount
	// entry for the lot, ties broken by earliest timestamp. Price 0 and
	// an empty winner mean no bids yet.
	CurrentState(ctx context.Context, lotID string) (int64, string, error)
	// AppendAll persists the entries of one resolution as a unit: either
	// every entry commits or none does. Fails with ErrInvalidBid if any
	// entry's amount does not strictly exceed the price before it.
	AppendAll(ctx context.Context, entries []*Bid) error
	GetBidHistory(ctx context.Context, lotID string) ([]*Bid, error)
}

type AutoBidStore interface {
	// UpsertAutoBid overwrites any prior maximum for (lot, bidder) and
	// refreshes the updated-at timestamp.
	UpsertAutoBid(ctx context.Context, autoBid *AutoBid) error
	// ActiveAutoBids returns all standing commitments for the lot.
	ActiveAutoBids(ctx context.Context, lotID string) ([]*AutoBid, error)
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetPendingJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
	CancelJobsForLot(ctx context.Context, lotID string) error
}

// Cache interfaces
type PriceCache interface {
	SetLotState(ctx context.Context, state *LotState) error
	GetLotState(ctx context.Context, lotID string) (*LotState, error)
}

type LotStateCache interface {
	SetLotStatus(ctx context.Context, lotID string, status LotStatus) error
	GetLotStatus(ctx context.Context, lotID string) (LotStatus, error)
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Scheduler interface
type LotScheduler interface {
	ScheduleLotStart(ctx context.Context, lotID string, startTime time.Time) error
	ScheduleLotEnd(ctx context.Context, lotID string, endTime time.Time) error
	CancelSchedule(ctx context.Context, lotID string) error
	Start(ctx context.Context) error
	Stop() error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	BidderID() string
	LotID() string
}

type ConnectionManager interface {
	RegisterConnection(bidderID, lotID string, conn WebSocketConnection) error
	UnregisterConnection(bidderID, lotID string) error
	BroadcastToLot(lotID string, message interface{}) error
	CloseAndUnregisterConnections(lotID string) error
}
