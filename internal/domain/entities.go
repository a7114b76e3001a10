package domain

import (
	"time"
)

// MinStep is the fixed increment a new bid must add on top of the
// current price. OpeningFloor is the lowest allowed opening proxy bid
// on a lot without a reserve price.
const (
	MinStep      int64 = 10
	OpeningFloor int64 = 10
)

type Lot struct {
	ID           string
	SellerID     string
	Title        string
	Description  string
	PickupPlace  string
	ReservePrice int64 // 0 means no reserve
	StartTime    time.Time
	EndTime      time.Time
	Status       LotStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type LotStatus int

const (
	LotPending LotStatus = iota
	LotActive
	LotEnded
	LotCancelled
)

func (s LotStatus) String() string {
	switch s {
	case LotPending:
		return "pending"
	case LotActive:
		return "active"
	case LotEnded:
		return "ended"
	case LotCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Bid is one entry of a lot's append-only ledger. Entries are never
// mutated or deleted; amounts are strictly increasing per lot.
type Bid struct {
	ID        string
	LotID     string
	BidderID  string
	Amount    int64
	CreatedAt time.Time
}

// AutoBid is a standing proxy commitment: the highest amount a bidder
// authorizes the system to bid on their behalf for one lot. At most one
// per (lot, bidder); registering again overwrites the old maximum.
type AutoBid struct {
	LotID     string
	BidderID  string
	MaxAmount int64
	UpdatedAt time.Time
}

// LotState is the cached price/winner snapshot kept in Redis for fast
// reads; the bid ledger stays authoritative.
type LotState struct {
	LotID       string
	Price       int64
	WinnerID    string
	LastUpdated time.Time
}

type BidEvent struct {
	Type      BidEventType `json:"type"`
	LotID     string       `json:"lot_id"`
	BidderID  string       `json:"bidder_id"`
	Amount    int64        `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted BidEventType = "bid_accepted"
	LotClosed   BidEventType = "lot_closed"
)

type ScheduledJob struct {
	ID        string
	LotID     string
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	CreatedAt time.Time
}

type JobType string

const (
	JobStartLot JobType = "start_lot"
	JobEndLot   JobType = "end_lot"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
