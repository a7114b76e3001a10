package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"bidbout/internal/domain"
)

// MySQLBidLedger stores the append-only bid history. One resolution's
// entries go in through a single transaction that re-checks the
// strictly-increasing invariant against the committed state, so a
// resolution either lands whole or not at all.
type MySQLBidLedger struct {
	db *sql.DB
}

func NewMySQLBidLedger(db *sql.DB) *MySQLBidLedger {
	return &MySQLBidLedger{db: db}
}

func (l *MySQLBidLedger) CurrentState(ctx context.Context, lotID string) (int64, string, error) {
	query := `
        SELECT amount, bidder_id
        FROM bids_history
        WHERE lot_id = ?
        ORDER BY amount DESC, created_at ASC
        LIMIT 1
    `

	var amount int64
	var bidderID string
	err := l.db.QueryRowContext(ctx, query, lotID).Scan(&amount, &bidderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, "", nil
		}
		return 0, "", err
	}

	return amount, bidderID, nil
}

func (l *MySQLBidLedger) AppendAll(ctx context.Context, entries []*domain.Bid) error {
	if len(entries) == 0 {
		return nil
	}
	lotID := entries[0].LotID

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock the lot's highest entry so a concurrent append cannot slip
	// between the check and the inserts.
	var price int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(amount), 0) FROM bids_history WHERE lot_id = ? FOR UPDATE`,
		lotID).Scan(&price)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Amount <= price {
			return fmt.Errorf("append bid %d for lot %s at price %d: %w",
				entry.Amount, lotID, price, domain.ErrInvalidBid)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bids_history (id, lot_id, bidder_id, amount, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			entry.ID, entry.LotID, entry.BidderID, entry.Amount, entry.CreatedAt)
		if err != nil {
			return err
		}

		price = entry.Amount
	}

	return tx.Commit()
}

func (l *MySQLBidLedger) GetBidHistory(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, lot_id, bidder_id, amount, created_at
        FROM bids_history
        WHERE lot_id = ?
        ORDER BY created_at ASC, amount ASC
    `

	rows, err := l.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.LotID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
		if err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}
