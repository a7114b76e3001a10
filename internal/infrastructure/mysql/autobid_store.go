package mysql

import (
	"context"
	"database/sql"

	"bidbout/internal/domain"
)

type MySQLAutoBidStore struct {
	db *sql.DB
}

func NewMySQLAutoBidStore(db *sql.DB) *MySQLAutoBidStore {
	return &MySQLAutoBidStore{db: db}
}

// UpsertAutoBid relies on the (lot_id, bidder_id) unique key: a second
// registration by the same bidder replaces the old maximum.
func (s *MySQLAutoBidStore) UpsertAutoBid(ctx context.Context, autoBid *domain.AutoBid) error {
	query := `
        INSERT INTO auto_bids (lot_id, bidder_id, max_amount, updated_at)
        VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE max_amount = VALUES(max_amount), updated_at = VALUES(updated_at)
    `
	_, err := s.db.ExecContext(ctx, query,
		autoBid.LotID, autoBid.BidderID, autoBid.MaxAmount, autoBid.UpdatedAt)
	return err
}

func (s *MySQLAutoBidStore) ActiveAutoBids(ctx context.Context, lotID string) ([]*domain.AutoBid, error) {
	query := `
        SELECT lot_id, bidder_id, max_amount, updated_at
        FROM auto_bids
        WHERE lot_id = ?
        ORDER BY max_amount DESC, updated_at DESC
    `

	rows, err := s.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var autoBids []*domain.AutoBid
	for rows.Next() {
		var ab domain.AutoBid
		err := rows.Scan(&ab.LotID, &ab.BidderID, &ab.MaxAmount, &ab.UpdatedAt)
		if err != nil {
			return nil, err
		}
		autoBids = append(autoBids, &ab)
	}

	return autoBids, rows.Err()
}
