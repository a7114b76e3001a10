package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidbout/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLLotRepository struct {
	db *sql.DB
}

func NewMySQLLotRepository(db *sql.DB) *MySQLLotRepository {
	return &MySQLLotRepository{db: db}
}

func (r *MySQLLotRepository) CreateLot(ctx context.Context, lot *domain.Lot) error {
	query := `
        INSERT INTO lots (id, seller_id, title, description, pickup_place, reserve_price,
                          start_time, end_time, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		lot.ID, lot.SellerID, lot.Title, lot.Description, lot.PickupPlace, lot.ReservePrice,
		lot.StartTime, lot.EndTime, int(lot.Status), lot.CreatedAt, lot.UpdatedAt)
	return err
}

func (r *MySQLLotRepository) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	query := `
        SELECT id, seller_id, title, description, pickup_place, reserve_price,
               start_time, end_time, status, created_at, updated_at
        FROM lots WHERE id = ?
    `

	lot, err := scanLot(r.db.QueryRowContext(ctx, query, lotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
		}
		return nil, err
	}
	return lot, nil
}

func (r *MySQLLotRepository) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	query := `
        SELECT id, seller_id, title, description, pickup_place, reserve_price,
               start_time, end_time, status, created_at, updated_at
        FROM lots ORDER BY created_at DESC
    `
	return r.queryLots(ctx, query)
}

func (r *MySQLLotRepository) GetActiveLots(ctx context.Context) ([]*domain.Lot, error) {
	query := `
        SELECT id, seller_id, title, description, pickup_place, reserve_price,
               start_time, end_time, status, created_at, updated_at
        FROM lots WHERE status = ?
    `
	return r.queryLots(ctx, query, int(domain.LotActive))
}

func (r *MySQLLotRepository) UpdateLotStatus(ctx context.Context, lotID string, status domain.LotStatus) error {
	query := `UPDATE lots SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, int(status), time.Now(), lotID)
	return err
}

func (r *MySQLLotRepository) queryLots(ctx context.Context, query string, args ...interface{}) ([]*domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}

	return lots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var lot domain.Lot
	var status int

	err := row.Scan(&lot.ID, &lot.SellerID, &lot.Title, &lot.Description, &lot.PickupPlace,
		&lot.ReservePrice, &lot.StartTime, &lot.EndTime, &status, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lot.Status = domain.LotStatus(status)
	return &lot, nil
}
