package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AuctionRepository implements the auction repository interface
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

const auctionColumns = `id, title, description, image_urls, starting_price, current_price, end_time, created_by, created_at`

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		pq.Array(a.ImageURLs),
		a.StartingPrice,
		a.CurrentPrice,
		a.EndTime,
		a.CreatedBy,
		a.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

func scanAuction(row interface{ Scan(...interface{}) error }) (*auction.Auction, error) {
	var a auction.Auction
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		pq.Array(&a.ImageURLs),
		&a.StartingPrice,
		&a.CurrentPrice,
		&a.EndTime,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE id = $1
	`

	a, err := scanAuction(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// ListActive retrieves unexpired auctions sorted soonest-ending first
func (r *AuctionRepository) ListActive(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE end_time > $1
		ORDER BY end_time ASC
	`

	return r.queryAuctions(ctx, query, now)
}

// ListAll retrieves every auction, newest first
func (r *AuctionRepository) ListAll(ctx context.Context) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		ORDER BY created_at DESC
	`

	return r.queryAuctions(ctx, query)
}

func (r *AuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}

// DeleteWithBids removes the auction and its entire bid collection in one
// transaction. Not reversible; there is no tombstone.
func (r *AuctionRepository) DeleteWithBids(ctx context.Context, id uuid.UUID) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE auction_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete bids: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM auctions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete auction: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return shared.ErrAuctionNotFound
		}

		return nil
	})
}
