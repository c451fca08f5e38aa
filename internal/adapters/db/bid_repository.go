package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidRepository implements the bid repository interface
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

const bidColumns = `id, auction_id, user_id, user_name, amount, created_at`

// GetByAuctionID retrieves all bids for an auction, highest first
func (r *BidRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
	`

	return r.queryBids(ctx, query, auctionID)
}

// GetByUserID retrieves all bids placed by a user, newest first
func (r *BidRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.queryBids(ctx, query, userID)
}

func (r *BidRepository) queryBids(ctx context.Context, query string, args ...interface{}) ([]*bid.Bid, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		err := rows.Scan(
			&b.ID,
			&b.AuctionID,
			&b.UserID,
			&b.UserName,
			&b.Amount,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

/*
PlaceBidWithOCC places a bid using optimistic concurrency control.
 1. Reading the current auction state
 2. Validating the expected price matches the actual price, the increment
    rule holds, and the auction has not expired
 3. Appending the bid and raising the price only if the price hasn't changed
 4. Failing if another transaction modified the auction concurrently
*/
func (r *BidRepository) PlaceBidWithOCC(ctx context.Context, newBid *bid.Bid, expectedCurrentPrice decimal.Decimal) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		auctionQuery := `
			SELECT current_price, end_time
			FROM auctions
			WHERE id = $1
		`

		var dbCurrentPrice decimal.Decimal
		var endTime time.Time
		err := tx.QueryRowContext(ctx, auctionQuery, newBid.AuctionID).Scan(&dbCurrentPrice, &endTime)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to get auction for OCC: %w", err)
		}

		if !endTime.After(newBid.CreatedAt) {
			return shared.ErrAuctionEnded
		}

		if !dbCurrentPrice.Equal(expectedCurrentPrice) {
			return shared.ErrBidTooLow
		}

		if newBid.Amount.LessThan(dbCurrentPrice.Add(auction.MinIncrement)) {
			return shared.ErrBidTooLow
		}

		bidQuery := `
			INSERT INTO bids (` + bidColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		_, err = tx.ExecContext(ctx, bidQuery,
			newBid.ID,
			newBid.AuctionID,
			newBid.UserID,
			newBid.UserName,
			newBid.Amount,
			newBid.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		// Use the expected current price in the WHERE clause to ensure no
		// other transaction modified it
		updateQuery := `
			UPDATE auctions
			SET current_price = $2
			WHERE id = $1 AND current_price = $3
		`

		result, err := tx.ExecContext(ctx, updateQuery,
			newBid.AuctionID,
			newBid.Amount,
			expectedCurrentPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to update auction price: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		// If no rows were affected, another transaction modified the auction
		if rowsAffected == 0 {
			return shared.ErrBidTooLow
		}

		return nil
	})
}
