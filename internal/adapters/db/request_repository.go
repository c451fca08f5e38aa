package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RequestRepository implements the auction request repository interface
type RequestRepository struct {
	conn *Connection
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(conn *Connection) *RequestRepository {
	return &RequestRepository{conn: conn}
}

const requestColumns = `id, user_id, user_name, user_email, user_phone, title, description, image_url, starting_price, duration_hours, status, requested_at, reviewed_at`

// Submit inserts the request unless the requester already has a pending
// one. The SELECT locks an existing pending row, but it guards nothing
// when no row exists yet; the partial unique index on pending requests
// catches that race and surfaces as a duplicate.
func (r *RequestRepository) Submit(ctx context.Context, req *request.AuctionRequest) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		pendingQuery := `
			SELECT 1
			FROM auction_requests
			WHERE user_id = $1 AND status = $2
			FOR UPDATE
		`

		var one int
		err := tx.QueryRowContext(ctx, pendingQuery, req.UserID, request.StatusPending).Scan(&one)
		if err == nil {
			return shared.ErrDuplicatePendingRequest
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check pending requests: %w", err)
		}

		insertQuery := `
			INSERT INTO auction_requests (` + requestColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`

		_, err = tx.ExecContext(ctx, insertQuery,
			req.ID,
			req.UserID,
			req.UserName,
			req.UserEmail,
			req.UserPhone,
			req.Title,
			req.Description,
			req.ImageURL,
			req.StartingPrice,
			req.DurationHours,
			req.Status,
			req.RequestedAt,
			req.ReviewedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return shared.ErrDuplicatePendingRequest
			}
			return fmt.Errorf("failed to create auction request: %w", err)
		}

		return nil
	})
}

func scanRequest(row interface{ Scan(...interface{}) error }) (*request.AuctionRequest, error) {
	var req request.AuctionRequest
	var reviewedAt sql.NullTime
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.UserName,
		&req.UserEmail,
		&req.UserPhone,
		&req.Title,
		&req.Description,
		&req.ImageURL,
		&req.StartingPrice,
		&req.DurationHours,
		&req.Status,
		&req.RequestedAt,
		&reviewedAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	return &req, nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.AuctionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM auction_requests
		WHERE id = $1
	`

	req, err := scanRequest(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get auction request: %w", err)
	}

	return req, nil
}

// ListPending retrieves pending requests, newest first
func (r *RequestRepository) ListPending(ctx context.Context) ([]*request.AuctionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM auction_requests
		WHERE status = $1
		ORDER BY requested_at DESC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, request.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*request.AuctionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auction requests: %w", err)
	}

	return requests, nil
}

// ApproveWithAuction marks the request approved and creates the
// materialized auction in one transaction, so a failure of either write
// rolls back both.
func (r *RequestRepository) ApproveWithAuction(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time, a *auction.Auction) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.markReviewed(ctx, tx, requestID, request.StatusApproved, reviewedAt); err != nil {
			return err
		}

		auctionQuery := `
			INSERT INTO auctions (` + auctionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		_, err := tx.ExecContext(ctx, auctionQuery,
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
			return fmt.Errorf("failed to create auction from request: %w", err)
		}

		return nil
	})
}

// MarkRejected marks the request rejected with a review timestamp
func (r *RequestRepository) MarkRejected(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		return r.markReviewed(ctx, tx, requestID, request.StatusRejected, reviewedAt)
	})
}

func (r *RequestRepository) markReviewed(ctx context.Context, tx *sql.Tx, requestID uuid.UUID, status request.Status, reviewedAt time.Time) error {
	updateQuery := `
		UPDATE auction_requests
		SET status = $2, reviewed_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := tx.ExecContext(ctx, updateQuery, requestID, status, reviewedAt, request.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the request is gone or it was already reviewed
		var current request.Status
		err := tx.QueryRowContext(ctx, `SELECT status FROM auction_requests WHERE id = $1`, requestID).Scan(&current)
		if err == sql.ErrNoRows {
			return shared.ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get request status: %w", err)
		}
		return shared.ErrRequestNotPending
	}

	return nil
}
