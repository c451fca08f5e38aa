package db

import (
	"context"
	"database/sql"
	"fmt"

	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
)

// UserRepository implements the user repository interface
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new user repository
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, email, display_name, password_hash, role, created_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *shared.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.DisplayName,
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*shared.User, error) {
	var u shared.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.conn.GetDB().QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*shared.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	return r.scanUser(r.conn.GetDB().QueryRowContext(ctx, query, email))
}

// ListAdmins retrieves every user holding the admin role
func (r *UserRepository) ListAdmins(ctx context.Context) ([]*shared.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, shared.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*shared.User
	for rows.Next() {
		var u shared.User
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.DisplayName,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		admins = append(admins, &u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return admins, nil
}

// UpdateDisplayName updates the display name only
func (r *UserRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	query := `
		UPDATE users
		SET display_name = $2
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, displayName)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}
