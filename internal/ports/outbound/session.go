package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore tracks live sessions by token ID so sign-out invalidates a
// token before its JWT expiry.
type SessionStore interface {
	// Put registers a session with a TTL matching the token lifetime
	Put(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error

	// Get resolves a token ID to its user, or ErrInvalidToken
	Get(ctx context.Context, tokenID string) (uuid.UUID, error)

	// Delete removes a session (sign-out)
	Delete(ctx context.Context, tokenID string) error
}

// ImageHost uploads one image per call and returns its public URL.
type ImageHost interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}
