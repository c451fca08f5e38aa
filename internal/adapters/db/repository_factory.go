package db

import (
	"subastas-service/internal/ports/outbound"
)

// RepositoryFactory creates and manages all database repositories
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetAuctionRepository returns the auction repository
func (f *RepositoryFactory) GetAuctionRepository() outbound.AuctionRepository {
	return NewAuctionRepository(f.conn)
}

// GetBidRepository returns the bid repository
func (f *RepositoryFactory) GetBidRepository() outbound.BidRepository {
	return NewBidRepository(f.conn)
}

// GetUserRepository returns the user repository
func (f *RepositoryFactory) GetUserRepository() outbound.UserRepository {
	return NewUserRepository(f.conn)
}

// GetRequestRepository returns the auction request repository
func (f *RepositoryFactory) GetRequestRepository() outbound.RequestRepository {
	return NewRequestRepository(f.conn)
}

// GetNotificationRepository returns the notification repository
func (f *RepositoryFactory) GetNotificationRepository() outbound.NotificationRepository {
	return NewNotificationRepository(f.conn)
}
