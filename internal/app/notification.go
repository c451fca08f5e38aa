package app

import (
	"context"

	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// NotificationService implements the admin notification use cases
type NotificationService struct {
	notificationRepo outbound.NotificationRepository
	logger           zerolog.Logger
}

type NotificationServiceParams struct {
	NotificationRepo outbound.NotificationRepository
	Logger           zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(params NotificationServiceParams) *NotificationService {
	return &NotificationService{
		notificationRepo: params.NotificationRepo,
		logger:           params.Logger.With().Str("component", "notification_service").Logger(),
	}
}

// ListNotifications retrieves the admin's notifications, newest first
func (service *NotificationService) ListNotifications(ctx context.Context, actor *shared.User) ([]*shared.Notification, error) {
	if actor == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return nil, shared.ErrNotAuthorized
	}

	return service.notificationRepo.ListByAdmin(ctx, actor.ID)
}

// UnreadCount returns the badge count
func (service *NotificationService) UnreadCount(ctx context.Context, actor *shared.User) (int, error) {
	if actor == nil {
		return 0, shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return 0, shared.ErrNotAuthorized
	}

	return service.notificationRepo.CountUnread(ctx, actor.ID)
}

// MarkAllRead clears the badge in one batched update
func (service *NotificationService) MarkAllRead(ctx context.Context, actor *shared.User) error {
	if actor == nil {
		return shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return shared.ErrNotAuthorized
	}

	if err := service.notificationRepo.MarkAllRead(ctx, actor.ID); err != nil {
		service.logger.Error().Err(err).Str("admin_id", actor.ID.String()).Msg("Failed to mark notifications read")
		return err
	}

	service.logger.Debug().Str("admin_id", actor.ID.String()).Msg("Notifications marked read")
	return nil
}
