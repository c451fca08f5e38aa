package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"subastas-service/internal/adapters/scheduler"
	"subastas-service/internal/config"
	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestService implements the auction request workflow: users propose
// listings, admins are notified, and an approval materializes the auction.
type RequestService struct {
	requestRepo      outbound.RequestRepository
	auctionRepo      outbound.AuctionRepository
	userRepo         outbound.UserRepository
	notificationRepo outbound.NotificationRepository
	broadcaster      outbound.Broadcaster
	scheduler        *scheduler.AuctionScheduler
	notifyPool       *pond.WorkerPool
	logger           zerolog.Logger
}

type RequestServiceParams struct {
	RequestRepo      outbound.RequestRepository
	AuctionRepo      outbound.AuctionRepository
	UserRepo         outbound.UserRepository
	NotificationRepo outbound.NotificationRepository
	Broadcaster      outbound.Broadcaster
	Scheduler        *scheduler.AuctionScheduler
	Logger           zerolog.Logger
}

// NewRequestService creates a new request service
func NewRequestService(params RequestServiceParams) *RequestService {
	return &RequestService{
		requestRepo:      params.RequestRepo,
		auctionRepo:      params.AuctionRepo,
		userRepo:         params.UserRepo,
		notificationRepo: params.NotificationRepo,
		broadcaster:      params.Broadcaster,
		scheduler:        params.Scheduler,
		notifyPool:       pond.New(config.NotifyMaxWorkers, config.NotifyMaxCapacity),
		logger:           params.Logger.With().Str("component", "request_service").Logger(),
	}
}

// SetScheduler sets the auction scheduler, wired after construction
func (service *RequestService) SetScheduler(sched *scheduler.AuctionScheduler) {
	service.scheduler = sched
}

// Stop drains the notification worker pool
func (service *RequestService) Stop() {
	service.notifyPool.StopAndWait()
}

// SubmitRequest files a listing proposal and notifies admins. A user can
// have at most one pending request at a time.
func (service *RequestService) SubmitRequest(ctx context.Context, req inbound.SubmitRequestInput) (*request.AuctionRequest, error) {
	if req.Actor == nil {
		return nil, shared.ErrNotAuthenticated
	}

	service.logger.Info().
		Str("user_id", req.Actor.ID.String()).
		Str("title", req.Title).
		Msg("Attempting to submit auction request")

	if strings.TrimSpace(req.Title) == "" {
		return nil, shared.ErrTitleRequired
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, shared.ErrImageRequired
	}
	if !req.StartingPrice.IsPositive() {
		return nil, shared.ErrInvalidStartingPrice
	}
	if req.DurationHours <= 0 {
		return nil, shared.ErrInvalidDuration
	}

	newRequest := &request.AuctionRequest{
		ID:            uuid.New(),
		UserID:        req.Actor.ID,
		UserName:      req.Actor.DisplayName,
		UserEmail:     req.Actor.Email,
		UserPhone:     strings.TrimSpace(req.Phone),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		ImageURL:      req.ImageURL,
		StartingPrice: req.StartingPrice,
		DurationHours: req.DurationHours,
		Status:        request.StatusPending,
		RequestedAt:   time.Now(),
	}

	if err := service.requestRepo.Submit(ctx, newRequest); err != nil {
		service.logger.Error().Err(err).Str("user_id", req.Actor.ID.String()).Msg("Failed to submit auction request")
		return nil, err
	}

	service.logger.Info().
		Str("request_id", newRequest.ID.String()).
		Str("user_id", newRequest.UserID.String()).
		Msg("Auction request submitted")

	// Admin notification is best effort; the request stands even if every
	// notify fails
	service.notifyPool.Submit(func() {
		service.notifyAdmins(newRequest)
	})

	return newRequest, nil
}

// ListPendingRequests retrieves pending requests, newest first (admin only)
func (service *RequestService) ListPendingRequests(ctx context.Context, actor *shared.User) ([]*request.AuctionRequest, error) {
	if actor == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return nil, shared.ErrNotAuthorized
	}

	return service.requestRepo.ListPending(ctx)
}

// ApproveRequest materializes the auction and closes the request in one
// transaction. The auction clock starts at approval time, not submission.
func (service *RequestService) ApproveRequest(ctx context.Context, actor *shared.User, requestID uuid.UUID) (*auction.Auction, error) {
	if actor == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		service.logger.Warn().
			Str("actor_id", actor.ID.String()).
			Str("role", string(actor.Role)).
			Msg("Actor is not allowed to approve requests")
		return nil, shared.ErrNotAuthorized
	}

	pending, err := service.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		service.logger.Error().Err(err).Str("request_id", requestID.String()).Msg("Request not found for approval")
		return nil, err
	}

	now := time.Now()
	newAuction := &auction.Auction{
		ID:            uuid.New(),
		Title:         pending.Title,
		Description:   pending.Description,
		ImageURLs:     []string{pending.ImageURL},
		StartingPrice: pending.StartingPrice,
		CurrentPrice:  pending.StartingPrice,
		EndTime:       pending.EndTimeFrom(now),
		CreatedBy:     pending.UserID,
		CreatedAt:     now,
	}

	if err := service.requestRepo.ApproveWithAuction(ctx, requestID, now, newAuction); err != nil {
		service.logger.Error().Err(err).Str("request_id", requestID.String()).Msg("Failed to approve request")
		return nil, err
	}

	service.logger.Info().
		Str("request_id", requestID.String()).
		Str("auction_id", newAuction.ID.String()).
		Str("actor_id", actor.ID.String()).
		Time("end_time", newAuction.EndTime).
		Msg("Request approved, auction created")

	if service.scheduler != nil {
		if err := service.scheduler.ScheduleAuction(newAuction.ID, newAuction.EndTime); err != nil {
			service.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to schedule approved auction")
		}
	}

	event := outbound.Event{
		Type: outbound.EventTypeAuctionCreated,
		Data: map[string]interface{}{
			"auction_id": newAuction.ID.String(),
			"request_id": requestID.String(),
		},
	}
	if err := service.broadcaster.Publish(ctx, outbound.TopicAuctions, event); err != nil {
		service.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to broadcast approved auction")
	}

	return newAuction, nil
}

// RejectRequest closes the request without producing an auction
func (service *RequestService) RejectRequest(ctx context.Context, actor *shared.User, requestID uuid.UUID) error {
	if actor == nil {
		return shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return shared.ErrNotAuthorized
	}

	if err := service.requestRepo.MarkRejected(ctx, requestID, time.Now()); err != nil {
		service.logger.Error().Err(err).Str("request_id", requestID.String()).Msg("Failed to reject request")
		return err
	}

	service.logger.Info().
		Str("request_id", requestID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("Request rejected")

	return nil
}

// notifyAdmins fans a notification out to every admin. Individual failures
// are logged and swallowed.
func (service *RequestService) notifyAdmins(newRequest *request.AuctionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admins, err := service.userRepo.ListAdmins(ctx)
	if err != nil {
		service.logger.Error().Err(err).Str("request_id", newRequest.ID.String()).Msg("Failed to list admins for notification")
		return
	}

	message := fmt.Sprintf("Nueva solicitud de subasta: %s (%s)", newRequest.Title, newRequest.UserName)

	for _, admin := range admins {
		notification := &shared.Notification{
			ID:        uuid.New(),
			AdminID:   admin.ID,
			RequestID: newRequest.ID,
			Message:   message,
			Read:      false,
			CreatedAt: time.Now(),
		}

		if err := service.notificationRepo.Create(ctx, notification); err != nil {
			service.logger.Error().Err(err).
				Str("admin_id", admin.ID.String()).
				Str("request_id", newRequest.ID.String()).
				Msg("Failed to create admin notification")
			continue
		}

		event := outbound.Event{
			Type: outbound.EventTypeNotification,
			Data: map[string]interface{}{
				"notification_id": notification.ID.String(),
				"request_id":      newRequest.ID.String(),
				"message":         message,
			},
		}
		if err := service.broadcaster.Publish(ctx, outbound.TopicNotifications(admin.ID), event); err != nil {
			service.logger.Error().Err(err).
				Str("admin_id", admin.ID.String()).
				Msg("Failed to broadcast admin notification")
		}
	}

	service.logger.Info().
		Str("request_id", newRequest.ID.String()).
		Int("admin_count", len(admins)).
		Msg("Admins notified of new request")
}
