package app

import (
	"context"
	"testing"
	"time"

	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(ctx context.Context, f *fixture, adminID uuid.UUID, count int) {
	repo := f.store.NotificationRepo()
	for i := 0; i < count; i++ {
		repo.Create(ctx, &shared.Notification{
			ID:        uuid.New(),
			AdminID:   adminID,
			RequestID: uuid.New(),
			Message:   "Nueva solicitud de subasta",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
}

func TestNotificationsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	service := f.notificationService()

	_, err := service.ListNotifications(ctx, f.bidder)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	_, err = service.UnreadCount(ctx, f.collab)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	err = service.MarkAllRead(ctx, nil)
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestNotificationsScopedToAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)

	secondAdmin := newUser("admin2@subastas.ar", "Admin Dos", shared.RoleAdmin)
	f.store.UserRepo().Create(ctx, secondAdmin)

	seedNotifications(ctx, f, f.admin.ID, 3)
	seedNotifications(ctx, f, secondAdmin.ID, 1)

	service := f.notificationService()

	mine, err := service.ListNotifications(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	theirs, err := service.ListNotifications(ctx, secondAdmin)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestMarkAllReadClearsBadge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	seedNotifications(ctx, f, f.admin.ID, 5)

	service := f.notificationService()

	unread, err := service.UnreadCount(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 5, unread)

	require.NoError(t, service.MarkAllRead(ctx, f.admin))

	unread, err = service.UnreadCount(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	// Notifications remain listed, just read
	all, err := service.ListNotifications(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, n := range all {
		assert.True(t, n.Read)
	}
}
