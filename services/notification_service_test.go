package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyManyDedupesRecipients(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	a := testutil.CreateUser(t, db, model.RoleStudent, "General")
	b := testutil.CreateUser(t, db, model.RoleStudent, "General")
	svc := NewNotificationService(db)

	created, err := svc.NotifyMany(ctx, []uint{a.ID, b.ID, a.ID}, NotifyRequest{
		Title: "Exam moved",
		Type:  model.NotificationTypeGeneral,
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	for _, id := range []uint{a.ID, b.ID} {
		n, err := svc.UnreadCount(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
}

func TestNotifyManyToleratesPartialFailure(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	a := testutil.CreateUser(t, db, model.RoleStudent, "General")
	svc := NewNotificationService(db)

	// a zero recipient is dropped; a blank title fails every recipient
	created, err := svc.NotifyMany(ctx, []uint{0, a.ID}, NotifyRequest{Title: "Hello"})
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, model.NotificationTypeGeneral, created[0].Type)

	created, err = svc.NotifyMany(ctx, []uint{a.ID}, NotifyRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, created)
}

func TestNotifyOneValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewNotificationService(db)

	_, err := svc.NotifyOne(ctx, 0, NotifyRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	user := testutil.CreateUser(t, db, model.RoleStudent, "General")
	n, err := svc.NotifyOne(ctx, user.ID, NotifyRequest{
		Title:    "Graded",
		Type:     model.NotificationTypeGrade,
		Related:  model.AssignmentRef(12),
		Metadata: map[string]interface{}{"marks": 85},
	})
	require.NoError(t, err)
	assert.False(t, n.Read)
	assert.Equal(t, "/assignments/12", n.Related().Link())
	assert.JSONEq(t, `{"marks":85}`, string(n.Metadata))
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, model.RoleStudent, "General")
	other := testutil.CreateUser(t, db, model.RoleStudent, "General")
	svc := NewNotificationService(db)
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	n, err := svc.NotifyOne(ctx, owner.ID, NotifyRequest{Title: "Welcome"})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, n.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotRecipient)
	assert.ErrorIs(t, err, ErrForbidden)

	read, err := svc.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)
	assert.True(t, read.ReadAt.Equal(first))

	svc.now = func() time.Time { return first.Add(time.Hour) }
	again, err := svc.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, again.Read)
	require.NotNil(t, again.ReadAt)
	assert.True(t, again.ReadAt.Equal(first), "a second call must not move read_at")

	_, err = svc.MarkRead(ctx, 9999, owner.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkAllReadAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, model.RoleStudent, "General")
	other := testutil.CreateUser(t, db, model.RoleStudent, "General")
	svc := NewNotificationService(db)

	_, err := svc.NotifyMany(ctx, []uint{owner.ID, other.ID}, NotifyRequest{Title: "One"})
	require.NoError(t, err)
	mine, err := svc.NotifyOne(ctx, owner.ID, NotifyRequest{Title: "Two", Type: model.NotificationTypeEvent})
	require.NoError(t, err)

	list, total, err := svc.List(ctx, ListNotificationsOptions{UserID: owner.ID, Type: model.NotificationTypeEvent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, list[0].ID)

	updated, err := svc.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	unread, err := svc.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "other recipients are untouched")

	_, total, err = svc.List(ctx, ListNotificationsOptions{UserID: owner.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)

	assert.ErrorIs(t, svc.Delete(ctx, mine.ID, other.ID), ErrNotRecipient)
	require.NoError(t, svc.Delete(ctx, mine.ID, owner.ID))
	assert.ErrorIs(t, svc.Delete(ctx, mine.ID, owner.ID), ErrNotificationNotFound)
}

func TestCleanupRead(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	user := testutil.CreateUser(t, db, model.RoleStudent, "General")
	svc := NewNotificationService(db)

	old, err := svc.NotifyOne(ctx, user.ID, NotifyRequest{Title: "Old"})
	require.NoError(t, err)
	_, err = svc.NotifyOne(ctx, user.ID, NotifyRequest{Title: "Unread old"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Notification{}).Where("1 = 1").
		Update("created_at", time.Now().UTC().AddDate(0, 0, -100)).Error)
	_, err = svc.MarkRead(ctx, old.ID, user.ID)
	require.NoError(t, err)

	removed, err := svc.CleanupRead(ctx, time.Now().UTC().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, uniqueIDs([]uint{3, 0, 1, 3, 2, 1}))
	assert.Empty(t, uniqueIDs(nil))
}
