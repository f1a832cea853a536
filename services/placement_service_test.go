package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	notifs := NewNotificationService(db)
	svc := NewPlacementService(db, notifs)
	admin := testutil.CreateUser(t, db, model.RoleAdmin, "Administration")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	other := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")

	_, err := svc.Create(ctx, ActorOf(faculty), PlacementInput{StudentID: &student.ID, Company: ptr("Acme"), Role: ptr("SDE")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, ActorOf(admin), PlacementInput{StudentID: &faculty.ID, Company: ptr("Acme"), Role: ptr("SDE")})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.Create(ctx, ActorOf(admin), PlacementInput{StudentID: &student.ID, Company: ptr("Acme"), Role: ptr("SDE"), PackageLPA: ptr(12.5)})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementApplied, p.Status)

	_, err = svc.Update(ctx, ActorOf(admin), p.ID, PlacementInput{Status: ptr(model.PlacementStatus("hired"))})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Update(ctx, ActorOf(admin), p.ID, PlacementInput{Status: ptr(model.PlacementOffered)})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementOffered, updated.Status)

	_, err = svc.Update(ctx, ActorOf(admin), p.ID, PlacementInput{Notes: ptr("joining in June")})
	require.NoError(t, err)

	n, err := notifs.UnreadCount(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "creation and the status change notify; a notes edit does not")

	mine, err := svc.List(ctx, ActorOf(student), "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := svc.List(ctx, ActorOf(other), "")
	require.NoError(t, err)
	assert.Empty(t, theirs)
	offered, err := svc.List(ctx, ActorOf(admin), model.PlacementOffered)
	require.NoError(t, err)
	assert.Len(t, offered, 1)
	_, err = svc.List(ctx, ActorOf(faculty), "")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, ActorOf(admin), p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, ActorOf(admin), p.ID), ErrPlacementNotFound)
}
