package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func rowCounts(t *testing.T, db *gorm.DB) map[string]int64 {
	t.Helper()
	out := make(map[string]int64)
	for name, m := range map[string]interface{}{
		"users":       &model.User{},
		"courses":     &model.Course{},
		"enrollments": &model.CourseEnrollment{},
		"assignments": &model.Assignment{},
		"events":      &model.Event{},
	} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		out[name] = n
	}
	return out
}

func TestSeedAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	fixed := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	seeder := database.NewSeeder(db, database.SeedOptions{
		AdminEmail:    "Admin@Campus.edu",
		AdminPassword: "admin12345",
		Now:           func() time.Time { return fixed },
	})

	require.NoError(t, seeder.SeedAll(ctx))
	first := rowCounts(t, db)
	assert.Equal(t, int64(8), first["users"])
	assert.Equal(t, int64(4), first["courses"])
	assert.Equal(t, int64(4), first["enrollments"])
	assert.Equal(t, int64(2), first["assignments"])
	assert.Equal(t, int64(2), first["events"])

	require.NoError(t, seeder.SeedAll(ctx))
	assert.Equal(t, first, rowCounts(t, db))

	var cs101 model.Course
	require.NoError(t, db.Where("code = ?", "CS101").First(&cs101).Error)
	assert.Equal(t, 2, cs101.EnrolledCount)
	assert.Equal(t, 2026, cs101.Year)

	var admin model.User
	require.NoError(t, db.Where("email = ?", "admin@campus.edu").First(&admin).Error)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NoError(t, auth.VerifyPassword(admin.PasswordHash, "admin12345"))
}

func TestMigrateTwice(t *testing.T) {
	db := testutil.OpenDB(t)
	assert.NoError(t, database.Migrate(db))
}
