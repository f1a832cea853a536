package database_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/smart-campus-api/config"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openPostgres connects to DATABASE_URL when RUN_INTEGRATION_TESTS=true
func openPostgres(t *testing.T) *database.GORMStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" || url == "" {
		t.Skip("set RUN_INTEGRATION_TESTS=true and DATABASE_URL to run PostgreSQL tests")
	}

	cfg := &config.Config{Env: "production", DatabaseURL: url}
	ctx := context.Background()
	_, err := database.EnsureDatabase(ctx, cfg.MaintenanceDSN(), cfg.DatabaseName())
	require.NoError(t, err)
	created, err := database.EnsureDatabase(ctx, cfg.MaintenanceDSN(), cfg.DatabaseName())
	require.NoError(t, err)
	assert.False(t, created, "second call finds the database")

	store, err := database.StartGORM(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init())
	require.NoError(t, store.HealthCheck(ctx))
	return store
}

func createPGUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	tag := uuid.NewString()
	u := &model.User{
		Name:         role + " " + tag[:8],
		Email:        role + "-" + tag + "@it.campus.test",
		PasswordHash: "x",
		Role:         role,
		Department:   "Integration",
	}
	require.NoError(t, db.Create(u).Error)
	t.Cleanup(func() { db.Delete(&model.User{}, u.ID) })
	return u
}

func TestPostgresConcurrentEnrollment(t *testing.T) {
	store := openPostgres(t)
	db := store.DB()
	ctx := context.Background()

	faculty := createPGUser(t, db, model.RoleFaculty)
	course := &model.Course{
		Code:         "IT" + strings.ToUpper(uuid.NewString()[:8]),
		Title:        "Concurrency",
		Department:   faculty.Department,
		Credits:      3,
		InstructorID: faculty.ID,
		MaxStudents:  3,
		IsActive:     true,
	}
	require.NoError(t, db.Create(course).Error)
	t.Cleanup(func() {
		db.Where("course_id = ?", course.ID).Delete(&model.CourseEnrollment{})
		db.Delete(&model.Course{}, course.ID)
	})

	svc := services.NewEnrollmentService(db, nil)
	const students = 12
	ids := make([]uint, students)
	for i := range ids {
		ids[i] = createPGUser(t, db, model.RoleStudent).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, students)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = svc.Enroll(ctx, id, course.ID)
		}(i, id)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrCourseFull):
			full++
		default:
			t.Errorf("unexpected enroll error: %v", err)
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, students-3, full)

	var rows int64
	require.NoError(t, db.Model(&model.CourseEnrollment{}).Where("course_id = ?", course.ID).Count(&rows).Error)
	var reloaded model.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(reloaded.EnrolledCount), rows)
	assert.Equal(t, 3, reloaded.EnrolledCount)
}
