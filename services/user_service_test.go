package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerInput(email string) CreateUserInput {
	return CreateUserInput{Name: "Priya Sharma", Email: email, Password: testutil.Password, StudentID: "STU-1"}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)

	user, err := svc.Register(ctx, registerInput("  Priya@Campus.EDU "))
	require.NoError(t, err)
	assert.Equal(t, "priya@campus.edu", user.Email)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, model.DefaultDepartment, user.Department)
	require.NotNil(t, user.StudentID)
	assert.Equal(t, "STU-1", *user.StudentID)
	assert.NotEqual(t, testutil.Password, user.PasswordHash)

	_, err = svc.Register(ctx, CreateUserInput{Name: "Admin", Email: "root@campus.edu", Password: testutil.Password, Role: model.RoleAdmin})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	_, err = svc.Register(ctx, CreateUserInput{Name: "Teacher", Email: "t@campus.edu", Password: testutil.Password, Role: "instructor"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, CreateUserInput{Name: "Short", Email: "s@campus.edu", Password: "1234567"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)

	_, err := svc.Register(ctx, registerInput("dup@campus.edu"))
	require.NoError(t, err)

	in := registerInput("DUP@campus.edu")
	in.StudentID = "STU-2"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)

	in = registerInput("other@campus.edu")
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrIdentifierTaken)
}

func TestRegisterLosingUniqueIndexRaceConflicts(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)

	// a competing registration lands after the email check but before the insert
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:begin_transaction").Register("test:race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		require.NoError(t, db.Create(&model.User{
			Name: "First", Email: "race@campus.edu", PasswordHash: "x", Role: model.RoleStudent, Department: model.DefaultDepartment,
		}).Error)
	}))

	_, err := svc.Register(ctx, registerInput("race@campus.edu"))
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestDuplicateKeyMapsToConflict(t *testing.T) {
	db := testutil.OpenDB(t)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS101", 10)

	err := db.Create(&model.Course{Code: course.Code, Title: "Copy", Department: course.Department, InstructorID: faculty.ID, MaxStudents: 5}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, duplicateError("create course", err, ErrCourseCodeTaken), ErrCourseCodeTaken)

	err = db.Create(&model.User{Name: "Copy", Email: faculty.Email, PasswordHash: "x", Role: model.RoleFaculty, Department: "Computer Science"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, storeError("create user", err, nil), ErrStoreUnavailable, "plain storeError keeps other failures internal")
	assert.Equal(t, ErrConflict, KindOf(duplicateError("update user", err, ErrIdentifierTaken)))
}

func TestAuthenticateHasNoLockout(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)
	user := testutil.CreateUser(t, db, model.RoleStudent, "General")

	for i := 0; i < 10; i++ {
		_, err := svc.Authenticate(ctx, user.Email, "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}

	got, err := svc.Authenticate(ctx, user.Email, testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "nobody@campus.test", testutil.Password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)
	user := testutil.CreateUser(t, db, model.RoleStudent, "General")

	name, phone := " New Name ", "+91 98765 43210"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "+91 98765 43210", updated.Phone)
	assert.Equal(t, "General", updated.Department)

	blank := "   "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteUserReleasesSeats(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS101", 2)
	testutil.Enroll(t, db, course, student)
	_, err := NewNotificationService(db).NotifyOne(ctx, student.ID, NotifyRequest{Title: "hi"})
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, faculty.ID)
	assert.ErrorIs(t, err, ErrConflict, "an instructor with courses cannot be deleted")

	require.NoError(t, svc.DeleteUser(ctx, student.ID))

	var c model.Course
	require.NoError(t, db.First(&c, course.ID).Error)
	assert.Zero(t, c.EnrolledCount)

	var left int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&left).Error)
	assert.Zero(t, left)

	_, err = svc.GetByID(ctx, student.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewUserService(db)
	testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	testutil.CreateUser(t, db, model.RoleStudent, "Mathematics")
	testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")

	users, total, err := svc.ListUsers(ctx, ListUsersOptions{Role: model.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	_, total, err = svc.ListUsers(ctx, ListUsersOptions{Department: "Computer Science", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	counts, err := svc.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[model.RoleAdmin])
	assert.Equal(t, int64(1), counts[model.RoleFaculty])
}
