// Package testutil opens throwaway databases and creates fixtures for package tests.
package testutil

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain-text password of every fixture user
const Password = "password123"

var seq atomic.Int64

func init() {
	auth.Cost = bcrypt.MinCost
}

// OpenDB returns a migrated SQLite database that lives for the duration of t.
// It holds a single connection so concurrent callers queue instead of hitting SQLITE_BUSY.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "campus.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user of role in department with a unique email
func CreateUser(t testing.TB, db *gorm.DB, role, department string) *model.User {
	t.Helper()

	n := seq.Add(1)
	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)

	user := &model.User{
		Name:         fmt.Sprintf("%s %d", role, n),
		Email:        fmt.Sprintf("%s%d@campus.test", role, n),
		PasswordHash: hash,
		Role:         role,
		Department:   department,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCourse inserts an active course taught by instructor
func CreateCourse(t testing.TB, db *gorm.DB, instructor *model.User, code string, maxStudents int) *model.Course {
	t.Helper()

	course := &model.Course{
		Code:         code,
		Title:        "Course " + code,
		Department:   instructor.Department,
		Credits:      3,
		InstructorID: instructor.ID,
		MaxStudents:  maxStudents,
		IsActive:     true,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

// Enroll adds student to course and keeps the seat counter in step
func Enroll(t testing.TB, db *gorm.DB, course *model.Course, student *model.User) {
	t.Helper()

	require.NoError(t, db.Create(&model.CourseEnrollment{
		CourseID:   course.ID,
		StudentID:  student.ID,
		EnrolledAt: time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Model(&model.Course{}).Where("id = ?", course.ID).
		UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + ?", 1)).Error)
	course.EnrolledCount++
}

// CreateAssignment inserts an assignment in course due at due
func CreateAssignment(t testing.TB, db *gorm.DB, course *model.Course, title string, due time.Time, maxPoints int) *model.Assignment {
	t.Helper()

	a := &model.Assignment{
		Title:       title,
		CourseID:    course.ID,
		DueDate:     due.UTC(),
		MaxPoints:   maxPoints,
		CreatedByID: course.InstructorID,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// PDF returns a minimal well-formed PDF with the given number of blank pages
func PDF(pages int) []byte {
	kids := make([]string, pages)
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	for i := 0; i < pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
