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

func TestStudentDashboardGradesAndStatuses(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS101", 30)
	testutil.Enroll(t, db, course, student)

	graded := testutil.CreateAssignment(t, db, course, "Graded", now.Add(-48*time.Hour), 100)
	overdue := testutil.CreateAssignment(t, db, course, "Overdue", now.Add(-24*time.Hour), 50)
	pending := testutil.CreateAssignment(t, db, course, "Pending", now.Add(72*time.Hour), 20)
	submitted := testutil.CreateAssignment(t, db, course, "Submitted", now.Add(96*time.Hour), 10)

	marks := 85.0
	gradedAt := now.Add(-time.Hour)
	require.NoError(t, db.Create(&model.Submission{
		AssignmentID: graded.ID, StudentID: student.ID, Content: "done",
		SubmittedAt: now.Add(-50 * time.Hour), Grade: &marks, GradedAt: &gradedAt,
	}).Error)
	require.NoError(t, db.Create(&model.Submission{
		AssignmentID: submitted.ID, StudentID: student.ID, Content: "draft", SubmittedAt: now,
	}).Error)

	svc := NewDashboardService(db)
	svc.setClock(func() time.Time { return now })

	view, err := svc.BuildDashboard(ctx, student.ID, model.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, view.Student)
	assert.Nil(t, view.Faculty)
	assert.Nil(t, view.Admin)

	dash := view.Student
	require.Len(t, dash.Grades, 1)
	assert.Equal(t, graded.ID, dash.Grades[0].AssignmentID)
	assert.Equal(t, 85.0, dash.Grades[0].Marks)
	assert.Equal(t, 100, dash.Grades[0].TotalMarks)

	statuses := map[uint]model.AssignmentStatus{}
	for _, item := range dash.Assignments {
		statuses[item.ID] = item.Status
	}
	assert.Equal(t, map[uint]model.AssignmentStatus{
		graded.ID:    model.AssignmentStatusGraded,
		overdue.ID:   model.AssignmentStatusOverdue,
		pending.ID:   model.AssignmentStatusPending,
		submitted.ID: model.AssignmentStatusSubmitted,
	}, statuses)
	assert.Equal(t, 1, dash.PendingAssignments)
	assert.Equal(t, 1, dash.OverdueAssignments)

	require.Len(t, dash.EnrolledCourses, 1)
	assert.Equal(t, "CS101", dash.EnrolledCourses[0].Code)
	require.Len(t, dash.Attendance, 1)
	assert.Zero(t, dash.Attendance[0].Percentage)
}

func TestStudentDashboardOverdueWithoutSubmissions(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS102", 30)
	testutil.Enroll(t, db, course, student)
	a := testutil.CreateAssignment(t, db, course, "Late essay", time.Now().Add(-2*time.Hour), 100)

	view, err := NewDashboardService(db).BuildDashboard(ctx, student.ID, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, view.Student.Assignments, 1)
	assert.Equal(t, a.ID, view.Student.Assignments[0].ID)
	assert.Equal(t, model.AssignmentStatusOverdue, view.Student.Assignments[0].Status)
	assert.Empty(t, view.Student.Grades)
}

func TestStudentDashboardIgnoresOtherCourses(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS103", 30)
	testutil.CreateAssignment(t, db, course, "Not mine", time.Now().Add(time.Hour), 100)

	view, err := NewDashboardService(db).BuildDashboard(ctx, student.ID, model.RoleStudent)
	require.NoError(t, err)
	assert.Empty(t, view.Student.Assignments)
	require.Len(t, view.Student.AvailableCourses, 1)
	assert.Equal(t, course.ID, view.Student.AvailableCourses[0].ID)
}

func TestFacultyDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	otherFaculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	s1 := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	s2 := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")

	c1 := testutil.CreateCourse(t, db, faculty, "CS101", 30)
	c2 := testutil.CreateCourse(t, db, faculty, "CS102", 30)
	theirs := testutil.CreateCourse(t, db, otherFaculty, "CS900", 30)
	testutil.Enroll(t, db, c1, s1)
	testutil.Enroll(t, db, c1, s2)
	testutil.Enroll(t, db, c2, s1)
	testutil.Enroll(t, db, theirs, s2)

	a := testutil.CreateAssignment(t, db, c1, "Lab 1", time.Now().Add(time.Hour), 10)
	testutil.CreateAssignment(t, db, theirs, "Other lab", time.Now().Add(time.Hour), 10)
	for _, s := range []*model.User{s1, s2} {
		require.NoError(t, db.Create(&model.Submission{AssignmentID: a.ID, StudentID: s.ID, Content: "x", SubmittedAt: time.Now()}).Error)
	}

	view, err := NewDashboardService(db).BuildDashboard(ctx, faculty.ID, model.RoleFaculty)
	require.NoError(t, err)
	dash := view.Faculty
	require.NotNil(t, dash)
	assert.Len(t, dash.Courses, 2)
	require.Len(t, dash.Assignments, 1)
	assert.Equal(t, int64(2), dash.Assignments[0].SubmissionCount)
	assert.Equal(t, int64(2), dash.PendingGrading)
	assert.Equal(t, int64(2), dash.TotalStudents)
}

func TestAdminDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	admin := testutil.CreateUser(t, db, model.RoleAdmin, "Administration")
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS101", 30)
	testutil.Enroll(t, db, course, student)
	require.NoError(t, db.Create(&model.Placement{StudentID: student.ID, Company: "Acme", Role: "SDE", Status: model.PlacementPlaced}).Error)

	view, err := NewDashboardService(db).BuildDashboard(ctx, admin.ID, model.RoleAdmin)
	require.NoError(t, err)
	dash := view.Admin
	require.NotNil(t, dash)
	assert.Equal(t, int64(3), dash.TotalUsers)
	assert.Equal(t, map[string]int64{model.RoleStudent: 1, model.RoleFaculty: 1, model.RoleAdmin: 1}, dash.UsersByRole)
	assert.Equal(t, int64(1), dash.TotalCourses)
	assert.Equal(t, int64(1), dash.ActiveCourses)
	assert.Equal(t, int64(1), dash.TotalEnrollments)
	assert.Equal(t, int64(1), dash.PlacedStudents)
}

func TestBuildDashboardRoleMismatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	svc := NewDashboardService(db)

	_, err := svc.BuildDashboard(ctx, student.ID, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.BuildDashboard(ctx, 9999, model.RoleStudent)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
