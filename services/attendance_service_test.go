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

func TestMarkAttendance(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	notifs := NewNotificationService(db)
	svc := NewAttendanceService(db, notifs)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	other := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	present := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	absent := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	stranger := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, db, faculty, "CS101", 10)
	testutil.Enroll(t, db, course, present)
	testutil.Enroll(t, db, course, absent)

	day := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	in := MarkAttendanceInput{
		CourseID: course.ID,
		Date:     day,
		Records: []AttendanceMark{
			{StudentID: present.ID, Status: model.AttendancePresent},
			{StudentID: absent.ID, Status: model.AttendanceAbsent},
		},
	}

	_, err := svc.Mark(ctx, ActorOf(other), in)
	assert.ErrorIs(t, err, ErrNotCourseOwner)

	session, err := svc.Mark(ctx, ActorOf(faculty), in)
	require.NoError(t, err)
	assert.Equal(t, model.SessionDate(day), session.Date)
	assert.Len(t, session.Records, 2)

	_, err = svc.Mark(ctx, ActorOf(faculty), MarkAttendanceInput{
		CourseID: course.ID,
		Date:     day.Add(3 * time.Hour),
		Records:  []AttendanceMark{{StudentID: present.ID, Status: model.AttendanceLate}},
	})
	assert.ErrorIs(t, err, ErrAttendanceExists, "one session per course per day")

	n, err := notifs.UnreadCount(ctx, absent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = notifs.UnreadCount(ctx, present.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	next := day.AddDate(0, 0, 1)
	_, err = svc.Mark(ctx, ActorOf(faculty), MarkAttendanceInput{
		CourseID: course.ID,
		Date:     next,
		Records:  []AttendanceMark{{StudentID: stranger.ID, Status: model.AttendancePresent}},
	})
	assert.ErrorIs(t, err, ErrStudentNotInCourse)

	_, err = svc.Mark(ctx, ActorOf(faculty), MarkAttendanceInput{
		CourseID: course.ID,
		Date:     next,
		Records: []AttendanceMark{
			{StudentID: present.ID, Status: model.AttendancePresent},
			{StudentID: present.ID, Status: model.AttendanceAbsent},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Mark(ctx, ActorOf(faculty), MarkAttendanceInput{
		CourseID: course.ID,
		Date:     next,
		Records:  []AttendanceMark{{StudentID: present.ID, Status: "excused"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAttendanceSummaryAndListing(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := NewAttendanceService(db, nil)
	faculty := testutil.CreateUser(t, db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, db, model.RoleStudent, "Computer Science")
	cs101 := testutil.CreateCourse(t, db, faculty, "CS101", 10)
	cs102 := testutil.CreateCourse(t, db, faculty, "CS102", 10)
	testutil.Enroll(t, db, cs101, student)
	testutil.Enroll(t, db, cs102, student)

	statuses := []model.AttendanceStatus{model.AttendancePresent, model.AttendancePresent, model.AttendanceLate, model.AttendanceAbsent}
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, status := range statuses {
		_, err := svc.Mark(ctx, ActorOf(faculty), MarkAttendanceInput{
			CourseID: cs101.ID,
			Date:     start.AddDate(0, 0, i),
			Records:  []AttendanceMark{{StudentID: student.ID, Status: status}},
		})
		require.NoError(t, err)
	}

	summary, err := svc.StudentSummary(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "CS101", summary[0].CourseCode)
	assert.Equal(t, 2, summary[0].Present)
	assert.Equal(t, 1, summary[0].Late)
	assert.Equal(t, 1, summary[0].Absent)
	assert.Equal(t, 4, summary[0].Total)
	assert.Equal(t, 50.0, summary[0].Percentage)
	assert.Equal(t, "CS102", summary[1].CourseCode)
	assert.Zero(t, summary[1].Total)

	sessions, err := svc.ListForCourse(ctx, ActorOf(faculty), cs101.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	assert.True(t, sessions[0].Date.After(sessions[3].Date), "newest first")
	require.Len(t, sessions[0].Records, 1)
	require.NotNil(t, sessions[0].Records[0].Student)
	assert.Equal(t, student.ID, sessions[0].Records[0].Student.ID)
}
