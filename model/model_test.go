package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAssignment(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	grade := 85.0

	tests := []struct {
		name string
		sub  *Submission
		due  time.Time
		want AssignmentStatus
	}{
		{"graded wins over overdue", &Submission{Grade: &grade}, past, AssignmentStatusGraded},
		{"submitted before due", &Submission{}, future, AssignmentStatusSubmitted},
		{"submitted late is still submitted", &Submission{IsLate: true}, past, AssignmentStatusSubmitted},
		{"no submission past due", nil, past, AssignmentStatusOverdue},
		{"no submission before due", nil, future, AssignmentStatusPending},
		{"due exactly now is pending", nil, now, AssignmentStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAssignment(tt.sub, tt.due, now))
		})
	}
}

func TestNewGradeEntry(t *testing.T) {
	grade := 85.0
	a := &Assignment{ID: 7, Title: "Linked lists", CourseID: 3, MaxPoints: 100, Course: &Course{Code: "CS101", Title: "Intro"}}

	g, ok := NewGradeEntry(a, &Submission{Grade: &grade, Feedback: "good"})
	assert.True(t, ok)
	assert.Equal(t, 85.0, g.Marks)
	assert.Equal(t, 100, g.TotalMarks)
	assert.Equal(t, 85.0, g.Percentage)
	assert.Equal(t, "B", g.Letter)
	assert.Equal(t, "CS101", g.CourseCode)

	_, ok = NewGradeEntry(a, &Submission{})
	assert.False(t, ok)
}

func TestLetterGrade(t *testing.T) {
	cases := map[float64]string{100: "A", 90: "A", 89.99: "B", 80: "B", 75: "C", 60: "D", 59.5: "F", 0: "F"}
	for pct, want := range cases {
		assert.Equal(t, want, LetterGrade(pct), "pct %v", pct)
	}
}

func TestAttendanceTally(t *testing.T) {
	var s AttendanceSummary
	s.Tally(AttendancePresent)
	s.Tally(AttendanceLate)
	s.Tally(AttendanceAbsent)

	assert.Equal(t, 1, s.Present)
	assert.Equal(t, 1, s.Late)
	assert.Equal(t, 1, s.Absent)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 33.33, s.Percentage)
}

func TestSessionDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	got := SessionDate(time.Date(2026, 3, 10, 2, 0, 0, 0, ist))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestRelatedRefLink(t *testing.T) {
	assert.Equal(t, "/assignments/4", AssignmentRef(4).Link())
	assert.Equal(t, "/events/2", EventRef(2).Link())
	assert.Equal(t, "/courses/9", CourseRef(9).Link())
	assert.Equal(t, "", RelatedRef{}.Link())
	assert.Equal(t, "", RelatedRef{Kind: RelatedCourse}.Link())
	assert.NotPanics(t, func() {
		assert.Equal(t, "", RelatedRef{Kind: "syllabus", ID: 1}.Link())
	})
}

func TestNotificationRelated(t *testing.T) {
	var n Notification
	n.SetRelated(CourseRef(5))
	assert.Equal(t, CourseRef(5), n.Related())

	res := n.ToResponse()
	if assert.NotNil(t, res.RelatedTo) {
		assert.Equal(t, "/courses/5", res.RelatedTo.Link)
	}

	n.SetRelated(RelatedRef{})
	assert.True(t, n.Related().IsZero())
	assert.Nil(t, n.ToResponse().RelatedTo)

	stale := uint(3)
	n.RelatedKind, n.RelatedID = "syllabus", &stale
	res = n.ToResponse()
	if assert.NotNil(t, res.RelatedTo) {
		assert.Equal(t, "", res.RelatedTo.Link)
	}
}

func TestCourseSeatsLeft(t *testing.T) {
	c := Course{MaxStudents: 30, EnrolledCount: 28}
	assert.Equal(t, 2, c.SeatsLeft())
	c.EnrolledCount = 31
	assert.Equal(t, 0, c.SeatsLeft())
	assert.Equal(t, 0, c.ToResponse().SeatsLeft)
}

func TestEventVisibility(t *testing.T) {
	global := Event{}
	cs := Event{Department: "Computer Science"}

	assert.True(t, global.VisibleTo("Mathematics"))
	assert.True(t, cs.VisibleTo("Computer Science"))
	assert.False(t, cs.VisibleTo("Mathematics"))
}

func TestRoles(t *testing.T) {
	assert.True(t, IsValidRole(RoleStudent))
	assert.True(t, IsValidRole(RoleFaculty))
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole("instructor"))
	assert.Equal(t, AdministrationDepartment, DepartmentFor(RoleAdmin))
	assert.Equal(t, DefaultDepartment, DepartmentFor(RoleStudent))
}
