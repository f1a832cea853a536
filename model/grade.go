package model

import (
	"time"
)

// GradeEntry is a graded submission projected for reporting. It has no table.
type GradeEntry struct {
	AssignmentID    uint       `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title"`
	CourseID        uint       `json:"course_id"`
	CourseCode      string     `json:"course_code"`
	CourseTitle     string     `json:"course_title"`
	Marks           float64    `json:"marks"`
	TotalMarks      int        `json:"total_marks"`
	Percentage      float64    `json:"percentage"`
	Letter          string     `json:"letter"`
	Feedback        string     `json:"feedback,omitempty"`
	GradedAt        *time.Time `json:"graded_at,omitempty"`
}

// NewGradeEntry derives a grade from a graded submission. It returns false if the submission has no grade.
func NewGradeEntry(a *Assignment, s *Submission) (GradeEntry, bool) {
	if !s.IsGraded() {
		return GradeEntry{}, false
	}
	g := GradeEntry{
		AssignmentID:    a.ID,
		AssignmentTitle: a.Title,
		CourseID:        a.CourseID,
		Marks:           *s.Grade,
		TotalMarks:      a.MaxPoints,
		Feedback:        s.Feedback,
		GradedAt:        s.GradedAt,
	}
	if a.Course != nil {
		g.CourseCode = a.Course.Code
		g.CourseTitle = a.Course.Title
	}
	if a.MaxPoints > 0 {
		g.Percentage = roundTo2(*s.Grade / float64(a.MaxPoints) * 100)
	}
	g.Letter = LetterGrade(g.Percentage)
	return g, true
}

// LetterGrade maps a percentage onto the A-F scale
func LetterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}
