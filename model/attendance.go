package model

import (
	"time"
)

// AttendanceStatus is the mark recorded for one student in one session
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid reports whether s is a known attendance status
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// AttendanceSession is one class meeting of a course on a UTC calendar day
type AttendanceSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_attendance_course_date" json:"course_id"`
	Date       time.Time `gorm:"not null;uniqueIndex:idx_attendance_course_date" json:"date"`
	MarkedByID uint      `gorm:"not null" json:"marked_by_id"`

	// Relationships
	Course  *Course            `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Records []AttendanceRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"records"`
}

// AttendanceRecord is a single student's mark within a session
type AttendanceRecord struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	SessionID uint             `gorm:"not null;uniqueIndex:idx_attendance_session_student" json:"session_id"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_attendance_session_student" json:"student_id"`
	Status    AttendanceStatus `gorm:"type:varchar(10);not null" json:"status"`
	Remark    string           `gorm:"type:varchar(255)" json:"remark,omitempty"`

	// Relationships
	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// SessionDate truncates t to the start of its UTC day
func SessionDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AttendanceSummary is a student's attendance in one course
type AttendanceSummary struct {
	CourseID   uint    `json:"course_id"`
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_title"`
	Present    int     `json:"present"`
	Late       int     `json:"late"`
	Absent     int     `json:"absent"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Tally adds one status to the summary
func (s *AttendanceSummary) Tally(status AttendanceStatus) {
	switch status {
	case AttendancePresent:
		s.Present++
	case AttendanceLate:
		s.Late++
	case AttendanceAbsent:
		s.Absent++
	}
	s.Total++
	s.Percentage = percentage(s.Present, s.Total)
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundTo2(float64(part) / float64(total) * 100)
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
