package model

import (
	"time"
)

// Assignment is the aggregate root for its submissions
type Assignment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	CourseID       uint       `gorm:"not null;index" json:"course_id"`
	DueDate        time.Time  `gorm:"not null;index" json:"due_date"`
	MaxPoints      int        `gorm:"not null" json:"max_points"`
	CreatedByID    uint       `gorm:"not null;index" json:"created_by_id"`
	ReminderSentAt *time.Time `json:"-"`

	// Relationships
	Course      *Course      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CreatedBy   *User        `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"created_by,omitempty"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
}

// Submission is a student's single attempt at an assignment
type Submission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AssignmentID  uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID     uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content       string     `gorm:"type:text" json:"content"`
	AttachmentKey string     `gorm:"type:varchar(255)" json:"-"`
	AttachmentURL string     `gorm:"type:text" json:"attachment_url,omitempty"`
	SubmittedAt   time.Time  `gorm:"not null" json:"submitted_at"`
	IsLate        bool       `gorm:"not null" json:"is_late"`
	Grade         *float64   `json:"grade"`
	Feedback      string     `gorm:"type:text" json:"feedback,omitempty"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`
	GradedByID    *uint      `json:"graded_by_id,omitempty"`

	// Relationships
	Assignment *Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
	Student    *User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// IsGraded reports whether a grade has been recorded
func (s *Submission) IsGraded() bool {
	return s != nil && s.Grade != nil
}

// AssignmentStatus classifies an assignment from one student's point of view
type AssignmentStatus string

const (
	AssignmentStatusGraded    AssignmentStatus = "graded"
	AssignmentStatusSubmitted AssignmentStatus = "submitted"
	AssignmentStatusOverdue   AssignmentStatus = "overdue"
	AssignmentStatusPending   AssignmentStatus = "pending"
)

// ClassifyAssignment returns the status of an assignment for a student given their submission (nil when none)
func ClassifyAssignment(sub *Submission, due, now time.Time) AssignmentStatus {
	switch {
	case sub.IsGraded():
		return AssignmentStatusGraded
	case sub != nil:
		return AssignmentStatusSubmitted
	case now.After(due):
		return AssignmentStatusOverdue
	default:
		return AssignmentStatusPending
	}
}
