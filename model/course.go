package model

import (
	"time"
)

// Course represents a single offering taught by one faculty member
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Code          string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"` // e.g., "CS101"
	Title         string    `gorm:"not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Department    string    `gorm:"type:varchar(100);not null;index" json:"department"`
	Credits       int       `gorm:"not null" json:"credits"`
	Semester      string    `gorm:"type:varchar(20)" json:"semester"`
	Year          int       `json:"year"`
	InstructorID  uint      `gorm:"not null;index" json:"instructor_id"`
	MaxStudents   int       `gorm:"not null" json:"max_students"`
	EnrolledCount int       `gorm:"not null" json:"enrolled_count"` // maintained with enrollments in one transaction
	IsActive      bool      `gorm:"not null;index" json:"is_active"`

	// Relationships
	Instructor  *User              `gorm:"foreignKey:InstructorID;constraint:OnDelete:RESTRICT" json:"instructor,omitempty"`
	Enrollments []CourseEnrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// SeatsLeft returns the remaining capacity
func (c *Course) SeatsLeft() int {
	if c.EnrolledCount >= c.MaxStudents {
		return 0
	}
	return c.MaxStudents - c.EnrolledCount
}

// CourseEnrollment links a student to a course. The composite key keeps a student at most once per course.
type CourseEnrollment struct {
	CourseID   uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	StudentID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"student_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`

	// Relationships
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// CourseResponse represents the API response format for a course
type CourseResponse struct {
	ID            uint         `json:"id"`
	Code          string       `json:"code"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Department    string       `json:"department"`
	Credits       int          `json:"credits"`
	Semester      string       `json:"semester"`
	Year          int          `json:"year"`
	MaxStudents   int          `json:"max_students"`
	EnrolledCount int          `json:"enrolled_count"`
	SeatsLeft     int          `json:"seats_left"`
	IsActive      bool         `json:"is_active"`
	Instructor    *UserSummary `json:"instructor,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ToResponse converts a Course to CourseResponse
func (c *Course) ToResponse() CourseResponse {
	res := CourseResponse{
		ID:            c.ID,
		Code:          c.Code,
		Title:         c.Title,
		Description:   c.Description,
		Department:    c.Department,
		Credits:       c.Credits,
		Semester:      c.Semester,
		Year:          c.Year,
		MaxStudents:   c.MaxStudents,
		EnrolledCount: c.EnrolledCount,
		SeatsLeft:     c.SeatsLeft(),
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Instructor != nil {
		s := c.Instructor.Summary()
		res.Instructor = &s
	}
	return res
}

// CourseResponses converts a slice of courses
func CourseResponses(courses []Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, courses[i].ToResponse())
	}
	return out
}
