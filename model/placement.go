package model

import (
	"time"
)

// PlacementStatus tracks a student's progress with a recruiter
type PlacementStatus string

const (
	PlacementApplied      PlacementStatus = "applied"
	PlacementShortlisted  PlacementStatus = "shortlisted"
	PlacementInterviewing PlacementStatus = "interviewing"
	PlacementOffered      PlacementStatus = "offered"
	PlacementPlaced       PlacementStatus = "placed"
	PlacementRejected     PlacementStatus = "rejected"
)

// Valid reports whether s is a known placement status
func (s PlacementStatus) Valid() bool {
	switch s {
	case PlacementApplied, PlacementShortlisted, PlacementInterviewing,
		PlacementOffered, PlacementPlaced, PlacementRejected:
		return true
	}
	return false
}

// Placement records one student's application to a company
type Placement struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	StudentID  uint            `gorm:"not null;index" json:"student_id"`
	Company    string          `gorm:"not null" json:"company"`
	Role       string          `gorm:"not null" json:"role"`
	PackageLPA float64         `json:"package_lpa"`
	Status     PlacementStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`

	// Relationships
	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}
