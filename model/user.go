package model

import (
	"time"
)

// Canonical roles. "instructor" is not accepted anywhere; faculty owns courses.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// Default departments assigned when registration leaves the field empty
const (
	DefaultDepartment        = "General"
	AdministrationDepartment = "Administration"
)

// User represents a registered user in the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string    `gorm:"not null" json:"name"`
	Role         string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Department   string    `gorm:"type:varchar(100);index" json:"department"`
	StudentID    *string   `gorm:"type:varchar(50);uniqueIndex" json:"student_id,omitempty"`
	EmployeeID   *string   `gorm:"type:varchar(50);uniqueIndex" json:"employee_id,omitempty"`
	Phone        string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	TokenVersion int       `gorm:"not null" json:"-"` // Increment to invalidate all user tokens
}

// IsValidRole reports whether role belongs to the canonical role set
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// DepartmentFor returns the department a new user of role gets when none is given
func DepartmentFor(role string) string {
	if role == RoleAdmin {
		return AdministrationDepartment
	}
	return DefaultDepartment
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsFaculty() bool { return u.Role == RoleFaculty }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }

// UserSummary is the compact user shape embedded in other responses
type UserSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}
