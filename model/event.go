package model

import (
	"time"
)

// EventType enumerates campus event kinds
type EventType string

const (
	EventTypeAcademic  EventType = "academic"
	EventTypeCultural  EventType = "cultural"
	EventTypeSports    EventType = "sports"
	EventTypeWorkshop  EventType = "workshop"
	EventTypeSeminar   EventType = "seminar"
	EventTypePlacement EventType = "placement"
	EventTypeOther     EventType = "other"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventTypeAcademic, EventTypeCultural, EventTypeSports, EventTypeWorkshop,
		EventTypeSeminar, EventTypePlacement, EventTypeOther:
		return true
	}
	return false
}

// Event is a dated campus happening. An empty Department makes it visible to every department.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Location    string    `json:"location"`
	Type        EventType `gorm:"type:varchar(20);not null" json:"type"`
	OrganizerID uint      `gorm:"not null;index" json:"organizer_id"`
	Department  string    `gorm:"type:varchar(100);index" json:"department"`

	// Relationships
	Organizer *User           `gorm:"foreignKey:OrganizerID;constraint:OnDelete:CASCADE" json:"organizer,omitempty"`
	Attendees []EventAttendee `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"attendees,omitempty"`
}

// IsGlobal reports whether the event is visible to all departments
func (e *Event) IsGlobal() bool {
	return e.Department == ""
}

// VisibleTo reports whether a member of department should see the event
func (e *Event) VisibleTo(department string) bool {
	return e.IsGlobal() || e.Department == department
}

// EventAttendee is a member of an event's attendee set
type EventAttendee struct {
	EventID      uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID       uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
