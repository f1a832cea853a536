package model

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
)

// NotificationType represents the domain event that produced a notification
type NotificationType string

const (
	NotificationTypeAssignment NotificationType = "assignment"
	NotificationTypeGrade      NotificationType = "grade"
	NotificationTypeEnrollment NotificationType = "enrollment"
	NotificationTypeEvent      NotificationType = "event"
	NotificationTypeAttendance NotificationType = "attendance"
	NotificationTypePlacement  NotificationType = "placement"
	NotificationTypeReminder   NotificationType = "reminder"
	NotificationTypeGeneral    NotificationType = "general"
)

// RelatedKind names the entity a notification points at
type RelatedKind string

const (
	RelatedNone       RelatedKind = ""
	RelatedAssignment RelatedKind = "assignment"
	RelatedEvent      RelatedKind = "event"
	RelatedCourse     RelatedKind = "course"
)

// RelatedRef is a weak pointer from a notification to the entity it is about
type RelatedRef struct {
	Kind RelatedKind `json:"kind"`
	ID   uint        `json:"id"`
}

func AssignmentRef(id uint) RelatedRef { return RelatedRef{Kind: RelatedAssignment, ID: id} }
func EventRef(id uint) RelatedRef      { return RelatedRef{Kind: RelatedEvent, ID: id} }
func CourseRef(id uint) RelatedRef     { return RelatedRef{Kind: RelatedCourse, ID: id} }

// IsZero reports whether the reference points at nothing
func (r RelatedRef) IsZero() bool {
	return r.Kind == RelatedNone || r.ID == 0
}

// Link resolves the reference to the client route that displays it
func (r RelatedRef) Link() string {
	if r.IsZero() {
		return ""
	}
	switch r.Kind {
	case RelatedAssignment:
		return fmt.Sprintf("/assignments/%d", r.ID)
	case RelatedEvent:
		return fmt.Sprintf("/events/%d", r.ID)
	case RelatedCourse:
		return fmt.Sprintf("/courses/%d", r.ID)
	case RelatedNone:
		return ""
	}
	// rows written outside the constructors can carry any kind
	log.Warnf("notification references unknown kind %q (id %d)", r.Kind, r.ID)
	return ""
}

// Notification is a message addressed to exactly one recipient
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	RecipientID uint             `gorm:"index;not null" json:"recipient_id"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Read        bool             `gorm:"not null;index" json:"read"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	RelatedKind RelatedKind      `gorm:"type:varchar(20)" json:"-"`
	RelatedID   *uint            `json:"-"`
	Metadata    datatypes.JSON   `json:"metadata,omitempty"` // Additional context

	// Relationships
	Recipient *User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
}

// Related returns the typed related reference
func (n *Notification) Related() RelatedRef {
	if n.RelatedID == nil {
		return RelatedRef{}
	}
	return RelatedRef{Kind: n.RelatedKind, ID: *n.RelatedID}
}

// SetRelated stores ref in the flat columns
func (n *Notification) SetRelated(ref RelatedRef) {
	if ref.IsZero() {
		n.RelatedKind = RelatedNone
		n.RelatedID = nil
		return
	}
	id := ref.ID
	n.RelatedKind = ref.Kind
	n.RelatedID = &id
}

// NotificationResponse represents the API response format for a notification
type NotificationResponse struct {
	ID        uint             `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	RelatedTo *RelatedLink     `json:"related_to,omitempty"`
	Metadata  datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// RelatedLink is the serialised related reference
type RelatedLink struct {
	Kind RelatedKind `json:"kind"`
	ID   uint        `json:"id"`
	Link string      `json:"link"`
}

// ToResponse converts a Notification to NotificationResponse
func (n *Notification) ToResponse() NotificationResponse {
	res := NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
	if ref := n.Related(); !ref.IsZero() {
		res.RelatedTo = &RelatedLink{Kind: ref.Kind, ID: ref.ID, Link: ref.Link()}
	}
	return res
}
