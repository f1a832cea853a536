package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventService handles campus events and their attendee sets
type EventService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

// NewEventService creates a new event service
func NewEventService(db *gorm.DB, notifier Notifier) *EventService {
	return &EventService{db: db, notifier: notifier, now: utcNow}
}

// EventInput is the writable part of an event. Nil pointers are left unchanged on update.
type EventInput struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Type        *model.EventType
	Department  *string // "" makes the event global
}

// ListEventsOptions filters List
type ListEventsOptions struct {
	Upcoming bool
	Type     model.EventType
	Limit    int
}

// EventItem is an event with its attendance figures for one caller
type EventItem struct {
	model.Event
	AttendeeCount int64 `json:"attendee_count"`
	Registered    bool  `json:"registered"`
}

// List returns the events visible to actor. Non-admins see their department and global events.
func (s *EventService) List(ctx context.Context, actor Actor, opts ListEventsOptions) ([]EventItem, error) {
	query := s.db.WithContext(ctx).Model(&model.Event{}).Preload("Organizer")
	if !actor.IsAdmin() {
		query = visibleEvents(query, actor.Department)
	}
	if opts.Upcoming {
		query = query.Where("date >= ?", s.now())
	}
	if opts.Type != "" {
		query = query.Where("type = ?", opts.Type)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var events []model.Event
	if err := query.Order("date ASC").Order("id ASC").Find(&events).Error; err != nil {
		return nil, storeError("list events", err, nil)
	}
	return s.decorate(ctx, actor.ID, events)
}

// Upcoming returns at most limit future events visible to department, soonest first
func (s *EventService) Upcoming(ctx context.Context, department string, limit int) ([]model.Event, error) {
	return upcomingEvents(s.db.WithContext(ctx), department, s.now(), limit)
}

func upcomingEvents(db *gorm.DB, department string, now time.Time, limit int) ([]model.Event, error) {
	query := visibleEvents(db.Model(&model.Event{}), department).
		Where("date >= ?", now).
		Order("date ASC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var events []model.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, storeError("list upcoming events", err, nil)
	}
	return events, nil
}

func visibleEvents(query *gorm.DB, department string) *gorm.DB {
	return query.Where("department = ? OR department = ''", department)
}

// Get returns one event. Non-admins cannot see another department's event.
func (s *EventService) Get(ctx context.Context, actor Actor, id uint) (*EventItem, error) {
	var event model.Event
	if err := s.db.WithContext(ctx).Preload("Organizer").First(&event, id).Error; err != nil {
		return nil, storeError("load event", err, ErrEventNotFound)
	}
	if !actor.IsAdmin() && !event.VisibleTo(actor.Department) {
		return nil, ErrEventNotFound
	}
	items, err := s.decorate(ctx, actor.ID, []model.Event{event})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create adds an event. A department event notifies the students of that department.
func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*model.Event, error) {
	if !actor.IsFaculty() && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Title == nil || in.Date == nil {
		return nil, Validationf("title and date are required")
	}

	event := model.Event{
		OrganizerID: actor.ID,
		Type:        model.EventTypeOther,
		Department:  actor.Department,
	}
	applyEventInput(&event, in)
	if err := validateEvent(&event); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, storeError("create event", err, nil)
	}

	if !event.IsGlobal() {
		var students []uint
		err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("role = ? AND department = ?", model.RoleStudent, event.Department).
			Pluck("id", &students).Error
		if err != nil {
			log.Warnf("event %d created but department students could not be loaded: %v", event.ID, err)
			return &event, nil
		}
		message := fmt.Sprintf("%s on %s", event.Title, event.Date.UTC().Format("Jan 2, 2006 15:04 MST"))
		if event.Location != "" {
			message += " at " + event.Location
		}
		if excerpt := validation.PlainText(event.Description, excerptLength); excerpt != "" {
			message += ". " + excerpt
		}
		dispatch(ctx, s.notifier, students, NotifyRequest{
			Title:    "New event: " + event.Title,
			Message:  message,
			Type:     model.NotificationTypeEvent,
			Related:  model.EventRef(event.ID),
			Metadata: map[string]interface{}{"department": event.Department, "type": event.Type},
		})
	}
	return &event, nil
}

// Update edits an event owned by actor (or any event for admins)
func (s *EventService) Update(ctx context.Context, actor Actor, id uint, in EventInput) (*model.Event, error) {
	event, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyEventInput(event, in)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       event.Title,
		"description": event.Description,
		"date":        event.Date,
		"location":    event.Location,
		"type":        event.Type,
		"department":  event.Department,
	}).Error
	if err != nil {
		return nil, storeError("update event", err, nil)
	}
	if err := s.db.WithContext(ctx).Preload("Organizer").First(event, id).Error; err != nil {
		return nil, storeError("reload event", err, ErrEventNotFound)
	}
	return event, nil
}

// Delete removes an event and its attendee set
func (s *EventService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventAttendee{}).Error; err != nil {
			return storeError("delete attendees", err, nil)
		}
		if err := tx.Delete(&model.Event{}, id).Error; err != nil {
			return storeError("delete event", err, nil)
		}
		return nil
	})
}

// Register adds actor to the attendee set. Registering twice is a no-op.
func (s *EventService) Register(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.EventAttendee{
		EventID:      id,
		UserID:       actor.ID,
		RegisteredAt: s.now(),
	}).Error
	return storeError("register attendee", err, nil)
}

// Unregister removes actor from the attendee set. Removing an absent member is a no-op.
func (s *EventService) Unregister(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", id, actor.ID).Delete(&model.EventAttendee{}).Error
	return storeError("unregister attendee", err, nil)
}

func (s *EventService) loadManaged(ctx context.Context, actor Actor, id uint) (*model.Event, error) {
	var event model.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, storeError("load event", err, ErrEventNotFound)
	}
	if !actor.IsAdmin() && event.OrganizerID != actor.ID {
		return nil, ErrNotOrganizer
	}
	return &event, nil
}

func (s *EventService) decorate(ctx context.Context, userID uint, events []model.Event) ([]EventItem, error) {
	items := make([]EventItem, len(events))
	if len(events) == 0 {
		return items, nil
	}
	ids := make([]uint, len(events))
	for i := range events {
		ids[i] = events[i].ID
		items[i].Event = events[i]
	}

	var counts []struct {
		EventID uint
		Total   int64
	}
	if err := s.db.WithContext(ctx).Model(&model.EventAttendee{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", ids).
		Group("event_id").
		Scan(&counts).Error; err != nil {
		return nil, storeError("count attendees", err, nil)
	}
	var mine []uint
	if err := s.db.WithContext(ctx).Model(&model.EventAttendee{}).
		Where("event_id IN ? AND user_id = ?", ids, userID).
		Pluck("event_id", &mine).Error; err != nil {
		return nil, storeError("list registrations", err, nil)
	}

	total := make(map[uint]int64, len(counts))
	for _, c := range counts {
		total[c.EventID] = c.Total
	}
	registered := make(map[uint]bool, len(mine))
	for _, id := range mine {
		registered[id] = true
	}
	for i := range items {
		items[i].AttendeeCount = total[items[i].ID]
		items[i].Registered = registered[items[i].ID]
	}
	return items, nil
}

func applyEventInput(e *model.Event, in EventInput) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		e.Date = in.Date.UTC()
	}
	if in.Location != nil {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.Type != nil {
		e.Type = *in.Type
	}
	if in.Department != nil {
		e.Department = strings.TrimSpace(*in.Department)
	}
}

func validateEvent(e *model.Event) error {
	switch {
	case e.Title == "":
		return Validationf("title is required")
	case e.Date.IsZero():
		return Validationf("date is required")
	case !e.Type.Valid():
		return Validationf("type %q is not a known event type", e.Type)
	}
	return nil
}
