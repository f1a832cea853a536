package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotifyRequest describes the notification to create for each recipient
type NotifyRequest struct {
	Title    string
	Message  string
	Type     model.NotificationType
	Related  model.RelatedRef
	Metadata map[string]interface{}
}

// Notifier is the fan-out side of NotificationService that other services depend on
type Notifier interface {
	NotifyOne(ctx context.Context, recipientID uint, req NotifyRequest) (*model.Notification, error)
	NotifyMany(ctx context.Context, recipientIDs []uint, req NotifyRequest) ([]model.Notification, error)
}

// NotificationService handles user notifications
type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Notifier = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: utcNow}
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	UserID     uint
	UnreadOnly bool
	Type       model.NotificationType
	Limit      int
	Offset     int
}

func (s *NotificationService) build(recipientID uint, req NotifyRequest) (*model.Notification, error) {
	if recipientID == 0 {
		return nil, Validationf("notification recipient is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, Validationf("notification title is required")
	}
	if req.Type == "" {
		req.Type = model.NotificationTypeGeneral
	}

	n := &model.Notification{
		RecipientID: recipientID,
		Title:       title,
		Message:     req.Message,
		Type:        req.Type,
	}
	n.SetRelated(req.Related)

	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}
	return n, nil
}

// NotifyOne creates a single notification
func (s *NotificationService) NotifyOne(ctx context.Context, recipientID uint, req NotifyRequest) (*model.Notification, error) {
	n, err := s.build(recipientID, req)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, storeError("create notification", err, nil)
	}
	return n, nil
}

// NotifyMany creates one notification per distinct recipient. Every insert is independent:
// a failure is collected and the remaining recipients are still notified.
func (s *NotificationService) NotifyMany(ctx context.Context, recipientIDs []uint, req NotifyRequest) ([]model.Notification, error) {
	recipients := uniqueIDs(recipientIDs)
	created := make([]model.Notification, 0, len(recipients))

	var errs []error
	for _, id := range recipients {
		n, err := s.NotifyOne(ctx, id, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("recipient %d: %w", id, err))
			continue
		}
		created = append(created, *n)
	}
	return created, errors.Join(errs...)
}

// MarkRead flips a notification to read. Only the recipient may do this; repeating it changes nothing.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, callerID uint) (*model.Notification, error) {
	var n model.Notification
	if err := s.db.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		return nil, storeError("load notification", err, ErrNotificationNotFound)
	}
	if n.RecipientID != callerID {
		return nil, ErrNotRecipient
	}
	if n.Read {
		return &n, nil
	}

	now := s.now()
	// The read = false guard keeps a concurrent second call from moving read_at
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND read = ?", n.ID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
	if err != nil {
		return nil, storeError("mark notification read", err, nil)
	}

	if err := s.db.WithContext(ctx).First(&n, n.ID).Error; err != nil {
		return nil, storeError("reload notification", err, ErrNotificationNotFound)
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of userID as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": s.now()})
	if res.Error != nil {
		return 0, storeError("mark all notifications read", res.Error, nil)
	}
	return res.RowsAffected, nil
}

// Delete removes a notification owned by callerID
func (s *NotificationService) Delete(ctx context.Context, notificationID, callerID uint) error {
	var n model.Notification
	if err := s.db.WithContext(ctx).Select("id", "recipient_id").First(&n, notificationID).Error; err != nil {
		return storeError("load notification", err, ErrNotificationNotFound)
	}
	if n.RecipientID != callerID {
		return ErrNotRecipient
	}
	if err := s.db.WithContext(ctx).Delete(&model.Notification{}, n.ID).Error; err != nil {
		return storeError("delete notification", err, nil)
	}
	return nil
}

// List retrieves notifications for a user, newest first
func (s *NotificationService) List(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ?", opts.UserID)

	if opts.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if opts.Type != "" {
		query = query.Where("type = ?", opts.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("count notifications", err, nil)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(opts.Offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, storeError("list notifications", err, nil)
	}
	return notifications, total, nil
}

// UnreadCount returns the number of unread notifications of userID
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count unread notifications", err, nil)
	}
	return count, nil
}

// CleanupRead deletes read notifications created before olderThan
func (s *NotificationService) CleanupRead(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, olderThan.UTC()).
		Delete(&model.Notification{})
	if res.Error != nil {
		return 0, storeError("cleanup notifications", res.Error, nil)
	}
	return res.RowsAffected, nil
}

// dispatch fans out req and logs failures. It never returns an error so the triggering write stands.
func dispatch(ctx context.Context, n Notifier, recipients []uint, req NotifyRequest) int {
	if n == nil || len(recipients) == 0 {
		return 0
	}
	created, err := n.NotifyMany(ctx, recipients, req)
	if err != nil {
		log.Warnf("notification dispatch %q: %d of %d delivered: %v", req.Title, len(created), len(uniqueIDs(recipients)), err)
	}
	return len(created)
}

// uniqueIDs drops zero and repeated IDs, keeping first-seen order
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
