package cron

import (
	"context"
	"fmt"
	"time"
)

// Job names
const (
	JobDueReminders       = "assignment_due_reminders"
	JobCleanupNotifs      = "cleanup_read_notifications"
	JobCleanupRevokedJWTs = "cleanup_revoked_tokens"
)

// ReminderSender sends reminders for assignments due within a window
type ReminderSender interface {
	SendDueReminders(ctx context.Context, window time.Duration) (assignments int, notifications int, err error)
}

// NotificationCleaner deletes read notifications older than a cutoff
type NotificationCleaner interface {
	CleanupRead(ctx context.Context, olderThan time.Time) (int64, error)
}

// TokenCleaner deletes expired blacklist rows
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Dependencies are the services the default jobs call into
type Dependencies struct {
	Reminders      ReminderSender
	Notifications  NotificationCleaner
	Tokens         TokenCleaner
	RetentionDays  int
	ReminderWindow time.Duration
}

// RegisterDefaultJobs registers the portal's scheduled jobs
func (m *CronManager) RegisterDefaultJobs(deps Dependencies) error {
	if deps.ReminderWindow <= 0 {
		deps.ReminderWindow = 24 * time.Hour
	}
	if deps.RetentionDays <= 0 {
		deps.RetentionDays = 30
	}

	jobs := []Job{
		{
			// hourly
			Name:     JobDueReminders,
			Schedule: "0 0 * * * *",
			Timeout:  10 * time.Minute,
			Run: func(ctx context.Context) (Result, error) {
				assignments, sent, err := deps.Reminders.SendDueReminders(ctx, deps.ReminderWindow)
				return Result{
					Message:  fmt.Sprintf("Reminded %d students about %d assignments", sent, assignments),
					Metadata: map[string]interface{}{"assignments": assignments, "notifications": sent},
				}, err
			},
		},
		{
			// daily at 3 AM
			Name:     JobCleanupNotifs,
			Schedule: "0 0 3 * * *",
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) (Result, error) {
				cutoff := m.now().AddDate(0, 0, -deps.RetentionDays)
				n, err := deps.Notifications.CleanupRead(ctx, cutoff)
				return Result{
					Message:  fmt.Sprintf("Deleted %d read notifications older than %d days", n, deps.RetentionDays),
					Metadata: map[string]interface{}{"deleted": n, "cutoff": cutoff},
				}, err
			},
		},
		{
			// daily at 3:30 AM
			Name:     JobCleanupRevokedJWTs,
			Schedule: "0 30 3 * * *",
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) (Result, error) {
				n, err := deps.Tokens.CleanupExpiredTokens(ctx)
				return Result{
					Message:  fmt.Sprintf("Deleted %d expired revoked tokens", n),
					Metadata: map[string]interface{}{"deleted": n},
				}, err
			},
		},
	}

	for _, job := range jobs {
		if err := m.Register(job); err != nil {
			return err
		}
	}
	return nil
}
