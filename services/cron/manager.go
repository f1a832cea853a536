package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Locker serializes a job across replicas. TryLock returns ok=false when another holder has it.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// Result is what a job reports back for its log entry
type Result struct {
	Message  string
	Metadata map[string]interface{}
}

// Job is a named scheduled task
type Job struct {
	Name     string
	Schedule string // six-field spec, seconds first
	Timeout  time.Duration
	Run      func(ctx context.Context) (Result, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	locker Locker
	jobs   map[string]Job
	order  []string
	now    func() time.Time
}

// NewCronManager creates a new cron manager. locker may be nil for a single replica.
func NewCronManager(db *gorm.DB, locker Locker) *CronManager {
	return &CronManager{
		cron:   cron.New(cron.WithSeconds()),
		db:     db,
		locker: locker,
		jobs:   make(map[string]Job),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a job. It must be called before Start.
func (m *CronManager) Register(job Job) error {
	if _, dup := m.jobs[job.Name]; dup {
		return fmt.Errorf("cron job %q registered twice", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = 10 * time.Minute
	}
	if _, err := m.cron.AddFunc(job.Schedule, func() { _ = m.RunJob(context.Background(), job.Name) }); err != nil {
		return fmt.Errorf("cron job %q: %w", job.Name, err)
	}
	m.jobs[job.Name] = job
	m.order = append(m.order, job.Name)
	return nil
}

// Jobs returns the registered job names in registration order
func (m *CronManager) Jobs() []string {
	return append([]string(nil), m.order...)
}

// Start starts the scheduler
func (m *CronManager) Start() {
	log.Infof("Starting %d cron jobs", len(m.jobs))
	m.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

// RunJob runs a registered job now and records it in cron_job_logs
func (m *CronManager) RunJob(ctx context.Context, name string) error {
	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("unknown cron job %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	if m.locker != nil {
		release, ok, err := m.locker.TryLock(ctx, "cron:"+name, job.Timeout)
		if err != nil {
			log.Warnf("[CRON] %s: lock unavailable, running without it: %v", name, err)
		} else if !ok {
			m.record(name, model.CronStatusSkipped, m.now(), "held by another instance")
			return nil
		} else {
			defer release()
		}
	}

	started := m.now()
	entry := model.CronJobLog{JobName: name, Status: model.CronStatusRunning, StartedAt: started}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Errorf("[CRON] %s: failed to write log entry: %v", name, err)
	}
	log.Infof("[CRON] Starting job: %s", name)

	res, err := job.Run(ctx)
	status := model.CronStatusCompleted
	if err != nil {
		status = model.CronStatusFailed
		log.Errorf("[CRON] Error in job: %s - %v", name, err)
	} else {
		log.Infof("[CRON] Completed job: %s - %s", name, res.Message)
	}

	if entry.ID == 0 {
		return err
	}
	finished := m.now()
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": finished,
		"duration":     finished.Sub(started).Milliseconds(),
		"message":      res.Message,
	}
	if err != nil {
		updates["error_msg"] = err.Error()
	}
	if meta := encodeMetadata(res.Metadata); meta != nil {
		updates["metadata"] = meta
	}
	if uerr := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; uerr != nil {
		log.Errorf("[CRON] %s: failed to update log entry: %v", name, uerr)
	}
	return err
}

func (m *CronManager) record(name, status string, at time.Time, message string) {
	entry := model.CronJobLog{
		JobName:     name,
		Status:      status,
		StartedAt:   at,
		CompletedAt: &at,
		Message:     message,
	}
	if cerr := m.db.Create(&entry).Error; cerr != nil {
		log.Errorf("[CRON] %s: failed to write log entry: %v", name, cerr)
	}
}

func encodeMetadata(meta map[string]interface{}) datatypes.JSON {
	if len(meta) == 0 {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// ListLogs returns the most recent log entries, optionally for one job
func ListLogs(ctx context.Context, db *gorm.DB, jobName string, limit int) ([]model.CronJobLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := db.WithContext(ctx).Model(&model.CronJobLog{})
	if jobName != "" {
		query = query.Where("job_name = ?", jobName)
	}
	var logs []model.CronJobLog
	err := query.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
