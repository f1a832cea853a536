package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/gorm"
)

// AttendanceService records class attendance
type AttendanceService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(db *gorm.DB, notifier Notifier) *AttendanceService {
	return &AttendanceService{db: db, notifier: notifier, now: utcNow}
}

// AttendanceMark is one student's status in a MarkAttendanceInput
type AttendanceMark struct {
	StudentID uint
	Status    model.AttendanceStatus
	Remark    string
}

// MarkAttendanceInput records a session. A zero Date means today (UTC).
type MarkAttendanceInput struct {
	CourseID uint
	Date     time.Time
	Records  []AttendanceMark
}

// Mark records one session for a course on a UTC day. Every record must name an enrolled student,
// and absent students are notified.
func (s *AttendanceService) Mark(ctx context.Context, actor Actor, in MarkAttendanceInput) (*model.AttendanceSession, error) {
	if len(in.Records) == 0 {
		return nil, Validationf("at least one attendance record is required")
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, in.CourseID).Error; err != nil {
		return nil, storeError("load course", err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, &course) {
		return nil, ErrNotCourseOwner
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	session := model.AttendanceSession{
		CourseID:   course.ID,
		Date:       model.SessionDate(date),
		MarkedByID: actor.ID,
	}

	seen := make(map[uint]struct{}, len(in.Records))
	for _, r := range in.Records {
		if !r.Status.Valid() {
			return nil, Validationf("status %q is not a valid attendance status", r.Status)
		}
		if _, dup := seen[r.StudentID]; dup {
			return nil, Validationf("student %d is listed more than once", r.StudentID)
		}
		seen[r.StudentID] = struct{}{}
		session.Records = append(session.Records, model.AttendanceRecord{
			StudentID: r.StudentID,
			Status:    r.Status,
			Remark:    r.Remark,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.AttendanceSession{}).
			Where("course_id = ? AND date = ?", session.CourseID, session.Date).
			Count(&existing).Error; err != nil {
			return storeError("check attendance session", err, nil)
		}
		if existing > 0 {
			return ErrAttendanceExists
		}

		enrolled, err := enrolledStudentIDs(tx, course.ID)
		if err != nil {
			return err
		}
		members := make(map[uint]struct{}, len(enrolled))
		for _, id := range enrolled {
			members[id] = struct{}{}
		}
		for _, r := range session.Records {
			if _, ok := members[r.StudentID]; !ok {
				return ErrStudentNotInCourse
			}
		}

		if err := tx.Create(&session).Error; err != nil {
			return duplicateError("create attendance session", err, ErrAttendanceExists)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var absent []uint
	for _, r := range session.Records {
		if r.Status == model.AttendanceAbsent {
			absent = append(absent, r.StudentID)
		}
	}
	dispatch(ctx, s.notifier, absent, NotifyRequest{
		Title:    "Marked absent in " + course.Code,
		Message:  fmt.Sprintf("You were marked absent in %s on %s.", course.Title, session.Date.Format("Jan 2, 2006")),
		Type:     model.NotificationTypeAttendance,
		Related:  model.CourseRef(course.ID),
		Metadata: map[string]interface{}{"session_id": session.ID, "date": session.Date.Format("2006-01-02")},
	})

	session.Course = &course
	return &session, nil
}

// ListForCourse returns a course's sessions with their records, newest first
func (s *AttendanceService) ListForCourse(ctx context.Context, actor Actor, courseID uint) ([]model.AttendanceSession, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, storeError("load course", err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, &course) {
		return nil, ErrNotCourseOwner
	}

	var sessions []model.AttendanceSession
	err := s.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("student_id ASC") }).
		Preload("Records.Student").
		Where("course_id = ?", courseID).
		Order("date DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, storeError("list attendance", err, nil)
	}
	return sessions, nil
}

// StudentSummary returns the student's attendance per enrolled course. Courses without sessions
// report zero percent.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID uint) ([]model.AttendanceSummary, error) {
	return attendanceSummary(s.db.WithContext(ctx), studentID)
}

func attendanceSummary(db *gorm.DB, studentID uint) ([]model.AttendanceSummary, error) {
	var courses []model.Course
	err := db.Joins("JOIN course_enrollments ce ON ce.course_id = courses.id").
		Where("ce.student_id = ?", studentID).
		Find(&courses).Error
	if err != nil {
		return nil, storeError("list enrolled courses", err, nil)
	}

	summaries := make(map[uint]*model.AttendanceSummary, len(courses))
	for _, c := range courses {
		summaries[c.ID] = &model.AttendanceSummary{CourseID: c.ID, CourseCode: c.Code, CourseName: c.Title}
	}

	var rows []struct {
		CourseID uint
		Status   model.AttendanceStatus
	}
	err = db.Model(&model.AttendanceRecord{}).
		Select("attendance_sessions.course_id, attendance_records.status").
		Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
		Where("attendance_records.student_id = ?", studentID).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("list attendance records", err, nil)
	}
	for _, r := range rows {
		// records of courses the student has since left are ignored
		if sum, ok := summaries[r.CourseID]; ok {
			sum.Tally(r.Status)
		}
	}

	out := make([]model.AttendanceSummary, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseCode < out[j].CourseCode })
	return out, nil
}
