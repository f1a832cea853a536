package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services/storage"
	"github.com/sahilchouksey/smart-campus-api/utils/pdfvalidation"
	"github.com/sahilchouksey/smart-campus-api/utils/validation"
	"gorm.io/gorm"
)

const (
	defaultMaxPoints  = 100
	excerptLength     = 140
	attachmentLinkTTL = 15 * time.Minute
)

// AssignmentService handles assignments, submissions and grading
type AssignmentService struct {
	db       *gorm.DB
	notifier Notifier
	store    storage.ObjectStore
	now      func() time.Time
}

// NewAssignmentService creates a new assignment service. store may be nil, in which case
// attachments are rejected.
func NewAssignmentService(db *gorm.DB, notifier Notifier, store storage.ObjectStore) *AssignmentService {
	return &AssignmentService{db: db, notifier: notifier, store: store, now: utcNow}
}

// AssignmentInput is the writable part of an assignment. Nil pointers are left unchanged on update.
type AssignmentInput struct {
	CourseID    *uint
	Title       *string
	Description *string
	DueDate     *time.Time
	MaxPoints   *int
}

// AssignmentItem is an assignment as seen by one caller. Students get Status and their own
// submission; staff get the submission counts.
type AssignmentItem struct {
	model.Assignment
	Status          model.AssignmentStatus `json:"status,omitempty"`
	MySubmission    *model.Submission      `json:"my_submission,omitempty"`
	SubmissionCount int64                  `json:"submission_count"`
	GradedCount     int64                  `json:"graded_count"`
}

// Attachment is an uploaded file
type Attachment struct {
	Filename string
	Data     []byte
}

// SubmitInput is a student's submission
type SubmitInput struct {
	Content string
	File    *Attachment
}

// GradeInput grades one submission
type GradeInput struct {
	Grade    float64
	Feedback string
}

// List returns the assignments visible to actor, soonest due first
func (s *AssignmentService) List(ctx context.Context, actor Actor, courseID uint) ([]AssignmentItem, error) {
	switch actor.Role {
	case model.RoleStudent:
		return s.forStudent(ctx, actor.ID, courseID)
	case model.RoleFaculty:
		query := s.db.WithContext(ctx).
			Where("created_by_id = ? OR course_id IN (?)", actor.ID,
				s.db.Model(&model.Course{}).Select("id").Where("instructor_id = ?", actor.ID))
		return s.forStaff(ctx, query, courseID)
	case model.RoleAdmin:
		return s.forStaff(ctx, s.db.WithContext(ctx), courseID)
	}
	return nil, ErrForbidden
}

func (s *AssignmentService) forStudent(ctx context.Context, studentID, courseID uint) ([]AssignmentItem, error) {
	query := s.db.WithContext(ctx).Preload("Course").
		Where("course_id IN (?)", s.db.Model(&model.CourseEnrollment{}).Select("course_id").Where("student_id = ?", studentID))
	if courseID != 0 {
		query = query.Where("course_id = ?", courseID)
	}

	var assignments []model.Assignment
	if err := query.Order("due_date ASC").Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, storeError("list assignments", err, nil)
	}
	if len(assignments) == 0 {
		return []AssignmentItem{}, nil
	}

	var subs []model.Submission
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id IN ?", studentID, assignmentIDs(assignments)).
		Find(&subs).Error
	if err != nil {
		return nil, storeError("list submissions", err, nil)
	}
	byAssignment := make(map[uint]*model.Submission, len(subs))
	for i := range subs {
		byAssignment[subs[i].AssignmentID] = &subs[i]
	}

	now := s.now()
	items := make([]AssignmentItem, 0, len(assignments))
	for _, a := range assignments {
		sub := byAssignment[a.ID]
		items = append(items, AssignmentItem{
			Assignment:   a,
			Status:       model.ClassifyAssignment(sub, a.DueDate, now),
			MySubmission: sub,
		})
	}
	return items, nil
}

func (s *AssignmentService) forStaff(ctx context.Context, query *gorm.DB, courseID uint) ([]AssignmentItem, error) {
	if courseID != 0 {
		query = query.Where("course_id = ?", courseID)
	}
	var assignments []model.Assignment
	if err := query.Preload("Course").Order("due_date ASC").Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, storeError("list assignments", err, nil)
	}
	if len(assignments) == 0 {
		return []AssignmentItem{}, nil
	}

	counts, err := s.submissionCounts(ctx, assignmentIDs(assignments))
	if err != nil {
		return nil, err
	}
	items := make([]AssignmentItem, 0, len(assignments))
	for _, a := range assignments {
		c := counts[a.ID]
		items = append(items, AssignmentItem{Assignment: a, SubmissionCount: c.Submissions, GradedCount: c.Graded})
	}
	return items, nil
}

type submissionCount struct {
	AssignmentID uint
	Submissions  int64
	Graded       int64
}

func (s *AssignmentService) submissionCounts(ctx context.Context, ids []uint) (map[uint]submissionCount, error) {
	var rows []submissionCount
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Select("assignment_id, COUNT(*) AS submissions, COUNT(grade) AS graded").
		Where("assignment_id IN ?", ids).
		Group("assignment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("count submissions", err, nil)
	}
	out := make(map[uint]submissionCount, len(rows))
	for _, r := range rows {
		out[r.AssignmentID] = r
	}
	return out, nil
}

// Get returns one assignment. Students must be enrolled and only see their own submission;
// staff who manage the course see every submission.
func (s *AssignmentService) Get(ctx context.Context, actor Actor, id uint) (*AssignmentItem, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.IsStudent() {
		enrolled, err := isEnrolled(s.db.WithContext(ctx), actor.ID, a.CourseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, ErrNotInCourse
		}
		var sub model.Submission
		err = s.db.WithContext(ctx).Where("assignment_id = ? AND student_id = ?", a.ID, actor.ID).First(&sub).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return &AssignmentItem{Assignment: *a, Status: model.ClassifyAssignment(nil, a.DueDate, s.now())}, nil
		case err != nil:
			return nil, storeError("load submission", err, nil)
		}
		return &AssignmentItem{Assignment: *a, Status: model.ClassifyAssignment(&sub, a.DueDate, s.now()), MySubmission: &sub}, nil
	}

	if !canManageAssignment(actor, a) {
		return nil, ErrNotAssignmentOwner
	}
	if err := s.db.WithContext(ctx).Preload("Student").Where("assignment_id = ?", a.ID).
		Order("submitted_at ASC").Find(&a.Submissions).Error; err != nil {
		return nil, storeError("list submissions", err, nil)
	}
	item := AssignmentItem{Assignment: *a, SubmissionCount: int64(len(a.Submissions))}
	for i := range a.Submissions {
		if a.Submissions[i].IsGraded() {
			item.GradedCount++
		}
	}
	return &item, nil
}

// Create adds an assignment to a course and notifies its enrolled students
func (s *AssignmentService) Create(ctx context.Context, actor Actor, in AssignmentInput) (*model.Assignment, error) {
	if in.CourseID == nil || in.Title == nil || in.DueDate == nil {
		return nil, Validationf("course_id, title and due_date are required")
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, *in.CourseID).Error; err != nil {
		return nil, storeError("load course", err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, &course) {
		return nil, ErrNotCourseOwner
	}

	a := model.Assignment{
		CourseID:    course.ID,
		CreatedByID: actor.ID,
		MaxPoints:   defaultMaxPoints,
	}
	applyAssignmentInput(&a, in)
	if err := validateAssignment(&a); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, storeError("create assignment", err, nil)
	}
	a.Course = &course

	students, err := s.enrolledStudentIDs(ctx, course.ID)
	if err != nil {
		log.Warnf("assignment %d created but enrolled students could not be loaded: %v", a.ID, err)
		return &a, nil
	}
	message := fmt.Sprintf("%s: due %s.", course.Code, a.DueDate.UTC().Format("Jan 2, 2006 15:04 MST"))
	if excerpt := validation.PlainText(a.Description, excerptLength); excerpt != "" {
		message += " " + excerpt
	}
	dispatch(ctx, s.notifier, students, NotifyRequest{
		Title:    "New assignment: " + a.Title,
		Message:  message,
		Type:     model.NotificationTypeAssignment,
		Related:  model.AssignmentRef(a.ID),
		Metadata: map[string]interface{}{"course_id": course.ID, "due_date": a.DueDate},
	})
	return &a, nil
}

// Update edits an assignment. Moving the due date re-arms the reminder.
func (s *AssignmentService) Update(ctx context.Context, actor Actor, id uint, in AssignmentInput) (*model.Assignment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageAssignment(actor, a) {
		return nil, ErrNotAssignmentOwner
	}
	if in.CourseID != nil && *in.CourseID != a.CourseID {
		return nil, Validationf("an assignment cannot be moved to another course")
	}

	oldDue := a.DueDate
	applyAssignmentInput(a, in)
	if err := validateAssignment(a); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       a.Title,
		"description": a.Description,
		"due_date":    a.DueDate,
		"max_points":  a.MaxPoints,
	}
	if !a.DueDate.Equal(oldDue) {
		updates["reminder_sent_at"] = nil
	}
	// Grades already given must stay within max_points, so the check is part of the write
	res := s.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM submissions WHERE submissions.assignment_id = ? AND submissions.grade > ?)",
			a.ID, a.ID, a.MaxPoints).
		Updates(updates)
	if res.Error != nil {
		return nil, storeError("update assignment", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrMaxPointsBelow
	}
	return s.load(ctx, id)
}

// Delete removes an assignment with its submissions and their attachments
func (s *AssignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canManageAssignment(actor, a) {
		return ErrNotAssignmentOwner
	}

	var keys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Submission{}).Where("assignment_id = ? AND attachment_key <> ''", id).
			Pluck("attachment_key", &keys).Error; err != nil {
			return storeError("list attachments", err, nil)
		}
		if err := tx.Where("assignment_id = ?", id).Delete(&model.Submission{}).Error; err != nil {
			return storeError("delete submissions", err, nil)
		}
		if err := tx.Delete(&model.Assignment{}, id).Error; err != nil {
			return storeError("delete assignment", err, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeAttachments(ctx, keys)
	return nil
}

// Submit records a student's single submission. Late submissions are accepted and flagged.
func (s *AssignmentService) Submit(ctx context.Context, studentID, assignmentID uint, in SubmitInput) (*model.Submission, error) {
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	enrolled, err := isEnrolled(s.db.WithContext(ctx), studentID, a.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotInCourse
	}
	if exists, err := s.hasSubmitted(ctx, studentID, assignmentID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadySubmitted
	}

	content := strings.TrimSpace(in.Content)
	if content == "" && in.File == nil {
		return nil, Validationf("a submission needs content or a file")
	}

	now := s.now()
	sub := model.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      content,
		SubmittedAt:  now,
		IsLate:       now.After(a.DueDate),
	}

	if in.File != nil {
		if s.store == nil {
			return nil, ErrAttachmentsOff
		}
		if res := pdfvalidation.Validate(in.File.Data, pdfvalidation.SubmissionLimits); !res.Valid {
			return nil, Validationf("%s", res.Reason)
		}
		sub.AttachmentKey = storage.SubmissionKey(assignmentID, studentID, in.File.Filename)
		url, err := s.store.Put(ctx, sub.AttachmentKey, in.File.Data, "application/pdf")
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w: %w", ErrStoreUnavailable, err)
		}
		sub.AttachmentURL = url
	}

	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		s.removeAttachments(ctx, []string{sub.AttachmentKey})
		// a concurrent submit may have won the unique index
		if exists, checkErr := s.hasSubmitted(ctx, studentID, assignmentID); checkErr == nil && exists {
			return nil, ErrAlreadySubmitted
		}
		return nil, storeError("create submission", err, nil)
	}
	return &sub, nil
}

// ListSubmissions returns every submission of an assignment to its course staff
func (s *AssignmentService) ListSubmissions(ctx context.Context, actor Actor, assignmentID uint) ([]model.Submission, error) {
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canManageAssignment(actor, a) {
		return nil, ErrNotAssignmentOwner
	}

	var subs []model.Submission
	if err := s.db.WithContext(ctx).Preload("Student").Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").Find(&subs).Error; err != nil {
		return nil, storeError("list submissions", err, nil)
	}
	return subs, nil
}

// AttachmentURL returns a short-lived download link for a submission's file. The submitting
// student and the assignment's staff may fetch it.
func (s *AssignmentService) AttachmentURL(ctx context.Context, actor Actor, assignmentID, submissionID uint) (string, error) {
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return "", err
	}

	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ? AND assignment_id = ?", submissionID, assignmentID).First(&sub).Error; err != nil {
		return "", storeError("load submission", err, ErrSubmissionNotFound)
	}
	if sub.StudentID != actor.ID && !canManageAssignment(actor, a) {
		return "", ErrNotAssignmentOwner
	}
	if sub.AttachmentKey == "" {
		return "", ErrNoAttachment
	}
	if s.store == nil {
		return "", ErrAttachmentsOff
	}

	url, err := s.store.PresignGet(sub.AttachmentKey, attachmentLinkTTL)
	if err != nil {
		return "", fmt.Errorf("presign attachment: %w: %w", ErrStoreUnavailable, err)
	}
	return url, nil
}

// Grade records a grade in [0, max_points] and notifies the student
func (s *AssignmentService) Grade(ctx context.Context, actor Actor, assignmentID, submissionID uint, in GradeInput) (*model.Submission, error) {
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canManageAssignment(actor, a) {
		return nil, ErrNotAssignmentOwner
	}
	if in.Grade < 0 || in.Grade > float64(a.MaxPoints) {
		return nil, ErrGradeOutOfRange
	}

	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ? AND assignment_id = ?", submissionID, assignmentID).First(&sub).Error; err != nil {
		return nil, storeError("load submission", err, ErrSubmissionNotFound)
	}

	now := s.now()
	grade := in.Grade
	graderID := actor.ID
	// max_points is re-read in the write so a concurrent re-cap cannot leave the grade above it
	res := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND EXISTS (SELECT 1 FROM assignments WHERE assignments.id = ? AND assignments.max_points >= ?)",
			sub.ID, assignmentID, grade).
		Updates(map[string]interface{}{
			"grade":        grade,
			"feedback":     strings.TrimSpace(in.Feedback),
			"graded_at":    now,
			"graded_by_id": graderID,
		})
	if res.Error != nil {
		return nil, storeError("grade submission", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGradeOutOfRange
	}
	sub.Grade = &grade
	sub.Feedback = strings.TrimSpace(in.Feedback)
	sub.GradedAt = &now
	sub.GradedByID = &graderID

	dispatch(ctx, s.notifier, []uint{sub.StudentID}, NotifyRequest{
		Title:    "Assignment graded: " + a.Title,
		Message:  fmt.Sprintf("You scored %s out of %d.", formatMarks(grade), a.MaxPoints),
		Type:     model.NotificationTypeGrade,
		Related:  model.AssignmentRef(a.ID),
		Metadata: map[string]interface{}{"marks": grade, "total_marks": a.MaxPoints},
	})
	return &sub, nil
}

// Grades derives a student's grade list from their graded submissions, most recent first
func (s *AssignmentService) Grades(ctx context.Context, studentID uint) ([]model.GradeEntry, error) {
	return gradesOf(s.db.WithContext(ctx), studentID)
}

func gradesOf(db *gorm.DB, studentID uint) ([]model.GradeEntry, error) {
	var subs []model.Submission
	err := db.Preload("Assignment.Course").
		Where("student_id = ? AND grade IS NOT NULL", studentID).
		Order("graded_at DESC").Order("id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, storeError("list grades", err, nil)
	}

	grades := make([]model.GradeEntry, 0, len(subs))
	for i := range subs {
		if subs[i].Assignment == nil {
			continue
		}
		if g, ok := model.NewGradeEntry(subs[i].Assignment, &subs[i]); ok {
			grades = append(grades, g)
		}
	}
	return grades, nil
}

// SendDueReminders reminds enrolled students who have not submitted about assignments due within
// window. Each assignment is reminded at most once; it returns the assignments and notifications sent.
func (s *AssignmentService) SendDueReminders(ctx context.Context, window time.Duration) (int, int, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	var due []model.Assignment
	err := db.Preload("Course").
		Where("reminder_sent_at IS NULL AND due_date > ? AND due_date <= ?", now, now.Add(window)).
		Order("due_date ASC").
		Find(&due).Error
	if err != nil {
		return 0, 0, storeError("list due assignments", err, nil)
	}

	reminded, notified := 0, 0
	for _, a := range due {
		// claim the assignment first so a concurrent run cannot send it again
		res := db.Model(&model.Assignment{}).
			Where("id = ? AND reminder_sent_at IS NULL", a.ID).
			Update("reminder_sent_at", now)
		if res.Error != nil {
			return reminded, notified, storeError("claim reminder", res.Error, nil)
		}
		if res.RowsAffected == 0 {
			continue
		}

		var pending []uint
		err := db.Model(&model.CourseEnrollment{}).
			Where("course_id = ?", a.CourseID).
			Where("student_id NOT IN (?)", s.db.Model(&model.Submission{}).Select("student_id").Where("assignment_id = ?", a.ID)).
			Pluck("student_id", &pending).Error
		if err != nil {
			return reminded, notified, storeError("list pending students", err, nil)
		}

		code := ""
		if a.Course != nil {
			code = a.Course.Code + ": "
		}
		reminded++
		notified += dispatch(ctx, s.notifier, pending, NotifyRequest{
			Title:   "Assignment due soon: " + a.Title,
			Message: fmt.Sprintf("%s%s is due %s and you have not submitted yet.", code, a.Title, a.DueDate.UTC().Format("Jan 2, 2006 15:04 MST")),
			Type:    model.NotificationTypeReminder,
			Related: model.AssignmentRef(a.ID),
		})
	}
	return reminded, notified, nil
}

func (s *AssignmentService) load(ctx context.Context, id uint) (*model.Assignment, error) {
	var a model.Assignment
	if err := s.db.WithContext(ctx).Preload("Course").First(&a, id).Error; err != nil {
		return nil, storeError("load assignment", err, ErrAssignmentNotFound)
	}
	return &a, nil
}

func (s *AssignmentService) hasSubmitted(ctx context.Context, studentID, assignmentID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error
	if err != nil {
		return false, storeError("check submission", err, nil)
	}
	return count > 0, nil
}

func (s *AssignmentService) enrolledStudentIDs(ctx context.Context, courseID uint) ([]uint, error) {
	return enrolledStudentIDs(s.db.WithContext(ctx), courseID)
}

func enrolledStudentIDs(db *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	if err := db.Model(&model.CourseEnrollment{}).Where("course_id = ?", courseID).Pluck("student_id", &ids).Error; err != nil {
		return nil, storeError("list enrolled students", err, nil)
	}
	return ids, nil
}

func (s *AssignmentService) removeAttachments(ctx context.Context, keys []string) {
	if s.store == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warnf("failed to delete attachment %s: %v", key, err)
		}
	}
}

// canManageAssignment requires a preloaded Course
func canManageAssignment(actor Actor, a *model.Assignment) bool {
	if actor.IsAdmin() {
		return true
	}
	if !actor.IsFaculty() {
		return false
	}
	return a.CreatedByID == actor.ID || (a.Course != nil && a.Course.InstructorID == actor.ID)
}

func applyAssignmentInput(a *model.Assignment, in AssignmentInput) {
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.DueDate != nil {
		a.DueDate = in.DueDate.UTC()
	}
	if in.MaxPoints != nil {
		a.MaxPoints = *in.MaxPoints
	}
}

func validateAssignment(a *model.Assignment) error {
	switch {
	case a.Title == "":
		return Validationf("title is required")
	case a.DueDate.IsZero():
		return Validationf("due_date is required")
	case a.MaxPoints < 1:
		return Validationf("max_points must be at least 1")
	}
	return nil
}

func assignmentIDs(as []model.Assignment) []uint {
	ids := make([]uint, len(as))
	for i := range as {
		ids[i] = as[i].ID
	}
	return ids
}

func formatMarks(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
