package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by a service unwraps to exactly one of these.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthenticated  = errors.New("authentication failed")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DomainError is a user-safe failure with a stable code
type DomainError struct {
	Kind    error
	Code    string
	Message string
}

func (e *DomainError) Error() string { return e.Message }
func (e *DomainError) Unwrap() error { return e.Kind }

func newError(kind error, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Validationf builds a validation error with a formatted message
func Validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, "VALIDATION_ERROR", fmt.Sprintf(format, args...))
}

// Identity
var (
	ErrEmailTaken         = newError(ErrConflict, "EMAIL_TAKEN", "A user with this email already exists")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrUserNotFound       = newError(ErrNotFound, "USER_NOT_FOUND", "User not found")
	ErrRoleNotAllowed     = newError(ErrForbidden, "ROLE_NOT_ALLOWED", "This role cannot be chosen at registration")
	ErrIdentifierTaken    = newError(ErrConflict, "IDENTIFIER_TAKEN", "Student or employee ID is already in use")
)

// Courses and enrollment
var (
	ErrCourseNotFound    = newError(ErrNotFound, "COURSE_NOT_FOUND", "Course not found")
	ErrCourseCodeTaken   = newError(ErrConflict, "COURSE_CODE_TAKEN", "A course with this code already exists")
	ErrCourseInactive    = newError(ErrConflict, "COURSE_INACTIVE", "Course is not open for enrollment")
	ErrAlreadyEnrolled   = newError(ErrConflict, "ALREADY_ENROLLED", "Student is already enrolled in this course")
	ErrCourseFull        = newError(ErrConflict, "COURSE_FULL", "Course has reached its maximum capacity")
	ErrNotEnrolled       = newError(ErrConflict, "NOT_ENROLLED", "Student is not enrolled in this course")
	ErrCapacityTooLow    = newError(ErrConflict, "CAPACITY_BELOW_ENROLLMENT", "Maximum students cannot be lower than current enrollment")
	ErrNotCourseOwner    = newError(ErrForbidden, "NOT_COURSE_OWNER", "Only the course instructor or an admin can do this")
	ErrInstructorInvalid = newError(ErrValidation, "INVALID_INSTRUCTOR", "Instructor must be an existing faculty member")
)

// Assignments and submissions
var (
	ErrAssignmentNotFound = newError(ErrNotFound, "ASSIGNMENT_NOT_FOUND", "Assignment not found")
	ErrSubmissionNotFound = newError(ErrNotFound, "SUBMISSION_NOT_FOUND", "Submission not found")
	ErrAlreadySubmitted   = newError(ErrConflict, "ALREADY_SUBMITTED", "You have already submitted this assignment")
	ErrGradeOutOfRange    = newError(ErrValidation, "GRADE_OUT_OF_RANGE", "Grade must be between 0 and the assignment's maximum points")
	ErrMaxPointsBelow     = newError(ErrConflict, "MAX_POINTS_BELOW_GRADE", "Maximum points cannot be lower than a grade already given")
	ErrAttachmentsOff     = newError(ErrValidation, "ATTACHMENTS_DISABLED", "File attachments are not enabled on this server")
	ErrNoAttachment       = newError(ErrNotFound, "NO_ATTACHMENT", "This submission has no attached file")
	ErrNotInCourse        = newError(ErrForbidden, "NOT_IN_COURSE", "You are not enrolled in this assignment's course")
	ErrNotAssignmentOwner = newError(ErrForbidden, "NOT_ASSIGNMENT_OWNER", "Only the assignment creator, course instructor or an admin can do this")
)

// Events
var (
	ErrEventNotFound = newError(ErrNotFound, "EVENT_NOT_FOUND", "Event not found")
	ErrNotOrganizer  = newError(ErrForbidden, "NOT_ORGANIZER", "Only the organizer or an admin can do this")
)

// Notifications
var (
	ErrNotificationNotFound = newError(ErrNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
	ErrNotRecipient         = newError(ErrForbidden, "NOT_RECIPIENT", "You can only manage your own notifications")
)

// Attendance and placements
var (
	ErrAttendanceExists   = newError(ErrConflict, "ATTENDANCE_EXISTS", "Attendance for this course and date has already been marked")
	ErrStudentNotInCourse = newError(ErrValidation, "STUDENT_NOT_IN_COURSE", "Attendance can only be marked for enrolled students")
	ErrPlacementNotFound  = newError(ErrNotFound, "PLACEMENT_NOT_FOUND", "Placement not found")
)

// storeError maps a GORM error to the taxonomy. A missing record becomes notFound; anything else
// that is not already a domain error becomes ErrStoreUnavailable.
func storeError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// KindOf returns the taxonomy kind of err, or nil if it has none
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict, ErrStoreUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// duplicateError is storeError for inserts and updates guarded by a unique index: a duplicate key
// becomes conflict.
func duplicateError(op string, err error, conflict error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict
	}
	return storeError(op, err, nil)
}
