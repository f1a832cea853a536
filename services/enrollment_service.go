package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentService manages the student-course relationship under the capacity bound
type EnrollmentService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

// NewEnrollmentService creates a new enrollment service. notifier may be nil.
func NewEnrollmentService(db *gorm.DB, notifier Notifier) *EnrollmentService {
	return &EnrollmentService{db: db, notifier: notifier, now: utcNow}
}

// ListAvailable returns active courses of department that still have seats and that
// studentID is not enrolled in. An empty department means the student's own.
func (s *EnrollmentService) ListAvailable(ctx context.Context, department string, studentID uint) ([]model.Course, error) {
	if department == "" {
		var student model.User
		if err := s.db.WithContext(ctx).Select("id", "department").First(&student, studentID).Error; err != nil {
			return nil, storeError("load student", err, ErrUserNotFound)
		}
		department = student.Department
	}

	var courses []model.Course
	err := s.db.WithContext(ctx).
		Preload("Instructor").
		Where("department = ? AND is_active = ? AND enrolled_count < max_students", department, true).
		Where("id NOT IN (?)", s.db.Model(&model.CourseEnrollment{}).Select("course_id").Where("student_id = ?", studentID)).
		Order("code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, storeError("list available courses", err, nil)
	}
	return courses, nil
}

// ListEnrolled returns the courses studentID is enrolled in
func (s *EnrollmentService) ListEnrolled(ctx context.Context, studentID uint) ([]model.Course, error) {
	var courses []model.Course
	err := s.db.WithContext(ctx).
		Preload("Instructor").
		Joins("JOIN course_enrollments ce ON ce.course_id = courses.id").
		Where("ce.student_id = ?", studentID).
		Order("courses.code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, storeError("list enrolled courses", err, nil)
	}
	return courses, nil
}

// ListStudents returns the students enrolled in courseID
func (s *EnrollmentService) ListStudents(ctx context.Context, courseID uint) ([]model.User, error) {
	var students []model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN course_enrollments ce ON ce.student_id = users.id").
		Where("ce.course_id = ?", courseID).
		Order("users.name ASC").
		Find(&students).Error
	if err != nil {
		return nil, storeError("list course students", err, nil)
	}
	return students, nil
}

// IsEnrolled reports whether studentID is enrolled in courseID
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	return isEnrolled(s.db.WithContext(ctx), studentID, courseID)
}

func isEnrolled(db *gorm.DB, studentID, courseID uint) (bool, error) {
	var count int64
	err := db.Model(&model.CourseEnrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, storeError("check enrollment", err, nil)
	}
	return count > 0, nil
}

// Enroll adds studentID to courseID. The seat is taken with a single conditional update,
// so concurrent calls can never push enrolled_count past max_students.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uint) (*model.CourseEnrollment, error) {
	var course model.Course
	enrollment := model.CourseEnrollment{
		CourseID:   courseID,
		StudentID:  studentID,
		EnrolledAt: s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&course, courseID).Error; err != nil {
			return storeError("load course", err, ErrCourseNotFound)
		}
		if !course.IsActive {
			return ErrCourseInactive
		}

		enrolled, err := isEnrolled(tx, studentID, courseID)
		if err != nil {
			return err
		}
		if enrolled {
			return ErrAlreadyEnrolled
		}

		res := tx.Model(&model.Course{}).
			Where("id = ? AND enrolled_count < max_students", courseID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + ?", 1))
		if res.Error != nil {
			return storeError("reserve seat", res.Error, nil)
		}
		if res.RowsAffected == 0 {
			return ErrCourseFull
		}

		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
		if res.Error != nil {
			return storeError("create enrollment", res.Error, nil)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyEnrolled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	course.EnrolledCount++
	enrollment.Course = &course

	dispatch(ctx, s.notifier, []uint{studentID}, NotifyRequest{
		Title:   "Enrollment confirmed",
		Message: fmt.Sprintf("You are now enrolled in %s: %s.", course.Code, course.Title),
		Type:    model.NotificationTypeEnrollment,
		Related: model.CourseRef(course.ID),
	})

	return &enrollment, nil
}

// Unenroll removes studentID from courseID and frees the seat
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, courseID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&course, courseID).Error; err != nil {
			return storeError("load course", err, ErrCourseNotFound)
		}

		res := tx.Where("course_id = ? AND student_id = ?", courseID, studentID).
			Delete(&model.CourseEnrollment{})
		if res.Error != nil {
			return storeError("delete enrollment", res.Error, nil)
		}
		if res.RowsAffected == 0 {
			return ErrNotEnrolled
		}

		err := tx.Model(&model.Course{}).
			Where("id = ? AND enrolled_count > 0", courseID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count - ?", 1)).Error
		return storeError("release seat", err, nil)
	})
}
