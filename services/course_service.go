package services

import (
	"context"
	"strings"

	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID         uint
	Role       string
	Department string
}

// ActorOf builds an Actor from a user
func ActorOf(u *model.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Department: u.Department}
}

func (a Actor) IsAdmin() bool   { return a.Role == model.RoleAdmin }
func (a Actor) IsFaculty() bool { return a.Role == model.RoleFaculty }
func (a Actor) IsStudent() bool { return a.Role == model.RoleStudent }

// CourseService handles course catalog operations
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// CourseInput is the writable part of a course. Nil pointers are left unchanged on update.
type CourseInput struct {
	Code         *string
	Title        *string
	Description  *string
	Department   *string
	Credits      *int
	Semester     *string
	Year         *int
	MaxStudents  *int
	IsActive     *bool
	InstructorID *uint
}

// ListCoursesOptions filters List
type ListCoursesOptions struct {
	Department string
	ActiveOnly bool
}

// List returns the courses visible to actor: students see their enrollments,
// faculty the courses they teach, admins everything
func (s *CourseService) List(ctx context.Context, actor Actor, opts ListCoursesOptions) ([]model.Course, error) {
	query := s.db.WithContext(ctx).Model(&model.Course{}).Preload("Instructor")

	switch actor.Role {
	case model.RoleStudent:
		query = query.Where("id IN (?)", s.db.Model(&model.CourseEnrollment{}).Select("course_id").Where("student_id = ?", actor.ID))
	case model.RoleFaculty:
		query = query.Where("instructor_id = ?", actor.ID)
	case model.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	if opts.Department != "" {
		query = query.Where("department = ?", opts.Department)
	}
	if opts.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var courses []model.Course
	if err := query.Order("code ASC").Find(&courses).Error; err != nil {
		return nil, storeError("list courses", err, nil)
	}
	return courses, nil
}

// Get returns a course with its instructor
func (s *CourseService) Get(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).Preload("Instructor").First(&course, id).Error; err != nil {
		return nil, storeError("load course", err, ErrCourseNotFound)
	}
	return &course, nil
}

// Roster returns the students enrolled in a course the actor manages
func (s *CourseService) Roster(ctx context.Context, actor Actor, id uint) ([]model.User, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageCourse(actor, course) {
		return nil, ErrNotCourseOwner
	}
	return NewEnrollmentService(s.db, nil).ListStudents(ctx, id)
}

// Create adds a course. Faculty become its instructor; admins must name a faculty instructor.
func (s *CourseService) Create(ctx context.Context, actor Actor, in CourseInput) (*model.Course, error) {
	if in.Code == nil || in.Title == nil {
		return nil, Validationf("code and title are required")
	}

	course := model.Course{
		Code:        normalizeCode(*in.Code),
		Title:       strings.TrimSpace(*in.Title),
		Department:  actor.Department,
		Credits:     3,
		MaxStudents: 60,
		IsActive:    true,
	}
	if course.Code == "" || course.Title == "" {
		return nil, Validationf("code and title are required")
	}
	applyCourseInput(&course, in)

	switch {
	case actor.IsFaculty():
		course.InstructorID = actor.ID
	case actor.IsAdmin():
		if in.InstructorID == nil {
			return nil, ErrInstructorInvalid
		}
		instructor, err := loadFaculty(s.db.WithContext(ctx), *in.InstructorID)
		if err != nil {
			return nil, err
		}
		course.InstructorID = instructor.ID
		if in.Department == nil {
			course.Department = instructor.Department
		}
	default:
		return nil, ErrForbidden
	}

	if err := validateCourse(&course); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Course{}).Where("code = ?", course.Code).Count(&count).Error; err != nil {
		return nil, storeError("check course code", err, nil)
	}
	if count > 0 {
		return nil, ErrCourseCodeTaken
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, duplicateError("create course", err, ErrCourseCodeTaken)
	}
	return s.Get(ctx, course.ID)
}

// Update edits a course owned by actor (or any course for admins)
func (s *CourseService) Update(ctx context.Context, actor Actor, id uint, in CourseInput) (*model.Course, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, id).Error; err != nil {
			return storeError("load course", err, ErrCourseNotFound)
		}
		if !canManageCourse(actor, &course) {
			return ErrNotCourseOwner
		}

		oldCode := course.Code
		applyCourseInput(&course, in)
		if in.Code != nil {
			course.Code = normalizeCode(*in.Code)
		}
		if in.InstructorID != nil && *in.InstructorID != course.InstructorID {
			if !actor.IsAdmin() {
				return ErrNotCourseOwner
			}
			if _, err := loadFaculty(tx, *in.InstructorID); err != nil {
				return err
			}
			course.InstructorID = *in.InstructorID
		}
		if err := validateCourse(&course); err != nil {
			return err
		}

		if course.Code != oldCode {
			var count int64
			if err := tx.Model(&model.Course{}).Where("code = ? AND id <> ?", course.Code, course.ID).Count(&count).Error; err != nil {
				return storeError("check course code", err, nil)
			}
			if count > 0 {
				return ErrCourseCodeTaken
			}
		}

		// The capacity check is part of the write so a concurrent enrollment cannot slip under it
		res := tx.Model(&model.Course{}).
			Where("id = ? AND enrolled_count <= ?", course.ID, course.MaxStudents).
			Updates(map[string]interface{}{
				"code":          course.Code,
				"title":         course.Title,
				"description":   course.Description,
				"department":    course.Department,
				"credits":       course.Credits,
				"semester":      course.Semester,
				"year":          course.Year,
				"max_students":  course.MaxStudents,
				"is_active":     course.IsActive,
				"instructor_id": course.InstructorID,
			})
		if res.Error != nil {
			return duplicateError("update course", res.Error, ErrCourseCodeTaken)
		}
		if res.RowsAffected == 0 {
			return ErrCapacityTooLow
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a course and everything that belongs to it
func (s *CourseService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, id).Error; err != nil {
			return storeError("load course", err, ErrCourseNotFound)
		}
		if !canManageCourse(actor, &course) {
			return ErrNotCourseOwner
		}

		assignments := tx.Model(&model.Assignment{}).Select("id").Where("course_id = ?", id)
		sessions := tx.Model(&model.AttendanceSession{}).Select("id").Where("course_id = ?", id)

		steps := []struct {
			op    string
			query *gorm.DB
			model interface{}
		}{
			{"delete submissions", tx.Where("assignment_id IN (?)", assignments), &model.Submission{}},
			{"delete assignments", tx.Where("course_id = ?", id), &model.Assignment{}},
			{"delete attendance records", tx.Where("session_id IN (?)", sessions), &model.AttendanceRecord{}},
			{"delete attendance sessions", tx.Where("course_id = ?", id), &model.AttendanceSession{}},
			{"delete enrollments", tx.Where("course_id = ?", id), &model.CourseEnrollment{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return storeError(step.op, err, nil)
			}
		}
		if err := tx.Delete(&model.Course{}, id).Error; err != nil {
			return storeError("delete course", err, nil)
		}
		return nil
	})
}

func loadFaculty(db *gorm.DB, id uint) (*model.User, error) {
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, storeError("load instructor", err, ErrInstructorInvalid)
	}
	if !user.IsFaculty() {
		return nil, ErrInstructorInvalid
	}
	return &user, nil
}

func canManageCourse(actor Actor, course *model.Course) bool {
	return actor.IsAdmin() || (actor.IsFaculty() && course.InstructorID == actor.ID)
}

func applyCourseInput(c *model.Course, in CourseInput) {
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Department != nil {
		c.Department = strings.TrimSpace(*in.Department)
	}
	if in.Credits != nil {
		c.Credits = *in.Credits
	}
	if in.Semester != nil {
		c.Semester = strings.TrimSpace(*in.Semester)
	}
	if in.Year != nil {
		c.Year = *in.Year
	}
	if in.MaxStudents != nil {
		c.MaxStudents = *in.MaxStudents
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func validateCourse(c *model.Course) error {
	switch {
	case c.Code == "" || c.Title == "":
		return Validationf("code and title are required")
	case c.Department == "":
		return Validationf("department is required")
	case c.Credits < 1 || c.Credits > 10:
		return Validationf("credits must be between 1 and 10")
	case c.MaxStudents < 1:
		return Validationf("max_students must be at least 1")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
