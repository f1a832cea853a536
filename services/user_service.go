package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"gorm.io/gorm"
)

// UserService handles registration, authentication and user administration
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUserInput is the data needed to create an account
type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
	StudentID  string
	EmployeeID string
	Phone      string
}

// Register creates a student or faculty account. Admin accounts come from seeding or an admin.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if in.Role == model.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	return s.CreateUser(ctx, in)
}

// CreateUser creates an account of any canonical role
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" || in.Email == "" {
		return nil, Validationf("name and email are required")
	}
	if !model.IsValidRole(in.Role) {
		return nil, Validationf("role must be one of student, faculty, admin")
	}
	if !auth.IsPasswordValid(in.Password) {
		return nil, Validationf("password must be at least %d characters", auth.MinPasswordLength)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, storeError("check email", err, nil)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, Validationf("%s", err.Error())
	}

	department := strings.TrimSpace(in.Department)
	if department == "" {
		department = model.DepartmentFor(in.Role)
	}

	user := model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   department,
		Phone:        strings.TrimSpace(in.Phone),
	}
	switch in.Role {
	case model.RoleStudent:
		user.StudentID = optionalString(in.StudentID)
	case model.RoleFaculty, model.RoleAdmin:
		user.EmployeeID = optionalString(in.EmployeeID)
	}

	if err := s.checkIdentifiers(ctx, 0, user.StudentID, user.EmployeeID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent registration won one of the unique indexes
			if idErr := s.checkIdentifiers(ctx, 0, user.StudentID, user.EmployeeID); idErr != nil {
				return nil, idErr
			}
			return nil, ErrEmailTaken
		}
		return nil, storeError("create user", err, nil)
	}
	return &user, nil
}

// Authenticate returns the user with email when password matches. There is no lockout.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, storeError("load user", err, ErrInvalidCredentials)
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetByID returns a user by id
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, storeError("load user", err, ErrUserNotFound)
	}
	return &user, nil
}

// UpdateProfileInput holds the self-editable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	Name       *string
	Phone      *string
	Department *string
}

// UpdateProfile edits the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Validationf("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Department != nil {
		dept := strings.TrimSpace(*in.Department)
		if dept == "" {
			return nil, Validationf("department cannot be empty")
		}
		updates["department"] = dept
	}
	return s.applyUpdates(ctx, userID, updates)
}

// AdminUpdateInput holds the fields an admin may change. Role is immutable.
type AdminUpdateInput struct {
	Name       *string
	Department *string
	StudentID  *string
	EmployeeID *string
}

// AdminUpdate edits another user's account
func (s *UserService) AdminUpdate(ctx context.Context, userID uint, in AdminUpdateInput) (*model.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Validationf("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Department != nil {
		updates["department"] = strings.TrimSpace(*in.Department)
	}
	if in.StudentID != nil {
		updates["student_id"] = optionalString(*in.StudentID)
	}
	if in.EmployeeID != nil {
		updates["employee_id"] = optionalString(*in.EmployeeID)
	}

	var studentID, employeeID *string
	if in.StudentID != nil {
		studentID = optionalString(*in.StudentID)
	}
	if in.EmployeeID != nil {
		employeeID = optionalString(*in.EmployeeID)
	}
	if err := s.checkIdentifiers(ctx, userID, studentID, employeeID); err != nil {
		return nil, err
	}
	return s.applyUpdates(ctx, userID, updates)
}

func (s *UserService) applyUpdates(ctx context.Context, userID uint, updates map[string]interface{}) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, duplicateError("update user", err, ErrIdentifierTaken)
	}
	return s.GetByID(ctx, userID)
}

// ListUsersOptions filters the admin user list
type ListUsersOptions struct {
	Role       string
	Department string
	Search     string
	Limit      int
	Offset     int
}

// ListUsers returns a page of users and the total matching count
func (s *UserService) ListUsers(ctx context.Context, opts ListUsersOptions) ([]model.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.User{})
	if opts.Role != "" {
		query = query.Where("role = ?", opts.Role)
	}
	if opts.Department != "" {
		query = query.Where("department = ?", opts.Department)
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("count users", err, nil)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var users []model.User
	if err := query.Order("id ASC").Limit(limit).Offset(opts.Offset).Find(&users).Error; err != nil {
		return nil, 0, storeError("list users", err, nil)
	}
	return users, total, nil
}

// DeleteUser hard deletes a user and every row that references them
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return storeError("load user", err, ErrUserNotFound)
		}

		if user.IsFaculty() {
			var owned int64
			if err := tx.Model(&model.Course{}).Where("instructor_id = ?", userID).Count(&owned).Error; err != nil {
				return storeError("count owned courses", err, nil)
			}
			if owned > 0 {
				return newError(ErrConflict, "USER_OWNS_COURSES", "Reassign or delete this instructor's courses first")
			}
		}

		// Free the seats held by a student before dropping the enrollment rows
		err := tx.Model(&model.Course{}).
			Where("id IN (?) AND enrolled_count > 0", tx.Model(&model.CourseEnrollment{}).Select("course_id").Where("student_id = ?", userID)).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count - ?", 1)).Error
		if err != nil {
			return storeError("release seats", err, nil)
		}

		steps := []struct {
			model interface{}
			where string
		}{
			{&model.CourseEnrollment{}, "student_id = ?"},
			{&model.AttendanceRecord{}, "student_id = ?"},
			{&model.EventAttendee{}, "user_id = ?"},
			{&model.Notification{}, "recipient_id = ?"},
			{&model.Placement{}, "student_id = ?"},
			{&model.JWTTokenBlacklist{}, "user_id = ?"},
			{&model.AdminAuditLog{}, "admin_id = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, userID).Delete(step.model).Error; err != nil {
				return storeError("delete user data", err, nil)
			}
		}
		if err := tx.Where("student_id = ?", userID).Delete(&model.Submission{}).Error; err != nil {
			return storeError("delete submissions", err, nil)
		}
		created := tx.Model(&model.Assignment{}).Select("id").Where("created_by_id = ?", userID)
		if err := tx.Where("assignment_id IN (?)", created).Delete(&model.Submission{}).Error; err != nil {
			return storeError("delete submissions", err, nil)
		}
		if err := tx.Where("created_by_id = ?", userID).Delete(&model.Assignment{}).Error; err != nil {
			return storeError("delete assignments", err, nil)
		}
		if err := deleteEventsOf(tx, userID); err != nil {
			return err
		}
		if err := tx.Delete(&model.User{}, userID).Error; err != nil {
			return storeError("delete user", err, nil)
		}
		return nil
	})
}

func deleteEventsOf(tx *gorm.DB, organizerID uint) error {
	events := tx.Model(&model.Event{}).Select("id").Where("organizer_id = ?", organizerID)
	if err := tx.Where("event_id IN (?)", events).Delete(&model.EventAttendee{}).Error; err != nil {
		return storeError("delete event attendees", err, nil)
	}
	if err := tx.Where("organizer_id = ?", organizerID).Delete(&model.Event{}).Error; err != nil {
		return storeError("delete events", err, nil)
	}
	return nil
}

func (s *UserService) checkIdentifiers(ctx context.Context, exceptID uint, studentID, employeeID *string) error {
	check := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		var count int64
		err := s.db.WithContext(ctx).Model(&model.User{}).
			Where(column+" = ? AND id <> ?", *value, exceptID).
			Count(&count).Error
		if err != nil {
			return storeError("check "+column, err, nil)
		}
		if count > 0 {
			return ErrIdentifierTaken
		}
		return nil
	}
	if err := check("student_id", studentID); err != nil {
		return err
	}
	return check("employee_id", employeeID)
}

// CountByRole returns the number of users per role
func (s *UserService) CountByRole(ctx context.Context) (map[string]int64, error) {
	return countUsersByRole(s.db.WithContext(ctx))
}

func countUsersByRole(db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	if err := db.Model(&model.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error; err != nil {
		return nil, storeError("count users by role", err, nil)
	}
	counts := map[string]int64{model.RoleStudent: 0, model.RoleFaculty: 0, model.RoleAdmin: 0}
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
