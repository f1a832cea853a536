package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedOptions configures the demo data seeder
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// DemoPassword is used for every seeded faculty and student account
	DemoPassword string
	Now          func() time.Time
}

// Seeder handles database seeding operations
type Seeder struct {
	db   *gorm.DB
	opts SeedOptions
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	if opts.DemoPassword == "" {
		opts.DemoPassword = "password123"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Seeder{db: db, opts: opts}
}

type seedUser struct {
	name, email, role, department, code string
}

var seedFaculty = []seedUser{
	{"Dr. Ada Lovelace", "ada.lovelace@campus.edu", model.RoleFaculty, "Computer Science", "EMP-1001"},
	{"Dr. Alan Turing", "alan.turing@campus.edu", model.RoleFaculty, "Computer Science", "EMP-1002"},
	{"Dr. Emmy Noether", "emmy.noether@campus.edu", model.RoleFaculty, "Mathematics", "EMP-2001"},
}

var seedStudents = []seedUser{
	{"Priya Sharma", "priya.sharma@campus.edu", model.RoleStudent, "Computer Science", "STU-0001"},
	{"Rahul Verma", "rahul.verma@campus.edu", model.RoleStudent, "Computer Science", "STU-0002"},
	{"Ananya Iyer", "ananya.iyer@campus.edu", model.RoleStudent, "Computer Science", "STU-0003"},
	{"Karan Mehta", "karan.mehta@campus.edu", model.RoleStudent, "Mathematics", "STU-0004"},
}

type seedCourse struct {
	code, title, department, instructor string
	credits, maxStudents                int
	students                            []string
}

var seedCourses = []seedCourse{
	{"CS101", "Introduction to Programming", "Computer Science", "ada.lovelace@campus.edu", 4, 60,
		[]string{"priya.sharma@campus.edu", "rahul.verma@campus.edu"}},
	{"CS201", "Data Structures", "Computer Science", "alan.turing@campus.edu", 4, 40,
		[]string{"priya.sharma@campus.edu"}},
	{"CS301", "Operating Systems", "Computer Science", "alan.turing@campus.edu", 3, 2, nil},
	{"MA101", "Linear Algebra", "Mathematics", "emmy.noether@campus.edu", 3, 50,
		[]string{"karan.mehta@campus.edu"}},
}

// SeedAll runs every seed step. Each step is idempotent so the routine can be re-run safely.
func (s *Seeder) SeedAll(ctx context.Context) error {
	log.Info("Starting database seeding")

	users, err := s.SeedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	courses, err := s.SeedCourses(ctx, users)
	if err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedAssignments(ctx, users, courses); err != nil {
		return fmt.Errorf("failed to seed assignments: %w", err)
	}

	if err := s.SeedEvents(ctx, users); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	log.Info("Database seeding completed")
	return nil
}

// SeedUsers creates the admin and demo accounts that do not exist yet, keyed by email
func (s *Seeder) SeedUsers(ctx context.Context) (map[string]*model.User, error) {
	users := make(map[string]*model.User)

	if s.opts.AdminEmail != "" && s.opts.AdminPassword != "" {
		admin, err := s.ensureUser(ctx, seedUser{"Campus Administrator", s.opts.AdminEmail, model.RoleAdmin, model.AdministrationDepartment, ""}, s.opts.AdminPassword)
		if err != nil {
			return nil, err
		}
		users[admin.Email] = admin
	} else {
		log.Warn("Seed admin credentials not set, skipping admin user")
	}

	for _, list := range [][]seedUser{seedFaculty, seedStudents} {
		for _, su := range list {
			u, err := s.ensureUser(ctx, su, s.opts.DemoPassword)
			if err != nil {
				return nil, err
			}
			users[u.Email] = u
		}
	}
	return users, nil
}

func (s *Seeder) ensureUser(ctx context.Context, su seedUser, password string) (*model.User, error) {
	email := strings.ToLower(su.email)

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Debugf("User %s already exists, skipping", email)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", email, err)
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         su.name,
		Role:         su.role,
		Department:   su.department,
	}
	if su.code != "" {
		code := su.code
		if su.role == model.RoleStudent {
			user.StudentID = &code
		} else {
			user.EmployeeID = &code
		}
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	log.Infof("Created %s %s", user.Role, user.Email)
	return &user, nil
}

// SeedCourses creates demo courses by code and enrolls their demo students
func (s *Seeder) SeedCourses(ctx context.Context, users map[string]*model.User) (map[string]*model.Course, error) {
	courses := make(map[string]*model.Course)
	now := s.opts.Now()

	for _, sc := range seedCourses {
		instructor, ok := users[sc.instructor]
		if !ok {
			return nil, fmt.Errorf("instructor %s not seeded", sc.instructor)
		}

		course := model.Course{
			Code:         sc.code,
			Title:        sc.title,
			Department:   sc.department,
			Credits:      sc.credits,
			Semester:     "Fall",
			Year:         now.Year(),
			InstructorID: instructor.ID,
			MaxStudents:  sc.maxStudents,
			IsActive:     true,
		}
		err := s.db.WithContext(ctx).
			Where(model.Course{Code: sc.code}).
			Attrs(course).
			FirstOrCreate(&course).Error
		if err != nil {
			return nil, err
		}
		courses[sc.code] = &course

		if err := s.enrollStudents(ctx, &course, sc.students, users); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (s *Seeder) enrollStudents(ctx context.Context, course *model.Course, emails []string, users map[string]*model.User) error {
	if len(emails) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, email := range emails {
			student, ok := users[email]
			if !ok {
				return fmt.Errorf("student %s not seeded", email)
			}
			enrollment := model.CourseEnrollment{
				CourseID:   course.ID,
				StudentID:  student.ID,
				EnrolledAt: s.opts.Now(),
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error; err != nil {
				return err
			}
		}
		// Keep the counter equal to the enrollment rows
		return tx.Model(&model.Course{}).
			Where("id = ?", course.ID).
			Update("enrolled_count", tx.Model(&model.CourseEnrollment{}).
				Select("COUNT(*)").
				Where("course_id = ?", course.ID)).Error
	})
}

// SeedAssignments creates one assignment per computer science course if the course has none
func (s *Seeder) SeedAssignments(ctx context.Context, users map[string]*model.User, courses map[string]*model.Course) error {
	now := s.opts.Now()
	for _, code := range []string{"CS101", "CS201"} {
		course, ok := courses[code]
		if !ok {
			continue
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Assignment{}).Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		assignment := model.Assignment{
			Title:       code + " Problem Set 1",
			Description: "Solve the exercises from the first two lectures.",
			CourseID:    course.ID,
			DueDate:     now.Add(7 * 24 * time.Hour),
			MaxPoints:   100,
			CreatedByID: course.InstructorID,
		}
		if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedEvents creates the demo events by title
func (s *Seeder) SeedEvents(ctx context.Context, users map[string]*model.User) error {
	organizer, ok := users["ada.lovelace@campus.edu"]
	if !ok {
		return nil
	}
	now := s.opts.Now()

	events := []model.Event{
		{Title: "Orientation Day", Description: "Welcome session for all students.", Date: now.Add(3 * 24 * time.Hour), Location: "Main Auditorium", Type: model.EventTypeAcademic, OrganizerID: organizer.ID},
		{Title: "Hackathon 24h", Description: "Build something in a day.", Date: now.Add(14 * 24 * time.Hour), Location: "CS Lab 2", Type: model.EventTypeWorkshop, OrganizerID: organizer.ID, Department: "Computer Science"},
	}
	for i := range events {
		ev := events[i]
		err := s.db.WithContext(ctx).
			Where(model.Event{Title: ev.Title}).
			Attrs(ev).
			FirstOrCreate(&ev).Error
		if err != nil {
			return err
		}
	}
	return nil
}
