package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/gorm"
)

const dashboardEventLimit = 10

// DashboardService composes the role-specific dashboard. Every call reads the store afresh.
type DashboardService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
	assignments *AssignmentService
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	d := &DashboardService{
		db:          db,
		enrollments: NewEnrollmentService(db, nil),
		assignments: NewAssignmentService(db, nil, nil),
	}
	d.setClock(utcNow)
	return d
}

func (s *DashboardService) setClock(now func() time.Time) {
	s.now = now
	s.enrollments.now = now
	s.assignments.now = now
}

// DashboardView is the dashboard of one user. Exactly one of Student, Faculty and Admin is set.
type DashboardView struct {
	Role        string            `json:"role"`
	User        model.UserSummary `json:"user"`
	GeneratedAt time.Time         `json:"generated_at"`
	Student     *StudentDashboard `json:"student,omitempty"`
	Faculty     *FacultyDashboard `json:"faculty,omitempty"`
	Admin       *AdminDashboard   `json:"admin,omitempty"`
}

type StudentDashboard struct {
	EnrolledCourses     []model.CourseResponse    `json:"enrolled_courses"`
	AvailableCourses    []model.CourseResponse    `json:"available_courses"`
	Assignments         []AssignmentItem          `json:"assignments"`
	PendingAssignments  int                       `json:"pending_assignments"`
	OverdueAssignments  int                       `json:"overdue_assignments"`
	Grades              []model.GradeEntry        `json:"grades"`
	UnreadNotifications int64                     `json:"unread_notifications"`
	UpcomingEvents      []model.Event             `json:"upcoming_events"`
	Attendance          []model.AttendanceSummary `json:"attendance"`
}

type FacultyDashboard struct {
	Courses        []model.CourseResponse `json:"courses"`
	Assignments    []AssignmentItem       `json:"assignments"`
	Events         []model.Event          `json:"events"`
	TotalStudents  int64                  `json:"total_students"`
	PendingGrading int64                  `json:"pending_grading"`
}

type AdminDashboard struct {
	UsersByRole         map[string]int64 `json:"users_by_role"`
	TotalUsers          int64            `json:"total_users"`
	TotalCourses        int64            `json:"total_courses"`
	ActiveCourses       int64            `json:"active_courses"`
	TotalEnrollments    int64            `json:"total_enrollments"`
	TotalAssignments    int64            `json:"total_assignments"`
	TotalSubmissions    int64            `json:"total_submissions"`
	TotalEvents         int64            `json:"total_events"`
	TotalNotifications  int64            `json:"total_notifications"`
	UnreadNotifications int64            `json:"unread_notifications"`
	AttendanceSessions  int64            `json:"attendance_sessions"`
	TotalPlacements     int64            `json:"total_placements"`
	PlacedStudents      int64            `json:"placed_students"`
}

// BuildDashboard returns the dashboard for userID. role must match the stored role.
func (s *DashboardService) BuildDashboard(ctx context.Context, userID uint, role string) (*DashboardView, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, storeError("load user", err, ErrUserNotFound)
	}
	if user.Role != role {
		return nil, ErrForbidden
	}

	view := &DashboardView{Role: role, User: user.Summary(), GeneratedAt: s.now()}
	var err error
	switch role {
	case model.RoleStudent:
		view.Student, err = s.student(ctx, &user)
	case model.RoleFaculty:
		view.Faculty, err = s.faculty(ctx, &user)
	case model.RoleAdmin:
		view.Admin, err = s.admin(ctx)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *DashboardService) student(ctx context.Context, user *model.User) (*StudentDashboard, error) {
	db := s.db.WithContext(ctx)
	dash := &StudentDashboard{}

	enrolled, err := s.enrollments.ListEnrolled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	dash.EnrolledCourses = model.CourseResponses(enrolled)

	available, err := s.enrollments.ListAvailable(ctx, user.Department, user.ID)
	if err != nil {
		return nil, err
	}
	dash.AvailableCourses = model.CourseResponses(available)

	if dash.Assignments, err = s.assignments.forStudent(ctx, user.ID, 0); err != nil {
		return nil, err
	}
	dash.Grades = []model.GradeEntry{}
	for i := range dash.Assignments {
		item := &dash.Assignments[i]
		switch item.Status {
		case model.AssignmentStatusPending:
			dash.PendingAssignments++
		case model.AssignmentStatusOverdue:
			dash.OverdueAssignments++
		}
		if g, ok := model.NewGradeEntry(&item.Assignment, item.MySubmission); ok {
			dash.Grades = append(dash.Grades, g)
		}
	}

	if err := db.Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", user.ID, false).
		Count(&dash.UnreadNotifications).Error; err != nil {
		return nil, storeError("count unread notifications", err, nil)
	}

	if dash.UpcomingEvents, err = upcomingEvents(db, user.Department, s.now(), dashboardEventLimit); err != nil {
		return nil, err
	}
	if dash.Attendance, err = attendanceSummary(db, user.ID); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *DashboardService) faculty(ctx context.Context, user *model.User) (*FacultyDashboard, error) {
	db := s.db.WithContext(ctx)
	dash := &FacultyDashboard{}

	var courses []model.Course
	if err := db.Where("instructor_id = ?", user.ID).Order("code ASC").Find(&courses).Error; err != nil {
		return nil, storeError("list taught courses", err, nil)
	}
	dash.Courses = model.CourseResponses(courses)

	var err error
	if dash.Assignments, err = s.assignments.List(ctx, ActorOf(user), 0); err != nil {
		return nil, err
	}
	for _, a := range dash.Assignments {
		dash.PendingGrading += a.SubmissionCount - a.GradedCount
	}

	if dash.Events, err = upcomingEvents(db, user.Department, s.now(), dashboardEventLimit); err != nil {
		return nil, err
	}

	err = db.Model(&model.CourseEnrollment{}).
		Where("course_id IN (?)", s.db.Model(&model.Course{}).Select("id").Where("instructor_id = ?", user.ID)).
		Distinct("student_id").
		Count(&dash.TotalStudents).Error
	if err != nil {
		return nil, storeError("count students", err, nil)
	}
	return dash, nil
}

func (s *DashboardService) admin(ctx context.Context) (*AdminDashboard, error) {
	db := s.db.WithContext(ctx)
	dash := &AdminDashboard{}

	byRole, err := countUsersByRole(db)
	if err != nil {
		return nil, err
	}
	dash.UsersByRole = byRole
	for _, n := range byRole {
		dash.TotalUsers += n
	}

	counts := []struct {
		op    string
		query *gorm.DB
		dest  *int64
	}{
		{"count courses", db.Model(&model.Course{}), &dash.TotalCourses},
		{"count active courses", db.Model(&model.Course{}).Where("is_active = ?", true), &dash.ActiveCourses},
		{"count enrollments", db.Model(&model.CourseEnrollment{}), &dash.TotalEnrollments},
		{"count assignments", db.Model(&model.Assignment{}), &dash.TotalAssignments},
		{"count submissions", db.Model(&model.Submission{}), &dash.TotalSubmissions},
		{"count events", db.Model(&model.Event{}), &dash.TotalEvents},
		{"count notifications", db.Model(&model.Notification{}), &dash.TotalNotifications},
		{"count unread notifications", db.Model(&model.Notification{}).Where("read = ?", false), &dash.UnreadNotifications},
		{"count attendance sessions", db.Model(&model.AttendanceSession{}), &dash.AttendanceSessions},
		{"count placements", db.Model(&model.Placement{}), &dash.TotalPlacements},
		{"count placed students", db.Model(&model.Placement{}).Where("status = ?", model.PlacementPlaced).Distinct("student_id"), &dash.PlacedStudents},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, storeError(c.op, err, nil)
		}
	}
	return dash, nil
}
