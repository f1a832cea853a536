package router

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/config"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/handlers"
	admin_handlers "github.com/sahilchouksey/smart-campus-api/handlers/admin"
	assignment_handlers "github.com/sahilchouksey/smart-campus-api/handlers/assignment"
	attendance_handlers "github.com/sahilchouksey/smart-campus-api/handlers/attendance"
	auth_handlers "github.com/sahilchouksey/smart-campus-api/handlers/auth"
	course_handlers "github.com/sahilchouksey/smart-campus-api/handlers/course"
	dashboard_handlers "github.com/sahilchouksey/smart-campus-api/handlers/dashboard"
	event_handlers "github.com/sahilchouksey/smart-campus-api/handlers/event"
	notification_handlers "github.com/sahilchouksey/smart-campus-api/handlers/notification"
	placement_handlers "github.com/sahilchouksey/smart-campus-api/handlers/placement"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/services/cron"
	"github.com/sahilchouksey/smart-campus-api/services/storage"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/sahilchouksey/smart-campus-api/utils/cache"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// Dependencies are the long-lived resources the routes are built on
type Dependencies struct {
	Config    *config.Config
	Store     database.Storage
	Cache     *cache.RedisCache   // nil when REDIS_URL is unset
	Objects   storage.ObjectStore // nil when S3 is not configured
	Cron      *cron.CronManager   // nil when CRON_ENABLED=false
	AccessLog io.Writer
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	cfg := deps.Config
	store := deps.Store
	db := store.DB()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        cfg.JWTSecret,
		Expiry:        cfg.JWTExpiry,
		RefreshExpiry: cfg.JWTRefreshExpiry,
		Issuer:        cfg.JWTIssuer,
	})
	blacklist := auth.NewBlacklistService(db)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, blacklist, db)

	// Services
	notificationService := services.NewNotificationService(db)
	userService := services.NewUserService(db)
	courseService := services.NewCourseService(db)
	enrollmentService := services.NewEnrollmentService(db, notificationService)
	assignmentService := services.NewAssignmentService(db, notificationService, deps.Objects)
	eventService := services.NewEventService(db, notificationService)
	attendanceService := services.NewAttendanceService(db, notificationService)
	placementService := services.NewPlacementService(db, notificationService)
	dashboardService := services.NewDashboardService(db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(userService, jwtManager, blacklist)
	courseHandler := course_handlers.NewCourseHandler(courseService, enrollmentService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(assignmentService)
	eventHandler := event_handlers.NewEventHandler(eventService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	attendanceHandler := attendance_handlers.NewAttendanceHandler(attendanceService)
	placementHandler := placement_handlers.NewPlacementHandler(placementService)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(dashboardService)
	adminUserHandler := admin_handlers.NewUserHandler(userService, blacklist)

	security := middleware.SecurityConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		AccessLog:         deps.AccessLog,
	}
	// a nil *cache.Storage must not reach the limiter as a non-nil fiber.Storage
	var healthCache handlers.Pinger
	if deps.Cache != nil {
		security.LimiterStorage = deps.Cache.Storage()
		healthCache = deps.Cache
	}
	middleware.SetupSecurity(app, security)

	// Health check endpoints (public)
	app.Get("/ping", handlers.HandlePing)
	app.Get("/health", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store, healthCache) })

	api := app.Group("/api")

	// Auth routes (public)
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.RefreshToken)

	// Everything below requires a valid access token
	requireAuth := authMiddleware.Required()
	api.Post("/logout", requireAuth, authHandler.Logout)
	api.Get("/profile", requireAuth, authHandler.GetProfile)
	api.Put("/profile", requireAuth, authHandler.UpdateProfile)
	api.Get("/dashboard", requireAuth, dashboardHandler.GetDashboard)

	student := middleware.RequireRole(model.RoleStudent)
	staff := middleware.RequireRole(model.RoleFaculty, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Courses and enrollment
	courses := api.Group("/courses", requireAuth)
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/available", student, courseHandler.ListAvailable)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/", staff, courseHandler.CreateCourse)
	courses.Put("/:id", staff, courseHandler.UpdateCourse)
	courses.Delete("/:id", staff, courseHandler.DeleteCourse)
	courses.Post("/:id/enroll", student, courseHandler.Enroll)
	courses.Post("/:id/unenroll", student, courseHandler.Unenroll)
	courses.Get("/:id/students", staff, courseHandler.ListStudents)

	// Assignments, submissions and grades
	assignments := api.Group("/assignments", requireAuth)
	assignments.Get("/", assignmentHandler.ListAssignments)
	assignments.Get("/:id", assignmentHandler.GetAssignment)
	assignments.Post("/", staff, assignmentHandler.CreateAssignment)
	assignments.Put("/:id", staff, assignmentHandler.UpdateAssignment)
	assignments.Delete("/:id", staff, assignmentHandler.DeleteAssignment)
	assignments.Post("/:id/submit", student, assignmentHandler.SubmitAssignment)
	assignments.Get("/:id/submissions", staff, assignmentHandler.ListSubmissions)
	assignments.Put("/:id/submissions/:subId", staff, assignmentHandler.GradeSubmission)
	assignments.Get("/:id/submissions/:subId/file", assignmentHandler.GetSubmissionFile)
	api.Get("/grades", requireAuth, student, assignmentHandler.GetGrades)

	// Events
	events := api.Group("/events", requireAuth)
	events.Get("/", eventHandler.ListEvents)
	events.Get("/:id", eventHandler.GetEvent)
	events.Post("/", staff, eventHandler.CreateEvent)
	events.Put("/:id", staff, eventHandler.UpdateEvent)
	events.Delete("/:id", staff, eventHandler.DeleteEvent)
	events.Post("/:id/register", eventHandler.Register)
	events.Delete("/:id/register", eventHandler.Unregister)

	// Notifications; static paths are registered before /:id
	notifications := api.Group("/notifications", requireAuth)
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Get("/stream", notificationHandler.StreamUnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)

	// Attendance
	attendance := api.Group("/attendance", requireAuth)
	attendance.Post("/", staff, attendanceHandler.MarkAttendance)
	attendance.Get("/course/:id", staff, attendanceHandler.ListCourseAttendance)
	attendance.Get("/me", student, attendanceHandler.MyAttendance)

	// Placements
	placements := api.Group("/placements", requireAuth)
	placements.Get("/", middleware.RequireRole(model.RoleStudent, model.RoleAdmin), placementHandler.ListPlacements)
	placements.Post("/", adminOnly, placementHandler.CreatePlacement)
	placements.Put("/:id", adminOnly, placementHandler.UpdatePlacement)
	placements.Delete("/:id", adminOnly, placementHandler.DeletePlacement)

	// Admin panel
	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.Get("/users", adminUserHandler.ListUsers)
	admin.Post("/users", middleware.AdminAuditLog(db, "user_create", "users"), adminUserHandler.CreateUser)
	admin.Put("/users/:id", middleware.AdminAuditLog(db, "user_update", "users"), adminUserHandler.UpdateUser)
	admin.Delete("/users/:id", middleware.AdminAuditLog(db, "user_delete", "users"), adminUserHandler.DeleteUser)
	admin.Post("/users/:id/revoke-sessions", middleware.AdminAuditLog(db, "sessions_revoke", "users"), adminUserHandler.RevokeSessions)
	admin.Get("/audit-logs", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/cron-logs", func(c *fiber.Ctx) error { return admin_handlers.ListCronLogs(c, store) })
	admin.Post("/cron/:job/run", middleware.AdminAuditLog(db, "cron_run", "cron"), func(c *fiber.Ctx) error {
		return admin_handlers.RunCronJob(c, deps.Cron)
	})

	app.Use(func(c *fiber.Ctx) error {
		return response.NotFound(c, "Route not found")
	})
}
