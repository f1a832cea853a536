package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/api"
	"github.com/sahilchouksey/smart-campus-api/config"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/model"
	"github.com/sahilchouksey/smart-campus-api/router"
	"github.com/sahilchouksey/smart-campus-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.OpenDB(t)
	app := fiber.New(api.Config())
	router.SetupRoutes(app, router.Dependencies{
		Config: &config.Config{
			Env:              "test",
			JWTSecret:        "router-test-secret",
			JWTIssuer:        "smart-campus-test",
			JWTExpiry:        time.Hour,
			JWTRefreshExpiry: 24 * time.Hour,
		},
		Store:     database.NewGORMStore(db),
		AccessLog: io.Discard,
	})
	return &testServer{t: t, app: app, db: db}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(user *model.User) string {
	s.t.Helper()
	status, out := s.do(fiber.MethodPost, "/api/login", "", fiber.Map{"email": user.Email, "password": testutil.Password})
	require.Equal(s.t, fiber.StatusOK, status)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(s.t, data.Token)
	return data.Token
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(fiber.MethodGet, "/ping", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, out := s.do(fiber.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", out.Error.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	status, out := s.do(fiber.MethodPost, "/api/register", "", fiber.Map{
		"name": "Asha Rao", "email": "Asha@Campus.edu", "password": "longenough",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var reg struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &reg))
	assert.Equal(t, "asha@campus.edu", reg.User.Email)
	assert.Equal(t, model.RoleStudent, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	status, out = s.do(fiber.MethodPost, "/api/register", "", fiber.Map{
		"name": "Asha Again", "email": "asha@campus.edu", "password": "longenough",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "EMAIL_TAKEN", out.Error.Code)

	status, out = s.do(fiber.MethodPost, "/api/register", "", fiber.Map{
		"name": "Root", "email": "root@campus.edu", "password": "longenough", "role": "admin",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Error.Details, "role")

	status, out = s.do(fiber.MethodPost, "/api/login", "", fiber.Map{"email": "asha@campus.edu", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", out.Error.Code)

	status, _ = s.do(fiber.MethodPost, "/api/login", "", fiber.Map{"email": "ASHA@campus.edu", "password": "longenough"})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(fiber.MethodGet, "/api/profile", reg.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(fiber.MethodPost, "/api/logout", reg.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(fiber.MethodGet, "/api/profile", reg.Token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status, "a logged out token is rejected")
}

func TestRoleGuards(t *testing.T) {
	s := newServer(t)
	student := testutil.CreateUser(t, s.db, model.RoleStudent, "Computer Science")
	faculty := testutil.CreateUser(t, s.db, model.RoleFaculty, "Computer Science")
	course := testutil.CreateCourse(t, s.db, faculty, "CS101", 5)
	studentToken := s.login(student)
	facultyToken := s.login(faculty)

	status, _ := s.do(fiber.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(fiber.MethodGet, "/api/courses", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, out := s.do(fiber.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), facultyToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out.Error.Code)

	status, _ = s.do(fiber.MethodGet, "/api/admin/users", facultyToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(fiber.MethodGet, fmt.Sprintf("/api/courses/%d/students", course.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(fiber.MethodGet, "/api/dashboard", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(fiber.MethodGet, "/api/dashboard", facultyToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestEnrollmentOverHTTP(t *testing.T) {
	s := newServer(t)
	faculty := testutil.CreateUser(t, s.db, model.RoleFaculty, "Computer Science")
	first := testutil.CreateUser(t, s.db, model.RoleStudent, "Computer Science")
	second := testutil.CreateUser(t, s.db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, s.db, faculty, "CS101", 1)
	firstToken := s.login(first)
	secondToken := s.login(second)
	enroll := fmt.Sprintf("/api/courses/%d/enroll", course.ID)

	status, _ := s.do(fiber.MethodPost, enroll, firstToken, nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, out := s.do(fiber.MethodPost, enroll, firstToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_ENROLLED", out.Error.Code)

	status, out = s.do(fiber.MethodPost, enroll, secondToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "COURSE_FULL", out.Error.Code)

	status, out = s.do(fiber.MethodPost, "/api/courses/9999/enroll", secondToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "COURSE_NOT_FOUND", out.Error.Code)

	status, _ = s.do(fiber.MethodPost, "/api/courses/abc/enroll", secondToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(fiber.MethodPost, fmt.Sprintf("/api/courses/%d/unenroll", course.ID), firstToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(fiber.MethodPost, enroll, secondToken, nil)
	assert.Equal(t, fiber.StatusCreated, status, "the freed seat can be taken")
}

func TestNotificationsOverHTTP(t *testing.T) {
	s := newServer(t)
	faculty := testutil.CreateUser(t, s.db, model.RoleFaculty, "Computer Science")
	student := testutil.CreateUser(t, s.db, model.RoleStudent, "Computer Science")
	other := testutil.CreateUser(t, s.db, model.RoleStudent, "Computer Science")
	course := testutil.CreateCourse(t, s.db, faculty, "CS101", 5)
	studentToken := s.login(student)
	otherToken := s.login(other)

	status, _ := s.do(fiber.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, out := s.do(fiber.MethodGet, "/api/notifications/unread-count", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"unread_count":1}`, string(out.Data))

	status, out = s.do(fiber.MethodGet, "/api/notifications", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []struct {
		ID   uint `json:"id"`
		Read bool `json:"read"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &list))
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)
	markRead := fmt.Sprintf("/api/notifications/%d/read", list[0].ID)

	status, out = s.do(fiber.MethodPut, markRead, otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "NOT_RECIPIENT", out.Error.Code)

	status, _ = s.do(fiber.MethodPut, markRead, studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(fiber.MethodPut, markRead, studentToken, nil)
	assert.Equal(t, fiber.StatusOK, status, "marking twice is harmless")

	status, out = s.do(fiber.MethodGet, "/api/notifications/unread-count", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"unread_count":0}`, string(out.Data))
}
