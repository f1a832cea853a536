package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.Validationf("bad"), fiber.StatusBadRequest},
		{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{services.ErrNotCourseOwner, fiber.StatusForbidden},
		{services.ErrCourseNotFound, fiber.StatusNotFound},
		{services.ErrCourseFull, fiber.StatusConflict},
		{fmt.Errorf("enroll: %w: %w", services.ErrStoreUnavailable, errors.New("conn refused")), fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestFromError(t *testing.T) {
	app := fiber.New()
	app.Get("/full", func(c *fiber.Ctx) error { return FromError(c, services.ErrCourseFull) })
	app.Get("/store", func(c *fiber.Ctx) error {
		return FromError(c, fmt.Errorf("list: %w: %w", services.ErrStoreUnavailable, errors.New("conn refused")))
	})

	body := call(t, app, "/full", fiber.StatusConflict)
	assert.Equal(t, "COURSE_FULL", body.Error.Code)
	assert.False(t, body.Success)

	body = call(t, app, "/store", fiber.StatusInternalServerError)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Nil(t, body.Error.Details, "internal details stay hidden by default")
}

func call(t *testing.T, app *fiber.App, path string, wantStatus int) Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out Response
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotNil(t, out.Error)
	return out
}
