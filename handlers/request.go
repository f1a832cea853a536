package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
	"github.com/sahilchouksey/smart-campus-api/utils/validation"
)

// Bind parses the request body into dst and validates it. When ok is false the error
// response has already been written and err must be returned by the handler.
func Bind(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	fields, err := validation.Struct(dst)
	if err != nil {
		return false, response.InternalServerError(c, "Failed to validate request")
	}
	if fields != nil {
		return false, response.ValidationError(c, fields)
	}
	return true, nil
}

// ParamID parses a positive integer route parameter. When ok is false the 400 response
// has been written.
func ParamID(c *fiber.Ctx, name string) (id uint, ok bool, err error) {
	v, perr := strconv.ParseUint(c.Params(name), 10, 32)
	if perr != nil || v == 0 {
		return 0, false, response.BadRequest(c, "Invalid "+name)
	}
	return uint(v), true, nil
}

// QueryID parses an optional positive integer query parameter. Absent or invalid values yield 0.
func QueryID(c *fiber.Ctx, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// MaxPage bounds the page query parameter so the offset cannot overflow
const MaxPage = 10000

// Page reads page and limit query parameters, clamping page to [1, MaxPage] and limit to [1, 100]
func Page(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// DateLayout is the date-only form accepted by ParseTime
const DateLayout = "2006-01-02"

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", DateLayout}

// ParseTime accepts an RFC 3339 timestamp, a minute-precision local form or a bare date, all read as UTC
func ParseTime(s string) (t time.Time, dateOnly bool, ok bool) {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), layout == DateLayout, true
		}
	}
	return time.Time{}, false, false
}
