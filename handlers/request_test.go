package handlers

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		page, limit, offset := Page(c)
		return c.SendString(fmt.Sprintf("%d %d %d", page, limit, offset))
	})

	cases := []struct {
		query string
		want  string
	}{
		{"", "1 20 0"},
		{"?page=3&limit=10", "3 10 20"},
		{"?page=0&limit=0", "1 20 0"},
		{"?page=-4&limit=500", "1 100 0"},
		{"?page=abc", "1 20 0"},
		{"?page=9223372036854775807&limit=100", fmt.Sprintf("%d 100 %d", MaxPage, (MaxPage-1)*100)},
		{"?page=92233720368547758&limit=100", fmt.Sprintf("%d 100 %d", MaxPage, (MaxPage-1)*100)},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tc.query, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(body))
		})
	}
}
