package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"plain", "hello   world", 0, "hello world"},
		{"html", "<p>Implement <b>merge</b> sort</p>", 0, "Implement merge sort"},
		{"script dropped", "<script>alert(1)</script>Read chapter 4", 0, "Read chapter 4"},
		{"truncated", "abcdefghij", 4, "abcd..."},
		{"fits", "abcd", 4, "abcd"},
		{"runes", "héllo wörld", 5, "héllo..."},
		{"nul stripped", "a\x00b", 0, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in, tt.limit))
		})
	}
}

type signup struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"signup_role"`
}

type record struct {
	Role      string `json:"role" validate:"campus_role"`
	EventType string `json:"type" validate:"event_type"`
	Status    string `json:"status" validate:"attendance_status"`
	Placement string `json:"placement" validate:"placement_status"`
}

func TestStruct(t *testing.T) {
	fields, err := Struct(signup{Name: "Asha", Email: "asha@campus.edu"})
	require.NoError(t, err)
	assert.Nil(t, fields)

	fields, err = Struct(signup{Name: "   ", Email: "not-an-email", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "name cannot be blank", fields["name"])
	assert.Contains(t, fields, "email")
	assert.Equal(t, "role must be student or faculty", fields["role"])

	fields, err = Struct(record{Role: "admin", EventType: "workshop", Status: "late", Placement: "offered"})
	require.NoError(t, err)
	assert.Nil(t, fields)

	fields, err = Struct(record{Role: "instructor", EventType: "rave", Status: "excused", Placement: "hired"})
	require.NoError(t, err)
	assert.Len(t, fields, 4)
	assert.Equal(t, "status must be one of present, absent, late", fields["status"])

	_, err = Struct(42)
	assert.Error(t, err)
}
