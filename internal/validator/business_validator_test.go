package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type registerRequest struct {
	DisplayName string          `json:"display_name" validate:"required,min=2,max=100"`
	Role        models.UserRole `json:"role" validate:"required,user_role_registrable"`
}

type courseRequest struct {
	Title  string  `json:"title" validate:"required,course_title"`
	Price  float64 `json:"price" validate:"price"`
	Status string  `json:"status" validate:"omitempty,course_status"`
}

func TestValidate_RegisterRequest(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&registerRequest{DisplayName: "Ana", Role: models.RoleStudent}))

	err := v.Validate(&registerRequest{DisplayName: "Ana", Role: models.RoleAdmin})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "role", verrs[0].Field)
	assert.Equal(t, "user_role_registrable", verrs[0].Rule)
}

func TestValidate_CourseRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&courseRequest{Title: "Go basics", Price: 19.99, Status: "draft"}))

	err := v.Validate(&courseRequest{Title: "Go", Price: 10.005, Status: "live"})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
}

func TestValidateCourseOutline(t *testing.T) {
	v := New()

	errs := v.ValidateCourseOutline([]models.Section{
		{Title: "Intro", Videos: []models.Video{{ID: "a", Title: "One", URL: "https://cdn.example.com/1.mp4"}}},
	})
	assert.Empty(t, errs)

	errs = v.ValidateCourseOutline([]models.Section{
		{Title: "", Videos: []models.Video{
			{ID: "a", Title: "One", URL: "not a url"},
			{ID: "a", Title: "", URL: "https://cdn.example.com/2.mp4"},
		}},
	})
	assert.Len(t, errs, 4)
}

func TestValidateCoursePublish(t *testing.T) {
	v := New()

	assert.Len(t, v.ValidateCoursePublish(&models.Course{}), 2)

	course := &models.Course{
		Description: "Learn things",
		Sections:    []models.Section{{Title: "A", Videos: []models.Video{{ID: "v"}}}},
	}
	assert.Empty(t, v.ValidateCoursePublish(course))
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	assert.Equal(t, "validation failed: title is required", ValidationErrors{{Field: "title", Message: "is required"}}.Error())
	assert.Equal(t, "validation failed: 2 field errors", ValidationErrors{{}, {}}.Error())
}
