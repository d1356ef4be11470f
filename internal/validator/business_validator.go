package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ValidationError represents a single field or business rule failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the LMS rules registered
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// Report json field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerBusinessRules()
	return v
}

// Validate runs struct validation; the returned error is ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// ToValidationErrors converts validator errors into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func (v *Validator) registerBusinessRules() {
	// Course titles: 3-200 visible characters
	v.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 3 && len(title) <= 200
	})

	v.validate.RegisterValidation("course_status", func(fl validator.FieldLevel) bool {
		return models.CourseStatus(fl.Field().String()).IsValid()
	})

	// Admin cannot be chosen at sign-up
	v.validate.RegisterValidation("user_role_registrable", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Registrable()
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("feedback_status", func(fl validator.FieldLevel) bool {
		return models.FeedbackStatus(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("contact_status", func(fl validator.FieldLevel) bool {
		return models.ContactStatus(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("notification_audience", func(fl validator.FieldLevel) bool {
		return models.NotificationAudience(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("notification_status", func(fl validator.FieldLevel) bool {
		return models.NotificationStatus(fl.Field().String()).IsValid()
	})

	// Prices are non-negative with at most two decimals
	v.validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		p := fl.Field().Float()
		if p < 0 || p > 100000 {
			return false
		}
		cents := p * 100
		return cents-float64(int64(cents+0.5)) < 1e-6 && float64(int64(cents+0.5))-cents < 1e-6
	})
}

// ValidateCourseOutline checks the nested section/video structure
func (v *Validator) ValidateCourseOutline(sections []models.Section) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool)
	for i, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sections[%d].title", i),
				Message: "section title is required",
				Rule:    "business_logic",
			})
		}
		for j, vid := range s.Videos {
			field := fmt.Sprintf("sections[%d].videos[%d]", i, j)
			if strings.TrimSpace(vid.Title) == "" {
				errs = append(errs, ValidationError{Field: field + ".title", Message: "video title is required", Rule: "business_logic"})
			}
			if err := v.validate.Var(vid.URL, "required,url"); err != nil {
				errs = append(errs, ValidationError{Field: field + ".url", Message: "video url must be a valid URL", Value: vid.URL, Rule: "url"})
			}
			if vid.ID != "" {
				if seen[vid.ID] {
					errs = append(errs, ValidationError{Field: field + ".id", Message: "duplicate video id", Value: vid.ID, Rule: "unique"})
				}
				seen[vid.ID] = true
			}
		}
	}

	return errs
}

// ValidateCoursePublish checks a course can be published
func (v *Validator) ValidateCoursePublish(course *models.Course) ValidationErrors {
	var errs ValidationErrors
	if course.TotalVideos() == 0 {
		errs = append(errs, ValidationError{
			Field:   "sections",
			Message: "course must contain at least one video before publishing",
			Rule:    "business_logic",
		})
	}
	if strings.TrimSpace(course.Description) == "" {
		errs = append(errs, ValidationError{
			Field:   "description",
			Message: "description is required before publishing",
			Rule:    "business_logic",
		})
	}
	return errs
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "course_title":
		return "must be between 3 and 200 characters"
	case "course_status":
		return "must be draft or published"
	case "user_role_registrable":
		return "must be student or instructor"
	case "user_role":
		return "must be student, instructor or admin"
	case "feedback_status":
		return "must be new, reviewed or resolved"
	case "contact_status":
		return "must be new, read, responded or closed"
	case "notification_audience":
		return "must be all, student or instructor"
	case "notification_status":
		return "must be active or archived"
	case "price":
		return "must be a non-negative amount with at most two decimals"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
