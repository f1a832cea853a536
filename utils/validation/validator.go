package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sahilchouksey/smart-campus-api/model"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag   = "notblank"
	campusRoleTag = "campus_role"
	signupRoleTag = "signup_role"
	eventTypeTag  = "event_type"
	attendanceTag = "attendance_status"
	placementTag  = "placement_status"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Field names in messages follow the JSON body, not the Go struct
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlank)
	_ = Validate.RegisterValidation(campusRoleTag, stringIs(model.IsValidRole))
	_ = Validate.RegisterValidation(signupRoleTag, stringIs(func(r string) bool {
		return r == "" || r == model.RoleStudent || r == model.RoleFaculty
	}))
	_ = Validate.RegisterValidation(eventTypeTag, stringIs(func(t string) bool { return model.EventType(t).Valid() }))
	_ = Validate.RegisterValidation(attendanceTag, stringIs(func(s string) bool { return model.AttendanceStatus(s).Valid() }))
	_ = Validate.RegisterValidation(placementTag, stringIs(func(s string) bool { return model.PlacementStatus(s).Valid() }))

	registerCustomTranslations(notBlankTag, campusRoleTag, signupRoleTag, eventTypeTag, attendanceTag, placementTag)
}

// registerCustomTranslations registers messages for the custom tags. The defaults are already
// registered, so a noop register func is enough.
func registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case campusRoleTag:
		return "role must be one of student, faculty, admin"
	case signupRoleTag:
		return "role must be student or faculty"
	case eventTypeTag:
		return "type is not a known event type"
	case attendanceTag:
		return "status must be one of present, absent, late"
	case placementTag:
		return "status is not a known placement status"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return true
}

func stringIs(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return ok(fl.Field().String())
	}
}

// Struct validates s and returns a field to message map, or nil when s is valid.
// Errors other than field failures are returned as err.
func Struct(s interface{}) (map[string]string, error) {
	err := Validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	return FieldErrors(verrs), nil
}

// FieldErrors translates validation errors keyed by the JSON field path
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		// drop the struct name prefix
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		out[key] = fe.Translate(Translator)
	}
	return out
}
