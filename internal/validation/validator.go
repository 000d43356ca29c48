package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/and161185/supermock-admin/internal/errs"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags
const (
	emailTag   = "smemail"
	isoDateTag = "isodate"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = validate.RegisterValidation(isoDateTag, func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	registerTranslation(emailTag, "{0} must be a valid email address")
	registerTranslation(isoDateTag, "{0} must be a date in YYYY-MM-DD format")

	for _, class := range []AccountClass{ClassStaff, ClassStudent} {
		p := policies[class]
		_ = validate.RegisterValidation(p.Tag, func(fl validator.FieldLevel) bool {
			return p.Check(fl.Field().String())
		})
		registerTranslation(p.Tag, p.Message)
	}
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// Struct validates v and returns an *errs.ValidationError listing every violation, plus extra problems.
func Struct(v any, extra ...string) error {
	problems := append([]string(nil), extra...)
	if err := validate.Struct(v); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		for _, fe := range ves {
			if reported(extra, fe.Field()) {
				continue
			}
			problems = append(problems, fe.Translate(translator))
		}
	}
	return errs.Invalid(problems...)
}

func reported(extra []string, field string) bool {
	for _, p := range extra {
		if strings.HasPrefix(p, field+" ") {
			return true
		}
	}
	return false
}
