package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const errInvalidBody = "Invalid request body"

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request structs
// and makes validation errors report JSON field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("emailx", func(fl validator.FieldLevel) bool {
			return domain.EmailPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", layoutValidator(domain.TimeLayout))
		_ = v.RegisterValidation("isodate", layoutValidator(domain.DateLayout))
	})
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// bindJSON binds the body and converts binding failures to a 400 domain error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.Validation(fieldMessage(verrs[0]))
	}
	return &domain.Error{Kind: domain.KindValidation, Message: errInvalidBody, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is a required field", field)
	case "min":
		return fmt.Sprintf("%q should have a minimum length of %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%q must not be more than %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), "'", ""))
	case "emailx":
		return fmt.Sprintf("%q is not valid", field)
	case "hhmm":
		return fmt.Sprintf("%q must be in HH:mm format (e.g., '09:00')", field)
	case "isodate":
		return fmt.Sprintf("%q must be in YYYY-MM-DD format (e.g., '2023-01-01')", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
