// Package validation checks input DTOs and reports every rejected field at once.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("weekname", func(fl validator.FieldLevel) bool {
			return models.ValidWeekName(fl.Field().String())
		})
		_ = v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
			return models.Day(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// Struct validates s against its `validate` tags. It returns nil or an
// apperror validation error listing every failing field.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid input: %v", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field: fieldPath(fe.Namespace()),
			Rule:  rule(fe),
			Value: fe.Value(),
		})
	}
	return apperror.Invalid(fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
