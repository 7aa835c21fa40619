package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/go-playground/validator/v10"
)

const (
	sep = " and "
)

type Error struct {
	FailedField string
	Tag         string
	Value       interface{}
}

// Errors lists every failed field of one struct.
type Errors []Error

func (e Errors) Error() string {
	errMsgs := make([]string, 0, len(e))
	for _, err := range e {
		errMsgs = append(errMsgs, fmt.Sprintf(constants.MessageErrorFormat, err.FailedField))
	}

	return strings.Join(errMsgs, sep)
}

type IXValidator interface {
	// Validate returns Errors when data fails its validate tags.
	Validate(data interface{}) error
}

type XValidator struct {
	validator *validator.Validate
	metrics   *metrics.Metrics
}

func NewXValidator(metrics *metrics.Metrics) IXValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report the wire name so messages match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	for key, function := range valid {
		if err := v.RegisterValidation(key, function); err != nil {
			panic(err)
		}
	}

	return &XValidator{
		validator: v,
		metrics:   metrics,
	}
}

func (x XValidator) Validate(data interface{}) error {
	err := x.validator.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	validationErrors := make(Errors, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		validationErrors = append(validationErrors, Error{
			FailedField: fieldErr.Field(),
			Tag:         fieldErr.Tag(),
			Value:       fieldErr.Value(),
		})
		x.metrics.RecordValidationError(fieldErr.Field(), fieldErr.Tag())
	}

	return validationErrors
}
