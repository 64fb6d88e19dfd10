// Package validate wraps go-playground struct validation behind a single
// shared instance and flattens failures into field-level detail records.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one failed field, named by its struct namespace.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s failed %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed %s", e.Field, e.Tag)
}

// Error carries every field failure from one Struct call.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v against its validate tags. A non-nil return is always
// a *Error; invalid usage of the validator itself panics.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		panic(err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.StructNamespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &Error{Fields: fields}
}
