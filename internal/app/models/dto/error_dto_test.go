package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestHandleValidationError(t *testing.T) {
	type input struct {
		Title string `validate:"required"`
	}
	err := validator.New().Struct(input{})
	detail := HandleValidationError(err)
	if detail.Code != ErrorCodeValidationFailed || detail.Field != "Title" || detail.Details == nil {
		t.Fatalf("field failure = %+v", detail)
	}

	// An empty list still satisfies errors.As and must not index past it.
	detail = HandleValidationError(validator.ValidationErrors{})
	if detail.Message != "Invalid request format" || detail.Field != "" {
		t.Fatalf("empty list = %+v", detail)
	}

	detail = HandleValidationError(errors.New("unexpected EOF"))
	if detail.Message != "Invalid request format" {
		t.Fatalf("malformed body = %+v", detail)
	}
}
