// Package response holds the JSON error bodies shared by the HTTP handlers and
// middleware.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	EmptyRequestBody     = Error{Error: "Request body is empty"}
	InvalidRequestBody   = Error{Error: "Invalid request body"}
	UnsupportedMediaType = Error{Error: "Content-Type must be application/json"}
	ShortIDExists        = Error{Error: "The Short ID is already in use. Please try another ID."}
	LinkNotFound         = Error{Error: "Link not found"}
	InvalidToken         = Error{Error: "Invalid or expired token"}
	ServerError          = Error{Error: "Something went wrong"}
)

// Error is the body of every non-2xx API response.
type Error struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details []ValidationError `json:"details,omitempty"`
}

type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func issueForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "alphanum":
		return "Only letters and digits are allowed."
	case "max":
		return "Value is too long."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	details := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		details = append(details, ValidationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: issueForTag(e.Tag()),
		})
	}

	return details
}

// Validation builds a 400 body listing every failed field in err.
func Validation(err error) Error {
	return Error{
		Error:   "Invalid input",
		Details: getValidationErrors(err),
	}
}

// AuthFailed builds a 401 body carrying the identity provider's reason.
func AuthFailed(reason string) Error {
	return Error{
		Error:   "Authentication failed",
		Message: reason,
	}
}
