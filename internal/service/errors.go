package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = repository.ErrUsernameTaken
	ErrNotFound           = repository.ErrNotFound
	ErrUnauthorized       = middleware.ErrUnauthorized
	ErrForbidden          = middleware.ErrForbidden
)

// Validation error codes
const (
	CodeMissingFields = "missing_fields"
	CodeInvalidRole   = "invalid_role"
	CodeInvalidField  = "invalid_field"
)

// ValidationError reports input that was rejected before touching storage
type ValidationError struct {
	Code    string
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func missingFields(values map[string]string, order ...string) *ValidationError {
	var missing []string
	for _, name := range order {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{
		Code:    CodeMissingFields,
		Message: "username and password are required",
		Fields:  missing,
	}
}

func checkLimits(username, password string) *ValidationError {
	var fields []string
	if utf8.RuneCountInString(username) > model.MaxUsernameLength {
		fields = append(fields, "username")
	}
	if len(password) > model.MaxPasswordBytes {
		fields = append(fields, "password")
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{
		Code:    CodeInvalidField,
		Message: "username must be at most 80 characters and password at most 72 bytes",
		Fields:  fields,
	}
}
