package validation

import (
	"net/mail"
	"strings"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// ValidateRegisterRequest validates the fields of a registration request.
// Returns a slice of field errors; empty slice means valid.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateEmail(req.Email)...)

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	} else if len(req.Password) > 72 {
		// bcrypt input limit
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 characters"})
	}

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(req.Name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if req.Role != "" && req.Role != "user" && req.Role != "company" {
		errs = append(errs, FieldError{Field: "role", Message: "role must be user or company"})
	}

	return errs
}

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates the fields of a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	if req.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

func validateEmail(email string) []FieldError {
	if email == "" {
		return []FieldError{{Field: "email", Message: "email is required"}}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return []FieldError{{Field: "email", Message: "email must be a valid address"}}
	}
	return nil
}
