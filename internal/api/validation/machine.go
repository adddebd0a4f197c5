package validation

import (
	"regexp"
	"strings"
)

var macIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9:_-]{2,62}[A-Za-z0-9]$`)

// BindRequest mirrors the fields needed for bind validation.
type BindRequest struct {
	MacID string
	Code  string
}

// ValidateBindRequest validates the fields of a machine bind request.
func ValidateBindRequest(req BindRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateMacID(req.MacID)...)

	if req.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "code is required"})
	}

	return errs
}

// CreateMachineRequest mirrors the fields needed for machine creation
// validation.
type CreateMachineRequest struct {
	MacID string
	Code  string
	Name  string
}

// ValidateCreateMachineRequest validates the fields of a machine creation
// request.
func ValidateCreateMachineRequest(req CreateMachineRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateMacID(req.MacID)...)

	if req.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "code is required"})
	} else if len(req.Code) < 6 {
		errs = append(errs, FieldError{Field: "code", Message: "code must be at least 6 characters"})
	}

	if len(req.Name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	return errs
}

// AppendLogRequest mirrors the fields needed for log ingest validation.
type AppendLogRequest struct {
	MacID  string
	Code   string
	OpType string
}

// ValidateAppendLogRequest validates the fields of a log ingest request.
func ValidateAppendLogRequest(req AppendLogRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateMacID(req.MacID)...)

	if req.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "code is required"})
	}
	if strings.TrimSpace(req.OpType) == "" {
		errs = append(errs, FieldError{Field: "opType", Message: "opType is required"})
	}

	return errs
}

func validateMacID(macID string) []FieldError {
	if macID == "" {
		return []FieldError{{Field: "macId", Message: "macId is required"}}
	}
	if !macIDRegex.MatchString(macID) {
		return []FieldError{{Field: "macId", Message: "macId must be 4-64 characters of letters, digits, colons, underscores, or hyphens"}}
	}
	return nil
}
