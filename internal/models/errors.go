package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error taxonomy shared by stores, services and handlers
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidReference     = errors.New("invalid reference")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// ValidationError carries per-field messages for a rejected input
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidReferenceError lists ids that do not resolve to an existing entity
type InvalidReferenceError struct {
	Kind string
	IDs  []string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown %s %s", ErrInvalidReference, e.Kind, strings.Join(e.IDs, ", "))
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}
