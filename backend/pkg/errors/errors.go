package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeSchema represents malformed preference schema errors
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypePreference represents errors turning a user into a tree path
	ErrorTypePreference ErrorType = "preference"
	// ErrorTypeGraph represents social graph errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeValidation represents user record validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStore represents user store (Neo4j) errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType lets IsErrorType see through the typed errors below
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Schema Errors

// SchemaError is returned when a preference schema cannot build a tree
type SchemaError struct {
	*BaseError
	Category string
	Reason   string
}

func NewSchemaError(category, reason string) *SchemaError {
	return &SchemaError{
		BaseError: NewBaseError(ErrorTypeSchema, fmt.Sprintf("invalid schema at %q: %s", category, reason), nil),
		Category:  category,
		Reason:    reason,
	}
}

// Preference Errors

// BucketError is returned when a rent midpoint falls in no band
type BucketError struct {
	*BaseError
	UserID   int
	Midpoint int
}

func NewBucketError(userID, midpoint int) *BucketError {
	return &BucketError{
		BaseError: NewBaseError(ErrorTypePreference, fmt.Sprintf("rent midpoint %d of user %d fits no band", midpoint, userID), nil),
		UserID:    userID,
		Midpoint:  midpoint,
	}
}

// LookupError is returned when a preference value has no child in the tree.
// It signals a schema/data mismatch and is never absorbed.
type LookupError struct {
	*BaseError
	UserID   int
	Category string
	Choice   string
}

func NewLookupError(userID int, category, choice string) *LookupError {
	return &LookupError{
		BaseError: NewBaseError(ErrorTypePreference, fmt.Sprintf("no %q branch for value %q (user %d)", category, choice, userID), nil),
		UserID:    userID,
		Category:  category,
		Choice:    choice,
	}
}

// Graph Errors

// DuplicateUserError is returned when a vertex id is added twice
type DuplicateUserError struct {
	*BaseError
	UserID int
}

func NewDuplicateUser(userID int) *DuplicateUserError {
	return &DuplicateUserError{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("user already in graph: %d", userID), nil),
		UserID:    userID,
	}
}

// UserNotFoundError is returned when an operation references an unknown user
type UserNotFoundError struct {
	*BaseError
	UserID int
}

func NewUserNotFound(userID int) *UserNotFoundError {
	return &UserNotFoundError{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("user not found: %d", userID), nil),
		UserID:    userID,
	}
}

// InvalidTransitionError is returned when a request or accept is attempted
// on a pair that is not in the required prior state
type InvalidTransitionError struct {
	*BaseError
	From       int
	To         int
	Transition string
}

func NewInvalidTransition(transition string, from, to int, reason string) *InvalidTransitionError {
	return &InvalidTransitionError{
		BaseError:  NewBaseError(ErrorTypeGraph, fmt.Sprintf("cannot %s %d -> %d: %s", transition, from, to, reason), nil),
		From:       from,
		To:         to,
		Transition: transition,
	}
}

// Validation Errors

// ValidationError is returned when a user record is incomplete or out of range
type ValidationError struct {
	*BaseError
	UserID int
	Fields []string
}

func NewValidationError(userID int, fields []string) *ValidationError {
	return &ValidationError{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid user %d: %s", userID, strings.Join(fields, "; ")), nil),
		UserID:    userID,
		Fields:    fields,
	}
}

// Store Errors

// ErrStoreConnectionFailed is returned when the Neo4j connection fails
type ErrStoreConnectionFailed struct {
	*BaseError
	URI string
}

func NewStoreConnectionFailed(uri string, err error) *ErrStoreConnectionFailed {
	return &ErrStoreConnectionFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrStoreQueryFailed is returned when a store query fails
type ErrStoreQueryFailed struct {
	*BaseError
	Operation string
}

func NewStoreQueryFailed(operation string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type typedError interface {
	ErrorType() ErrorType
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(typedError); ok {
		return te.ErrorType() == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Only the store talks to the network; everything else is a caller bug
	if _, ok := err.(*ErrStoreConnectionFailed); ok {
		return true
	}
	return IsErrorType(err, ErrorTypeStore)
}
