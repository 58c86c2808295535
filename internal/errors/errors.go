// Package errors provides centralized error definitions and error handling utilities
// for somectl. It defines domain-specific errors, semantic error types, error
// constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - APIError: a non-2xx response or transport failure from the REST backend
//   - AuthError: the session could not be authenticated
//   - TenantError: the tenant selection is missing, stale, or rejected
//   - OperationError: a read or mutation against a resource failed
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input, rejected before any request is sent
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewAPIError("GET", "/user", 403, "no account")
//	err := errors.NewValidationError("publish time is in the past").WithField("publishAt")
//	err := errors.NewMutationError("schedule", "post", id, cause)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNoAccount) { ... }
//
//	var apiErr *errors.APIError
//	if errors.As(err, &apiErr) { ... }
//
//	switch errors.Classify(err) {
//	case errors.CategoryAuth: // redirect to registration/login
//	case errors.CategoryTenant: // drop the selection and re-prompt
//	case errors.CategoryValidation: // block and show inline
//	case errors.CategoryRead: // render an empty/error state
//	case errors.CategoryMutation: // keep local state, notify, allow resubmission
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrUnauthenticated indicates the backend rejected the bearer token.
	ErrUnauthenticated = New("not authenticated")
	// ErrNoAccount indicates the identity exists but no account is provisioned.
	ErrNoAccount = New("no account provisioned")
	// ErrTokenExpired indicates the configured bearer token has expired.
	ErrTokenExpired = New("token expired")
	// ErrMissingToken indicates no bearer token is configured.
	ErrMissingToken = New("no token configured")
)

// Tenant-related sentinel errors
var (
	// ErrNoTenants indicates the session is not entitled to any tenant.
	ErrNoTenants = New("no tenants available")
	// ErrTenantNotSelected indicates a tenant-scoped call was attempted without a tenant.
	ErrTenantNotSelected = New("no tenant selected")
	// ErrStaleTenant indicates the persisted tenant is not in the session's tenant list.
	ErrStaleTenant = New("stored tenant is no longer available")
	// ErrTenantForbidden indicates the backend refused the tenant header.
	ErrTenantForbidden = New("tenant access denied")
)

// Review-related sentinel errors
var (
	// ErrMutationPending indicates an approve or reject is already in flight.
	ErrMutationPending = New("another update is still pending")
	// ErrReadOnly indicates the post is published and cannot be edited.
	ErrReadOnly = New("post is published and read-only")
	// ErrEmptyQueue indicates the review queue has no items.
	ErrEmptyQueue = New("review queue is empty")
	// ErrNotOpen indicates no post has been loaded into the editor.
	ErrNotOpen = New("no post is open")
	// ErrAlreadyUpdated indicates the editor's post was already approved or
	// rejected.
	ErrAlreadyUpdated = New("post was already updated")
	// ErrClosed indicates the controller has been torn down.
	ErrClosed = New("controller closed")
	// ErrPastSchedule indicates the requested publish time is in the past.
	ErrPastSchedule = New("cannot schedule in the past")
)

// General sentinel errors
var (
	// ErrNotFound indicates that a resource could not be found.
	ErrNotFound = New("not found")
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrServerUnavailable indicates the backend could not be reached.
	ErrServerUnavailable = New("service unavailable")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ClientError is the base interface for all somectl errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type ClientError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed when the user re-submits it.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// APIError represents a failed call to the REST backend. StatusCode is zero
// when the request never produced a response (transport failure).
//
// Example:
//
//	err := errors.NewAPIError("GET", "/user", 403, "user not registered")
//	fmt.Println(err) // "api error [GET /user, status=403]: user not registered"
type APIError struct {
	baseError
	Method     string
	Path       string
	StatusCode int
}

// NewAPIError creates a new APIError. Server errors (5xx), 429 and transport
// failures are retryable; client errors are not.
func NewAPIError(method, path string, statusCode int, message string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(statusCode)
		if message == "" {
			message = "request failed"
		}
	}
	return &APIError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			retryable:  statusCode == 0 || statusCode == http.StatusTooManyRequests || statusCode >= 500,
			userFacing: true,
		},
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
	}
}

// NewTransportError creates an APIError for a request that produced no response.
func NewTransportError(method, path string, cause error) *APIError {
	e := NewAPIError(method, path, 0, "request failed")
	e.cause = cause
	return e
}

// Message returns the server-supplied error message without decoration.
func (e *APIError) Message() string {
	return e.message
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	var parts []string
	if e.Method != "" || e.Path != "" {
		parts = append(parts, strings.TrimSpace(e.Method+" "+e.Path))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	prefix := "api error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("api error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target. Status codes map onto the
// sentinel errors so callers can test with errors.Is.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized && target == ErrUnauthenticated:
		return true
	case e.StatusCode == http.StatusNotFound && target == ErrNotFound:
		return true
	case e.StatusCode == 0 && target == ErrServerUnavailable:
		return true
	case e.StatusCode == http.StatusServiceUnavailable && target == ErrServerUnavailable:
		return true
	}
	return e.baseError.Is(target)
}

// AuthError represents a session that could not be authenticated.
//
// Example:
//
//	err := errors.NewAuthError("no account provisioned", errors.ErrNoAccount).
//		WithStatusCode(403).WithRegistrationURL("https://app.example.com/register")
type AuthError struct {
	baseError
	StatusCode      int
	RegistrationURL string
}

// NewAuthError creates a new AuthError.
func NewAuthError(message string, cause error) *AuthError {
	return &AuthError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithStatusCode records the HTTP status that triggered the error.
func (e *AuthError) WithStatusCode(code int) *AuthError {
	e.StatusCode = code
	return e
}

// WithRegistrationURL records where the user should go to register.
func (e *AuthError) WithRegistrationURL(url string) *AuthError {
	e.RegistrationURL = url
	return e
}

// NeedsRegistration reports whether the user must register before continuing.
func (e *AuthError) NeedsRegistration() bool {
	return errors.Is(e.cause, ErrNoAccount)
}

// Error returns the formatted error message.
func (e *AuthError) Error() string {
	prefix := "auth error"
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("auth error [status=%d]", e.StatusCode)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *AuthError) Is(target error) bool {
	if _, ok := target.(*AuthError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TenantError represents a missing, stale, or rejected tenant selection.
//
// Example:
//
//	err := errors.NewTenantError("stored tenant not in list", errors.ErrStaleTenant).WithTenantID("t-1")
type TenantError struct {
	baseError
	TenantID string
}

// NewTenantError creates a new TenantError.
func NewTenantError(message string, cause error) *TenantError {
	return &TenantError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithTenantID adds a tenant ID to the error context.
func (e *TenantError) WithTenantID(id string) *TenantError {
	e.TenantID = id
	return e
}

// Error returns the formatted error message.
func (e *TenantError) Error() string {
	prefix := "tenant error"
	if e.TenantID != "" {
		prefix = fmt.Sprintf("tenant error [tenant=%s]", e.TenantID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TenantError) Is(target error) bool {
	if _, ok := target.(*TenantError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// OperationError represents a failed read or mutation of a backend resource.
// Mutation failures leave local state unchanged and may be re-submitted.
//
// Example:
//
//	err := errors.NewMutationError("schedule", "post", "p-1", cause)
//	fmt.Println(err) // "schedule post 'p-1' failed: ..."
type OperationError struct {
	baseError
	Operation    string
	ResourceType string
	ResourceID   string
	Mutation     bool
}

func newOperationError(op, resourceType, resourceID string, mutation bool, cause error) *OperationError {
	return &OperationError{
		baseError: baseError{
			message:    op + " " + resourceType,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
		Operation:    op,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Mutation:     mutation,
	}
}

// NewReadError creates an OperationError for a failed fetch.
func NewReadError(op, resourceType string, cause error) *OperationError {
	return newOperationError(op, resourceType, "", false, cause)
}

// NewMutationError creates an OperationError for a failed update.
func NewMutationError(op, resourceType, resourceID string, cause error) *OperationError {
	return newOperationError(op, resourceType, resourceID, true, cause)
}

// Error returns the formatted error message.
func (e *OperationError) Error() string {
	subject := e.Operation + " " + e.ResourceType
	if e.ResourceID != "" {
		subject = fmt.Sprintf("%s '%s'", subject, e.ResourceID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s failed: %v", subject, e.cause)
	}
	return subject + " failed"
}

// Is checks if this error matches the target.
func (e *OperationError) Is(target error) bool {
	if _, ok := target.(*OperationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("post", "abc123")
//	fmt.Println(err) // "post 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input that is rejected client-side,
// before any request is sent.
//
// Example:
//
//	err := errors.NewValidationError("file is too large (max 5 MB)")
//	err = err.WithField("file").WithValue("holiday.png")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Message returns the validation message without decoration.
func (e *ValidationError) Message() string {
	return e.message
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// Category groups errors by how the client must react to them.
type Category int

const (
	// CategoryUnknown is for errors that fit no other category.
	CategoryUnknown Category = iota
	// CategoryAuth errors redirect the user to registration or login.
	CategoryAuth
	// CategoryTenant errors drop the stale tenant selection and re-prompt.
	CategoryTenant
	// CategoryValidation errors block the request and are shown inline.
	CategoryValidation
	// CategoryRead errors render an empty or error state without retry.
	CategoryRead
	// CategoryMutation errors keep local state and surface a notification.
	CategoryMutation
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryAuth:
		return "auth"
	case CategoryTenant:
		return "tenant"
	case CategoryValidation:
		return "validation"
	case CategoryRead:
		return "read"
	case CategoryMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Classify maps an error onto the client's error taxonomy. The most specific
// wrapper wins: validation is checked before tenant and auth, and an
// OperationError decides between read and mutation only when nothing more
// specific is found in its chain.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var validation *ValidationError
	if As(err, &validation) {
		return CategoryValidation
	}

	var tenantErr *TenantError
	if As(err, &tenantErr) || Is(err, ErrTenantForbidden) {
		return CategoryTenant
	}

	var authErr *AuthError
	if As(err, &authErr) || Is(err, ErrUnauthenticated) || Is(err, ErrTokenExpired) || Is(err, ErrMissingToken) {
		return CategoryAuth
	}

	var opErr *OperationError
	if As(err, &opErr) {
		if opErr.Mutation {
			return CategoryMutation
		}
		return CategoryRead
	}

	var apiErr *APIError
	if As(err, &apiErr) {
		return CategoryRead
	}

	return CategoryUnknown
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed when re-submitted. This checks for:
//   - Errors implementing ClientError with IsRetryable() returning true
//   - Errors wrapping ErrTimeout or ErrServerUnavailable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var clientErr ClientError
	if As(err, &clientErr) {
		return clientErr.IsRetryable()
	}

	return Is(err, ErrTimeout) || Is(err, ErrServerUnavailable)
}

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    notify(err.Error())
//	} else {
//	    notify("An internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var clientErr ClientError
	if As(err, &clientErr) {
		return clientErr.IsUserFacing()
	}

	return false
}

// UserMessage returns the part of err worth showing in a notification: the
// bare validation message, the backend's message for API errors, or the
// full error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if As(err, &verr) {
		return verr.Message()
	}
	var apiErr *APIError
	if As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ClientError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var clientErr ClientError
	if As(err, &clientErr) {
		return clientErr.Severity()
	}

	return SeverityError
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var apiErr *APIError
	if As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var authErr *AuthError
	if As(err, &authErr) {
		return authErr.StatusCode
	}
	return 0
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this preserves the ClientError interface.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load calendar")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load post %s", postID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
