package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidNotificationType ErrorCode = "INVALID_NOTIFICATION_TYPE"
	ErrCodeInvalidRole             ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"

	ErrCodeNotificationPersistFailed ErrorCode = "NOTIFICATION_PERSIST_FAILED"
	ErrCodeNotificationQueryFailed   ErrorCode = "NOTIFICATION_QUERY_FAILED"
	ErrCodeStatusUpdateFailed        ErrorCode = "STATUS_UPDATE_FAILED"
	ErrCodeDatabaseConnectionFailed  ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeMigrationFailed           ErrorCode = "MIGRATION_FAILED"

	ErrCodeDirectoryLookupFailed ErrorCode = "DIRECTORY_LOOKUP_FAILED"

	ErrCodeRecipientsEmpty   ErrorCode = "RECIPIENTS_EMPTY"
	ErrCodeTransportFailed   ErrorCode = "TRANSPORT_FAILED"
	ErrCodeSearchIndexFailed ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false, nil)
}

func NewInvalidNotificationTypeError(notificationType string) *StandardError {
	return newError(ErrCodeInvalidNotificationType, "Unknown notification type",
		fmt.Sprintf("type: %s", notificationType), false, nil)
}

func NewInvalidRoleError(role string) *StandardError {
	return newError(ErrCodeInvalidRole, "Role must be ADMIN or FRANCHISEE",
		fmt.Sprintf("role: %s", role), false, nil)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Notification status can only move from UNREAD to READ",
		fmt.Sprintf("from: %s, to: %s", from, to), false, nil)
}

func NewNotificationPersistFailedError(err error) *StandardError {
	return newError(ErrCodeNotificationPersistFailed, "Failed to persist notification", err.Error(), true, err)
}

func NewNotificationQueryFailedError(err error) *StandardError {
	return newError(ErrCodeNotificationQueryFailed, "Failed to query notifications", err.Error(), true, err)
}

func NewStatusUpdateFailedError(err error) *StandardError {
	return newError(ErrCodeStatusUpdateFailed, "Failed to update notification status", err.Error(), true, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewMigrationFailedError(err error) *StandardError {
	return newError(ErrCodeMigrationFailed, "Schema migration failed", err.Error(), false, err)
}

func NewDirectoryLookupFailedError(lookup string, err error) *StandardError {
	return newError(ErrCodeDirectoryLookupFailed, "Recipient directory lookup failed",
		fmt.Sprintf("lookup: %s, error: %s", lookup, err.Error()), true, err)
}

func NewRecipientsEmptyError(notificationType string) *StandardError {
	return newError(ErrCodeRecipientsEmpty, "no valid recipients",
		fmt.Sprintf("type: %s", notificationType), false, nil)
}

func NewTransportFailedError(transport string, err error) *StandardError {
	return newError(ErrCodeTransportFailed, fmt.Sprintf("Transport '%s' failed", transport), err.Error(), true, err)
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Search indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// As returns the StandardError in err's chain, if any.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:          "NOTIFICATION_INVALID",
	ErrCodeInvalidNotificationType:   "NOTIFICATION_INVALID",
	ErrCodeInvalidRole:               "NOTIFICATION_INVALID",
	ErrCodeInvalidStatusTransition:   "NOTIFICATION_INVALID",
	ErrCodeNotificationPersistFailed: "NOTIFICATION_PERSIST_FAILED",
	ErrCodeNotificationQueryFailed:   "NOTIFICATION_QUERY_FAILED",
	ErrCodeStatusUpdateFailed:        "NOTIFICATION_STATUS_UPDATE_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNotificationPersistFailed,
		ErrCodeNotificationQueryFailed,
		ErrCodeStatusUpdateFailed,
		ErrCodeDatabaseConnectionFailed:
		return 3

	case ErrCodeDirectoryLookupFailed,
		ErrCodeTransportFailed,
		ErrCodeSearchIndexFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PERSIST") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "MIGRATION") ||
		strings.Contains(codeStr, "STATUS_UPDATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "DIRECTORY"):
		return "DIRECTORY"
	case strings.Contains(codeStr, "RECIPIENTS") || strings.Contains(codeStr, "TRANSPORT") ||
		strings.Contains(codeStr, "SEARCH"):
		return "DELIVERY"
	case strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error onto the status code the API should answer with.
func HTTPStatus(err error) int {
	switch GetErrorCategory(CodeOf(err)) {
	case "VALIDATION":
		return http.StatusBadRequest
	case "AUTH":
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
