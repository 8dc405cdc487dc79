package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound              = "NOT_FOUND"
	CodeBadRequest            = "BAD_REQUEST"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeUnknownConversation   = "UNKNOWN_CONVERSATION"
	CodeUnauthorizedSender    = "UNAUTHORIZED_SENDER"
	CodeDuplicateConversation = "DUPLICATE_CONVERSATION"
	CodeUploadRejected        = "UPLOAD_REJECTED"
	CodeUploadFailed          = "UPLOAD_FAILED"
	CodeSendFailed            = "SEND_FAILED"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
	// Details is returned to the client as-is (e.g. the unsent draft).
	Details interface{}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func UnknownConversation(conversationID string) *AppError {
	return &AppError{
		Code:    CodeUnknownConversation,
		Message: fmt.Sprintf("conversation %s does not exist", conversationID),
		Status:  http.StatusNotFound,
	}
}

func UnauthorizedSender(userID, conversationID string) *AppError {
	return &AppError{
		Code:    CodeUnauthorizedSender,
		Message: fmt.Sprintf("user %s is not a participant of conversation %s", userID, conversationID),
		Status:  http.StatusForbidden,
	}
}

func DuplicateConversation(existingID string) *AppError {
	return &AppError{
		Code:    CodeDuplicateConversation,
		Message: "an active conversation already exists for these participants",
		Status:  http.StatusConflict,
		Details: map[string]string{"conversation_id": existingID},
	}
}

func UploadRejected(reason string) *AppError {
	status := http.StatusBadRequest
	if reason == ReasonTooLarge {
		status = http.StatusRequestEntityTooLarge
	}
	return &AppError{
		Code:    CodeUploadRejected,
		Message: "upload rejected: " + reason,
		Status:  status,
		Details: map[string]string{"reason": reason},
	}
}

func UploadFailed(err error) *AppError {
	return &AppError{
		Code:    CodeUploadFailed,
		Message: "upload failed, please retry",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// SendFailed keeps the draft so the caller can retry without retyping.
func SendFailed(draft string, err error) *AppError {
	return &AppError{
		Code:    CodeSendFailed,
		Message: "message could not be sent, please retry",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
		Details: map[string]string{"draft": draft},
	}
}

// Upload rejection reasons.
const (
	ReasonTooLarge       = "file_too_large"
	ReasonEmpty          = "file_empty"
	ReasonTypeNotAllowed = "file_type_not_allowed"
	ReasonTooManyFiles   = "too_many_files"
)

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the AppError code of err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// As is errors.As, re-exported so callers need a single errors import.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
