package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"cv-evaluator-be/internal/entity"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindNotFound       Kind = "SESSION_NOT_FOUND"
	KindQuotaExhausted Kind = "PROMPT_LIMIT_REACHED"
	KindRateLimited    Kind = "GROQ_RATE_LIMIT"
	KindFileTooLarge   Kind = "FILE_TOO_LARGE"
	KindInvalidFile    Kind = "INVALID_FILE_TYPE"
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindInternal       Kind = "INTERNAL_ERROR"
)

const (
	MsgSessionNotFound = "Session not found or access denied"
	MsgPromptLimit     = "Prompt limit reached"
	MsgRateLimited     = "AI service is temporarily unavailable. Please try again in a moment."
	MsgFileTooLarge    = "File size exceeds the 10MB limit"
	MsgInvalidFileType = "Only PDF files are allowed"
	MsgMissingFile     = "No PDF file uploaded. Use field name 'cv'"
	MsgAIFailure       = "Failed to get AI response"
)

// Error is the single error type crossing the service boundary. The HTTP
// layer maps Kind to a status code and body.
type Error struct {
	Kind       Kind
	Message    string
	PromptInfo *entity.PromptInfo
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound() *Error {
	return New(KindNotFound, MsgSessionNotFound)
}

func QuotaExhausted(info entity.PromptInfo) *Error {
	return &Error{Kind: KindQuotaExhausted, Message: MsgPromptLimit, PromptInfo: &info}
}

func RateLimited(err error) *Error {
	return Wrap(KindRateLimited, MsgRateLimited, err)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsNotFound(err error) bool       { return Is(err, KindNotFound) }
func IsQuotaExhausted(err error) bool { return Is(err, KindQuotaExhausted) }
func IsRateLimited(err error) bool    { return Is(err, KindRateLimited) }

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindFileTooLarge, KindInvalidFile:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExhausted:
		return http.StatusTooManyRequests
	case KindRateLimited:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
