// Package apperr defines the application error taxonomy and the table that
// turns any error into a short message safe to show a user.
//
// Workflows return *Error values (or wrap them); handlers and the
// notification path call UserMessage and HTTPStatus:
//
//	if errors.Is(err, apperr.ErrTaskNotFound) { ... }
//	if apperr.Classify(err) == apperr.KindUnavailable { ... }
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dukerupert/chorequest/internal/docstore"
)

// Kind is the coarse error category.
type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindNotFound               Kind = "not_found"
	KindInvalidInput           Kind = "invalid_input"
	KindUnavailable            Kind = "unavailable"
	KindUnknown                Kind = "unknown"
)

// Code identifies a specific failure within a Kind.
type Code string

const (
	CodeTaskNotFound         Code = "TASK_NOT_FOUND"
	CodeInvalidHouseholdCode Code = "INVALID_HOUSEHOLD_CODE"
	CodeTaskCompleted        Code = "TASK_COMPLETED"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeEmailInUse           Code = "EMAIL_IN_USE"
	CodeWeakPassword         Code = "WEAK_PASSWORD"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeNoHousehold          Code = "NO_HOUSEHOLD"
	CodeNotMember            Code = "NOT_MEMBER"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches a target *Error by Code when the target has one, otherwise by
// Kind. errors.Is(ErrTaskNotFound, ErrNotFound) is therefore true.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// Sentinels without a Code match any error of their Kind.
var (
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired, Message: "authentication required"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrUnavailable            = &Error{Kind: KindUnavailable, Message: "service unavailable"}
	ErrUnknown                = &Error{Kind: KindUnknown, Message: "unknown error"}

	ErrTaskNotFound         = &Error{Kind: KindNotFound, Code: CodeTaskNotFound, Message: "task not found"}
	ErrInvalidHouseholdCode = &Error{Kind: KindNotFound, Code: CodeInvalidHouseholdCode, Message: "invalid household code"}
	ErrTaskCompleted        = &Error{Kind: KindInvalidInput, Code: CodeTaskCompleted, Message: "task already completed"}
	ErrInvalidCredentials   = &Error{Kind: KindAuthenticationRequired, Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrEmailInUse           = &Error{Kind: KindInvalidInput, Code: CodeEmailInUse, Message: "email already in use"}
	ErrWeakPassword         = &Error{Kind: KindInvalidInput, Code: CodeWeakPassword, Message: "weak password"}
	ErrInvalidToken         = &Error{Kind: KindAuthenticationRequired, Code: CodeInvalidToken, Message: "invalid or expired token"}
	ErrNoHousehold          = &Error{Kind: KindInvalidInput, Code: CodeNoHousehold, Message: "user is not in a household"}
	ErrNotMember            = &Error{Kind: KindInvalidInput, Code: CodeNotMember, Message: "user is not a member of the household"}
)

// New creates an error of kind with a custom message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err and wraps it with msg. A nil err returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Code: e.Code, Message: msg, Details: e.Details, cause: err}
	}
	return &Error{Kind: Classify(err), Message: msg, cause: err}
}

// Invalid creates an invalid-input error with per-field details.
func Invalid(msg string, details any) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg, Details: details}
}

// Classify returns the Kind of err. Errors from the document store and
// context cancellation are mapped to their kinds; anything else is
// KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return KindNotFound
	case errors.Is(err, docstore.ErrInvalidName):
		return KindInvalidInput
	case errors.Is(err, docstore.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindUnavailable
	}
	return KindUnknown
}

// CodeOf returns the Code of the first *Error in err's chain, if any.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var codeMessages = map[Code]string{
	CodeTaskNotFound:         "This task no longer exists.",
	CodeInvalidHouseholdCode: "Invalid household code. Please check the code and try again.",
	CodeTaskCompleted:        "This task has already been completed.",
	CodeInvalidCredentials:   "Incorrect email or password. Please try again.",
	CodeEmailInUse:           "This email is already registered. Please use a different email or try signing in.",
	CodeWeakPassword:         "Password is too weak. Please use a stronger password.",
	CodeInvalidToken:         "Your session has expired. Please sign in again.",
	CodeNoHousehold:          "Create or join a household first.",
	CodeNotMember:            "That person is not a member of your household.",
}

var kindMessages = map[Kind]string{
	KindAuthenticationRequired: "Please sign in to continue.",
	KindNotFound:               "The requested information could not be found.",
	KindInvalidInput:           "Please check your input and try again.",
	KindUnavailable:            "Service temporarily unavailable. Please try again later.",
	KindUnknown:                "An unexpected error occurred. Please try again later.",
}

// UserMessage returns a short non-technical message for err. Raw error text
// is never returned.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := codeMessages[CodeOf(err)]; ok {
		return msg
	}
	return kindMessages[Classify(err)]
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeEmailInUse, CodeTaskCompleted:
		return http.StatusConflict
	}
	switch Classify(err) {
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
