package model

import "fmt"

type ErrorWithCode interface {
	Error() string
	Code() string
}

// Error is an API-facing error. The code is stable; the message is for humans.
type Error struct {
	ErrCode string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Code() string {
	return e.ErrCode
}

// Is matches any Error with the same code, so formatted errors still match
// their template: errors.Is(ErrFileNotFound.Fmt(key), ErrFileNotFound).
func (e Error) Is(target error) bool {
	switch t := target.(type) {
	case Error:
		return t.ErrCode == e.ErrCode
	case *Error:
		return t != nil && t.ErrCode == e.ErrCode
	}
	return false
}

// Fmt fills the message template with args.
func (e Error) Fmt(args ...any) Error {
	return Error{
		ErrCode: e.ErrCode,
		Message: fmt.Sprintf(e.Message, args...),
	}
}

func NewError(code, message string) Error {
	return Error{
		ErrCode: code,
		Message: message,
	}
}

var (
	ErrValidation = NewError("validation", "Validation error: %s")
	ErrInternal   = NewError("internal", "Internal error")
	ErrBadRequest = NewError("request.invalid", "Invalid request: %v")

	ErrInvalidPath      = NewError("path.invalid", "Invalid path %q")
	ErrFileNotFound     = NewError("file.not_found", "File %s not found")
	ErrAccessDenied     = NewError("file.access_denied", "Access to %s denied")
	ErrObjectStore      = NewError("object_store.io", "Object store failure on %s: %s")
	ErrUploadIncomplete = NewError("upload.incomplete", "Upload of %s left incomplete: %s")
	ErrMoveNotAtomic    = NewError("move.non_atomic", "Copied %s but failed to delete the source: %s")

	ErrSessionNotFound     = NewError("session.not_found", "Session %s not found")
	ErrSessionNotAbortable = NewError("session.not_abortable", "Session %s is %s and cannot be aborted")
)
