package filesystem

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure so callers can map it to a transport status.
type Kind string

const (
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindNotADirectory      Kind = "not_a_directory"
	KindAlreadyExists      Kind = "already_exists"
	KindInvalidName        Kind = "invalid_name"
	KindInvalidArchive     Kind = "invalid_archive"
	KindUnsafeEntry        Kind = "unsafe_entry"
	KindUnsupportedFormat  Kind = "unsupported_format"
	KindSupportUnavailable Kind = "support_unavailable"
	KindSizeExceeded       Kind = "size_exceeded"
	KindDecodeFailure      Kind = "decode_failure"
	KindInvalidChunk       Kind = "invalid_chunk"
	KindIOFailure          Kind = "io_failure"
	KindCorruptArchive     Kind = "corrupt_archive"
)

// Error is the failure value returned by every engine operation.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Msg  string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNotADirectory      = &Error{Kind: KindNotADirectory}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrInvalidName        = &Error{Kind: KindInvalidName}
	ErrInvalidArchive     = &Error{Kind: KindInvalidArchive}
	ErrUnsafeEntry        = &Error{Kind: KindUnsafeEntry}
	ErrUnsupportedFormat  = &Error{Kind: KindUnsupportedFormat}
	ErrSupportUnavailable = &Error{Kind: KindSupportUnavailable}
	ErrSizeExceeded       = &Error{Kind: KindSizeExceeded}
	ErrDecodeFailure      = &Error{Kind: KindDecodeFailure}
	ErrInvalidChunk       = &Error{Kind: KindInvalidChunk}
	ErrIOFailure          = &Error{Kind: KindIOFailure}
	ErrCorruptArchive     = &Error{Kind: KindCorruptArchive}
)

// Error returns the human-readable message shown to clients.
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap exposes the underlying OS or format error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindIOFailure for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIOFailure
}

func newError(kind Kind, op, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ioError wraps an OS error as an IOFailure, keeping the OS message.
func ioError(op, path, what string, err error) *Error {
	return &Error{Kind: KindIOFailure, Op: op, Path: path, Msg: fmt.Sprintf("%s: %v", what, err), Err: err}
}
