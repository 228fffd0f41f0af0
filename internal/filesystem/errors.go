package filesystem

import (
	"errors"
	"fmt"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// Kind discriminates the failures surfaced by FileSystem operations.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNotFound means the target key is absent.
	KindNotFound
	// KindAccessDenied means the store answered with a forbidden status.
	KindAccessDenied
	// KindIO covers any failure transferring bytes to or from the store.
	KindIO
	// KindSessionIncomplete means a multipart session was left on the store
	// after at least one part was uploaded but before completion succeeded.
	KindSessionIncomplete
	// KindNonAtomicMove means the copy of a move succeeded but the delete
	// failed, so the object exists at both locations.
	KindNonAtomicMove
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAccessDenied:
		return "access denied"
	case KindIO:
		return "i/o failure"
	case KindSessionIncomplete:
		return "multipart session incomplete"
	case KindNonAtomicMove:
		return "non-atomic move"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by FileSystem, Writer and reader
// operations.
type Error struct {
	Kind Kind
	Op   string
	Path Path
	// UploadID and Parts are set for failures inside a multipart session.
	UploadID string
	Parts    int
	Err      error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrIO                = &Error{Kind: KindIO}
	ErrSessionIncomplete = &Error{Kind: KindSessionIncomplete}
	ErrNonAtomicMove     = &Error{Kind: KindNonAtomicMove}
)

// ErrWriterClosed is returned by a Writer used after Close.
var ErrWriterClosed = errors.New("filesystem: writer closed")

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + " " + e.Path.Key() + ": " + msg
	}
	if e.UploadID != "" {
		msg += fmt.Sprintf(" (upload %s, %d parts)", e.UploadID, e.Parts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// classify maps a store failure onto the error taxonomy.
func classify(op string, p Path, err error) *Error {
	kind := KindIO
	switch objectstore.StatusOf(err) {
	case objectstore.StatusNotFound:
		kind = KindNotFound
	case objectstore.StatusForbidden:
		kind = KindAccessDenied
	}
	return &Error{Kind: kind, Op: op, Path: p, Err: err}
}
