package workflow

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable class of a workflow error
type Kind string

// Error kinds
const (
	KindValidation       Kind = "validation_error"
	KindPermissionDenied Kind = "permission_denied"
	KindConflict         Kind = "conflict"
	KindLocked           Kind = "locked"
	KindNotFound         Kind = "not_found"
)

// Store sentinels. Stores return these, the engine translates them into kinds.
var (
	ErrNotFound   = errors.New("document not found")
	ErrStaleWrite = errors.New("document was modified concurrently")
	ErrDuplicate  = errors.New("unique constraint violated")
	ErrReadOnly   = errors.New("write attempted in a read-only view")
)

// ErrLateCallback marks a gateway answer for a payment the scheduler already expired
var ErrLateCallback = errors.New("gateway callback arrived after the payment expired")

// Error is a rejected transition. Nothing was written when one is returned.
type Error struct {
	Kind    Kind
	Message string
	Err     error
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

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindConflict}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// KindOf returns the kind of a workflow error, or "" for anything unexpected
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

func validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func deniedf(format string, args ...interface{}) error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func lockedf(format string, args ...interface{}) error {
	return &Error{Kind: KindLocked, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// load wraps a store lookup so a missing row becomes a NotFound naming the entity
func load[T any](v *T, err error, entity string, id int64) (*T, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, notFoundf("%s %d not found", entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", entity, id, err)
	}
	return v, nil
}

// translate maps store sentinels that escape a transaction to their kinds
func translate(err error) error {
	if err == nil || KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, ErrStaleWrite):
		return &Error{Kind: KindConflict, Message: "state changed concurrently, reload and retry", Err: err}
	case errors.Is(err, ErrDuplicate):
		return &Error{Kind: KindConflict, Message: "conflicting record already exists", Err: err}
	case errors.Is(err, ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "referenced record not found", Err: err}
	}
	return err
}
