package ragErrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Transient
	InputShape
	DimensionMismatch
	DuplicateID
	StoreUnreachable
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case InputShape:
		return "input_shape"
	case DimensionMismatch:
		return "dimension_mismatch"
	case DuplicateID:
		return "duplicate_id"
	case StoreUnreachable:
		return "store_unreachable"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Recoverable errors skip a batch; everything else aborts the book.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case Transient, DuplicateID:
		return true
	default:
		return false
	}
}
