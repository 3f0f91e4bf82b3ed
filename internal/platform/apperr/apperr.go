package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for machine handling. Callers branch on Kind,
// humans read Error().
type Kind string

const (
	KindValidation         Kind = "validation"
	KindInvalidBuilder     Kind = "invalid_builder"
	KindBuilderNotFound    Kind = "builder_not_found"
	KindPromptConstruction Kind = "prompt_construction"
	KindGeneration         Kind = "generation"
	KindNotFound           Kind = "not_found"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
	// Fields carries diagnostic context (challenge_id, user_id, prompt kind,
	// raw builder result, ...). Never used for control flow.
	Fields map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithField returns e with an extra diagnostic field attached.
func (e *Error) WithField(key string, val any) *Error {
	if e == nil {
		return nil
	}
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = val
	return e
}

// IsKind reports whether err (or anything it wraps) is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err carries no kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
