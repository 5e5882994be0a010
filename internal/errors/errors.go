// Package errors carries classified errors through the generation pipeline.
//
// Every failure bindgen reports is an *E whose Code says which stage failed.
// Callers branch on codes with IsCode and read structured context, such as
// the source and destination of a failed job, with Detail.
//
//	err := errors.Newf(errors.CodeLayout, "%s: expected <tier>/<family>/<protocol>", file)
//	if errors.IsCode(err, errors.CodeLayout) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies an error by pipeline stage.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
	CodeEnumeration     Code = "ENUMERATION" // source root missing or unreadable
	CodeTranslation     Code = "TRANSLATION" // empty or malformed path segment
	CodeLayout          Code = "LAYOUT"      // source file does not match the declared tree shape
	CodeCollision       Code = "COLLISION"   // two sources resolve to one destination
	CodeInvocation      Code = "INVOCATION"  // generator missing, crashed or exited non-zero
	CodeCanceled        Code = "CANCELED"
)

// E is a classified error.
type E struct {
	Code    Code
	Op      string // stage-local operation, e.g. "resolve" or "generate"
	Err     error  // cause, may be nil
	Msg     string
	Details []any // alternating key/value pairs
}

// Error renders CODE[: op][: msg][: cause].
func (e *E) Error() string {
	parts := []string{string(e.Code)}
	for _, s := range []string{e.Op, e.Msg} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *E) Unwrap() error {
	return e.Err
}

func newE(code Code, op string, cause error, msg string) error {
	return &E{Code: code, Op: op, Err: cause, Msg: msg}
}

// New returns an error with code and msg.
func New(code Code, msg string) error {
	return newE(code, "", nil, msg)
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return newE(code, "", nil, fmt.Sprintf(format, args...))
}

// Wrap classifies err under code as a failure of op.
func Wrap(code Code, op string, err error) error {
	return newE(code, op, err, "")
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code Code, op string, err error, format string, args ...any) error {
	return newE(code, op, err, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the outermost *E in err's chain, or "".
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's outermost *E has code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Detail looks up key in the details of the outermost *E in err's chain.
func Detail(err error, key string) (any, bool) {
	var e *E
	if !errors.As(err, &e) {
		return nil, false
	}
	for i := 0; i+1 < len(e.Details); i += 2 {
		if k, ok := e.Details[i].(string); ok && k == key {
			return e.Details[i+1], true
		}
	}
	return nil, false
}

// As calls the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is calls the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Builder assembles an *E step by step.
type Builder struct {
	e E
}

// Build starts an error with code.
func Build(code Code) *Builder {
	return &Builder{e: E{Code: code}}
}

func (b *Builder) WithOp(op string) *Builder {
	b.e.Op = op
	return b
}

func (b *Builder) WithErr(err error) *Builder {
	b.e.Err = err
	return b
}

func (b *Builder) WithMsgf(format string, args ...any) *Builder {
	b.e.Msg = fmt.Sprintf(format, args...)
	return b
}

// WithDetails appends key/value pairs.
func (b *Builder) WithDetails(kv ...any) *Builder {
	b.e.Details = append(b.e.Details, kv...)
	return b
}

// Err returns a copy of the assembled error.
func (b *Builder) Err() error {
	e := b.e
	e.Details = append([]any(nil), b.e.Details...)
	return &e
}
