package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDetect Phase = "detect" // format detection
	PhaseDecode Phase = "decode" // bytes to tree
	PhaseEncode Phase = "encode" // tree to bytes
	PhaseDiff   Phase = "diff"   // tree comparison
	PhaseApply  Phase = "apply"  // patch application
	PhaseLink   Phase = "link"   // token linkage inference
	PhaseScript Phase = "script" // patch script parsing
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidMagic     Kind = "invalid_magic"
	KindTruncated        Kind = "truncated"
	KindUnknownFieldType Kind = "unknown_field_type"
	KindLabelTooLong     Kind = "label_too_long"
	KindTypeMismatch     Kind = "type_mismatch"
	KindNotFound         Kind = "not_found"
	KindWrongContainer   Kind = "wrong_container"
	KindUnresolvedToken  Kind = "unresolved_token"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidData      Kind = "invalid_data"
	KindDuplicateLabel   Kind = "duplicate_label"
)

// Error is the structured error type used throughout the toolkit.
//
// I/O errors from the operating system are never converted into this type;
// they propagate as returned by the os package so callers can distinguish a
// missing file from a corrupt one.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int // byte offset into the source, -1 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "\\"))
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the tree path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset into the source
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidMagic creates an unrecognized-magic error
func InvalidMagic(phase Phase, magic []byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidMagic,
		Detail: fmt.Sprintf("unrecognized magic %q", magic),
		Value:  magic,
		Offset: 0,
	}
}

// Truncated creates a truncated-input error at the given byte offset
func Truncated(phase Phase, offset int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Detail: fmt.Sprintf("input ends inside %s", what),
		Offset: offset,
	}
}

// UnknownFieldType creates an unknown field-type tag error
func UnknownFieldType(phase Phase, tag uint32, offset int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownFieldType,
		Detail: fmt.Sprintf("field type tag %d", tag),
		Value:  tag,
		Offset: offset,
	}
}

// LabelTooLong creates an over-length label error
func LabelTooLong(phase Phase, label string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLabelTooLong,
		Detail: fmt.Sprintf("label %q exceeds 16 bytes", label),
		Value:  label,
		Offset: -1,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("want %s, got %s", want, got),
		Offset: -1,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Path:   path,
		Detail: what,
		Offset: -1,
	}
}

// WrongContainer creates a wrong-container-kind error
func WrongContainer(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindWrongContainer,
		Path:   path,
		Detail: fmt.Sprintf("want %s, got %s", want, got),
		Offset: -1,
	}
}

// UnresolvedToken creates an unresolved-token error
func UnresolvedToken(phase Phase, token int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnresolvedToken,
		Detail: fmt.Sprintf("token #%d has no value", token),
		Value:  token,
		Offset: -1,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
		Offset: -1,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
		Offset: -1,
	}
}

// DuplicateLabel creates a duplicate-label error
func DuplicateLabel(phase Phase, path []string, label string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateLabel,
		Path:   path,
		Detail: fmt.Sprintf("label %q already present", label),
		Value:  label,
		Offset: -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Offset: -1,
	}
}
