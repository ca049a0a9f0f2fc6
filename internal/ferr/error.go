package ferr

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// MaxStackFrames bounds how many frames New/Wrap capture.
const MaxStackFrames = 16

// StackFrame is one captured call-site.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error is FlowSTT's structured error type. It implements the standard
// error interface and Unwrap, so it composes with errors.Is/As.
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time
	operation string
	details   map[string]any
	stack     []StackFrame
}

// New creates a fresh, uncaused error.
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]any),
		stack:     captureStack(2),
	}
}

// Wrap attaches additional context to err. If err is already a *Error its
// code and severity are inherited unless overridden afterward with
// WithCode/WithSeverity. Wrap(nil, ...) returns nil, the same
// convenience layered error-wrapping styles commonly offer.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return &Error{
			message:   message,
			cause:     fe,
			code:      fe.code,
			severity:  fe.severity,
			timestamp: time.Now(),
			details:   make(map[string]any),
			stack:     captureStack(2),
		}
	}
	return &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]any),
		stack:     captureStack(2),
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCode sets the error code and, unless a non-default severity has
// already been set explicitly, derives severity from the code.
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	if e.severity == SeverityMedium {
		e.severity = code.Severity()
	}
	return e
}

func (e *Error) WithSeverity(s Severity) *Error {
	e.severity = s
	return e
}

func (e *Error) WithOperation(op string) *Error {
	e.operation = op
	return e
}

func (e *Error) WithDetail(key string, value any) *Error {
	e.details[key] = value
	return e
}

func (e *Error) Code() Code            { return e.code }
func (e *Error) Severity() Severity    { return e.severity }
func (e *Error) Operation() string     { return e.operation }
func (e *Error) Timestamp() time.Time  { return e.timestamp }

// Transient reports whether the underlying code marks this as a
// drop-and-continue condition versus a persistent abort condition.
func (e *Error) Transient() bool { return e.code.Transient() }

func (e *Error) Details() map[string]any {
	out := make(map[string]any, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

func (e *Error) StackTrace() []StackFrame {
	out := make([]StackFrame, len(e.stack))
	copy(out, e.stack)
	return out
}

func (e *Error) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s/%s]", e.message, e.code, e.severity)
	if e.operation != "" {
		fmt.Fprintf(&b, " op=%s", e.operation)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %s", e.cause.Error())
	}
	return b.String()
}

func captureStack(skip int) []StackFrame {
	frames := make([]StackFrame, 0, MaxStackFrames)
	for i := skip; i < skip+MaxStackFrames; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		name := "?"
		if fn != nil {
			name = fn.Name()
		}
		frames = append(frames, StackFrame{Function: name, File: file, Line: line})
	}
	return frames
}

// GetCode returns the error code carried by err, or CodeUnknown if err is not
// (or does not wrap) a *Error.
func GetCode(err error) Code {
	var fe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			fe = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if fe == nil {
		return CodeUnknown
	}
	return fe.code
}

// IsTransient reports whether err (or a wrapped *Error within it) should be
// treated as transient per the propagation rule.
func IsTransient(err error) bool {
	return GetCode(err).Transient()
}
