// Errors that carry the stack of the place they were created or first wrapped.
package oops

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Error struct {
	Inner StackTracer
}

func (err *Error) Error() string {
	return err.Inner.Error()
}

// Format with %+v prints the message followed by the stack, one frame per line
func (err *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%s", err.Inner.Error(), err.StackString())
		return
	}
	fmt.Fprint(s, err.Inner.Error())
}

func (err *Error) StackString() string {
	var b strings.Builder
	for i, frame := range err.StackTrace() {
		if i > 0 {
			fmt.Fprint(&b, "\n")
		}
		frameText, _ := frame.MarshalText()
		fmt.Fprint(&b, string(frameText))
	}
	return b.String()
}

func (err *Error) Is(target error) bool {
	return errors.Is(err.Inner, target)
}

func (err *Error) As(target any) bool {
	return errors.As(err.Inner, target)
}

func (err *Error) Unwrap() error {
	return errors.Unwrap(err.Inner)
}

func (err *Error) StackTrace() errors.StackTrace {
	return err.Inner.StackTrace()
}

type StackTracer interface {
	Error() string
	StackTrace() errors.StackTrace
}

// Wrap keeps an existing stack if there is one
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if oopsErr, ok := err.(*Error); ok {
		return oopsErr
	}

	return &Error{
		Inner: errors.WithStack(err).(StackTracer),
	}
}

func Wrapf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	inner := errors.Wrapf(err, format, a...)
	return &Error{
		Inner: inner.(StackTracer),
	}
}

func New(message string) error {
	return &Error{
		Inner: errors.New(message).(StackTracer),
	}
}

func Newf(format string, a ...any) error {
	return &Error{
		Inner: errors.Errorf(format, a...).(StackTracer),
	}
}
