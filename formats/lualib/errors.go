// SPDX-License-Identifier: EPL-2.0

package lualib

import "fmt"

// ErrorKind classifies a failed script run.
type ErrorKind uint8

const (
	ErrorUnexpected ErrorKind = iota
	ErrorMemory
	ErrorSyntax
	ErrorRuntime
	ErrorTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMemory:
		return "memory"
	case ErrorSyntax:
		return "syntax"
	case ErrorRuntime:
		return "runtime"
	case ErrorTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

// Error is a failure from running a library script.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lua library (%s): %s", e.Kind, e.Msg)
}
