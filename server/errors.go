// SPDX-License-Identifier: EPL-2.0

package server

import "errors"

var (
	// ErrNotFound indicates a library, instrument or impulse response
	// could not be resolved by name.
	ErrNotFound = errors.New("not found")
	// ErrServerClosed indicates a request arrived after Close.
	ErrServerClosed = errors.New("server closed")
)
