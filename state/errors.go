// SPDX-License-Identifier: EPL-2.0

package state

import "errors"

var (
	// ErrInvalidFormat indicates the payload is not a JSON preset document.
	ErrInvalidFormat = errors.New("invalid preset format")
	// ErrVersionTooNew indicates the preset was saved by a newer release
	// than this decoder understands.
	ErrVersionTooNew = errors.New("preset version is too new")
)
