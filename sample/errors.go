// SPDX-License-Identifier: EPL-2.0

package sample

import "errors"

var (
	ErrUnsupportedContainer = errors.New("audio container not supported")
	ErrNotMonoOrStereo      = errors.New("audio is not mono or stereo")
	ErrInvalidData          = errors.New("audio file has invalid data")
	ErrReaderClosed         = errors.New("reader is closed")
)
