// SPDX-License-Identifier: EPL-2.0

package mdata

import "errors"

var (
	ErrInvalidFileFormat = errors.New("invalid mdata file format")
	ErrFileNotInLibrary  = errors.New("path not present in mdata library")
)
