// SPDX-License-Identifier: EPL-2.0

package sample

import (
	"fmt"
	"io"
	"os"
)

// Reader is a byte source over either a whole file, a bounded
// [start, start+size) section of a file, or an in-memory span.
//
// File-backed readers keep their own file handle and seek to
// base+pos before every read, so several Readers may share one
// underlying file without interfering. Memory-backed readers never
// touch the filesystem.
type Reader struct {
	f    *os.File // nil when memory-backed
	mem  []byte   // nil when file-backed
	base int64    // section start within the file
	size int64
	pos  int64
}

// NewFileReader opens a Reader over the entire file at path.
func NewFileReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &Reader{f: f, size: st.Size()}, nil
}

// NewFileSectionReader opens a Reader over the [start, start+size) section
// of the file at path.
func NewFileSectionReader(path string, start, size int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Reader{f: f, base: start, size: size}, nil
}

// NewMemReader wraps an in-memory span. The Reader does not copy b;
// the caller must keep it alive and unmodified.
func NewMemReader(b []byte) *Reader {
	return &Reader{mem: b, size: int64(len(b))}
}

// Size returns the total logical size of the source in bytes.
func (r *Reader) Size() int64 { return r.size }

// Pos returns the current logical read position.
func (r *Reader) Pos() int64 { return r.pos }

func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}

	remaining := r.size - r.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	if r.mem != nil {
		n := copy(p, r.mem[r.pos:])
		r.pos += int64(n)
		return n, nil
	}

	if r.f == nil {
		return 0, ErrReaderClosed
	}

	n, err := r.f.ReadAt(p, r.base+r.pos)
	r.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read %s: %w", r.f.Name(), err)
	}
	return n, err
}

// Seek implements io.Seeker over the logical [0, Size()) range.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	r.pos = abs
	return abs, nil
}

// ReadAll resets the position and returns the full contents. Memory-backed
// readers return a direct view; file-backed readers return a fresh copy.
func (r *Reader) ReadAll() ([]byte, error) {
	r.pos = 0

	if r.mem != nil {
		return r.mem, nil
	}

	if r.f == nil {
		return nil, ErrReaderClosed
	}

	buf := make([]byte, r.size)
	n, err := r.f.ReadAt(buf, r.base)
	if err != nil && !(err == io.EOF && int64(n) == r.size) {
		return nil, fmt.Errorf("read %s: %w", r.f.Name(), err)
	}
	return buf[:n], nil
}

// Close releases the file handle, if any. Reads after Close fail with
// ErrReaderClosed for file-backed readers; memory-backed readers are
// unaffected.
func (r *Reader) Close() error {
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}
