// SPDX-License-Identifier: EPL-2.0

package sample

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMemReader(t *testing.T) {
	t.Parallel()

	data := []byte("hello, world")
	r := NewMemReader(data)

	if r.Size() != int64(len(data)) {
		t.Fatalf("Size() = %d, want %d", r.Size(), len(data))
	}

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	if err != nil || n != 5 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	if string(buf) != "hello" {
		t.Errorf("Read() got %q", buf)
	}
	if r.Pos() != 5 {
		t.Errorf("Pos() = %d, want 5", r.Pos())
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != ", world" {
		t.Errorf("rest = %q", rest)
	}

	// EOF after exhaustion
	if n, err := r.Read(buf); n != 0 || err != io.EOF {
		t.Errorf("Read at EOF = %d, %v", n, err)
	}
}

func TestMemReader_ReadAllReturnsView(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3}
	r := NewMemReader(data)

	// consume some, then ReadAll must reset and return everything
	r.Read(make([]byte, 2))
	all, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if &all[0] != &data[0] {
		t.Error("memory-backed ReadAll should return a direct view")
	}
	if r.Pos() != 0 {
		t.Errorf("Pos() after ReadAll = %d, want 0", r.Pos())
	}
}

func TestFileReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("0123456789abcdef")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewFileReader(path)
	if err != nil {
		t.Fatalf("NewFileReader: %v", err)
	}
	defer r.Close()

	all, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(all, content) {
		t.Errorf("ReadAll = %q, want %q", all, content)
	}
}

func TestFileSectionReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("0123456789abcdef"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewFileSectionReader(path, 4, 6)
	if err != nil {
		t.Fatalf("NewFileSectionReader: %v", err)
	}
	defer r.Close()

	if r.Size() != 6 {
		t.Errorf("Size() = %d, want 6", r.Size())
	}

	all, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(all) != "456789" {
		t.Errorf("section = %q, want %q", all, "456789")
	}

	// Seek within the section and re-read
	if _, err := r.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	two := make([]byte, 2)
	if _, err := io.ReadFull(r, two); err != nil {
		t.Fatal(err)
	}
	if string(two) != "67" {
		t.Errorf("after seek = %q, want %q", two, "67")
	}
}

func TestFileReader_ReadAfterClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewFileReader(path)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()

	if _, err := r.Read(make([]byte, 1)); err != ErrReaderClosed {
		t.Errorf("Read after Close = %v, want ErrReaderClosed", err)
	}
}
