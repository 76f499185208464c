// SPDX-License-Identifier: EPL-2.0

package lualib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/zeebo/xxh3"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
)

// Sandbox defaults.
const (
	DefaultMaxMemoryMB = 128
	DefaultMaxDuration = 20 * time.Second
)

// Options caps the sandbox a library script runs under.
type Options struct {
	MaxMemoryMB int           // 0 means DefaultMaxMemoryMB
	MaxDuration time.Duration // 0 means DefaultMaxDuration
}

// Specifics is the Lua-private state attached to a Library.
type Specifics struct {
	// Dir is the library's directory; Open resolves paths under it.
	Dir string
	// ScriptPath is the script the library was built from.
	ScriptPath string
}

func (*Specifics) FileFormatName() string { return "lua" }

// IsLibraryFilename reports whether name is a library script: floe.lua,
// *.floe.lua, or the older config.lua spelling.
func IsLibraryFilename(name string) bool {
	base := filepath.Base(name)
	return base == "floe.lua" || base == "config.lua" || strings.HasSuffix(base, ".floe.lua")
}

// FindScript locates the library script in dir.
func FindScript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && IsLibraryFilename(entry.Name()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no library script in %s", dir)
}

// ReadDir locates and runs the library script in dir.
func ReadDir(dir string, opts Options) (*library.Library, error) {
	script, err := FindScript(dir)
	if err != nil {
		return nil, &Error{Kind: ErrorUnexpected, Msg: err.Error()}
	}
	return Read(script, opts)
}

// Read runs the script at scriptPath in the sandbox and returns the
// library it registered.
func Read(scriptPath string, opts Options) (*library.Library, error) {
	if opts.MaxMemoryMB == 0 {
		opts.MaxMemoryMB = DefaultMaxMemoryMB
	}
	if opts.MaxDuration == 0 {
		opts.MaxDuration = DefaultMaxDuration
	}

	scriptBytes, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, &Error{Kind: ErrorUnexpected, Msg: err.Error()}
	}

	dir := filepath.Dir(scriptPath)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Sandbox: only the harmless parts of the standard library.
	for _, openLib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(openLib.fn))
		L.Push(lua.LString(openLib.name))
		L.Call(1, 0)
	}

	L.SetMx(opts.MaxMemoryMB)

	ctx, cancel := context.WithTimeout(context.Background(), opts.MaxDuration)
	defer cancel()
	L.SetContext(ctx)

	builder := &libraryBuilder{dir: dir}
	builder.register(L)

	if err := L.DoString(string(scriptBytes)); err != nil {
		return nil, classifyError(err, ctx)
	}

	if builder.lib == nil {
		return nil, &Error{Kind: ErrorRuntime, Msg: "script did not call floe.new_library"}
	}
	if builder.err != nil {
		return nil, builder.err
	}

	lib := builder.lib
	for _, inst := range lib.Insts {
		if inst.WaveformAudioPath == "" && len(inst.Regions) > 0 {
			inst.WaveformAudioPath = defaultWaveformPath(inst.Regions)
		}
	}
	lib.Path = dir
	lib.Hash = xxh3.Hash(scriptBytes)
	lib.FileFormat = &Specifics{Dir: dir, ScriptPath: scriptPath}
	lib.Open = openFunc(dir)

	library.Finalize(lib)
	return lib, nil
}

// defaultWaveformPath picks the GUI waveform when the script does not name
// one: the region rooted closest to middle C, ties by registration order.
func defaultWaveformPath(regions []library.Region) string {
	best := 0
	bestDist := 128
	for i := range regions {
		dist := int(regions[i].RootKey) - 60
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return regions[best].Path
}

// openFunc resolves library-relative paths under the script's directory.
// Paths may not escape it.
func openFunc(dir string) library.OpenFunc {
	return func(libraryPath string) (*sample.Reader, error) {
		clean := filepath.Clean(filepath.FromSlash(libraryPath))
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("library path escapes library: %s", libraryPath)
		}
		return sample.NewFileReader(filepath.Join(dir, clean))
	}
}

func classifyError(err error, ctx context.Context) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "out of memory"):
		return &Error{Kind: ErrorMemory, Msg: msg}
	case ctx.Err() != nil:
		return &Error{Kind: ErrorTimeout, Msg: msg}
	}

	if apiErr, ok := err.(*lua.ApiError); ok {
		switch apiErr.Type {
		case lua.ApiErrorSyntax, lua.ApiErrorFile:
			return &Error{Kind: ErrorSyntax, Msg: msg}
		case lua.ApiErrorRun, lua.ApiErrorError:
			return &Error{Kind: ErrorRuntime, Msg: msg}
		}
	}

	return &Error{Kind: ErrorUnexpected, Msg: msg}
}
