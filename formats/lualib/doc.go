// SPDX-License-Identifier: EPL-2.0

// Package lualib reads the modern script-defined library format: a
// directory containing a floe.lua (or *.floe.lua) script which, when run,
// registers the library's instruments, regions and impulse responses
// through the floe table.
//
// Scripts run inside a sandbox: only the base, table, string and math
// libraries are opened, allocation is capped (128MiB by default) and a
// wall-clock deadline is enforced (20s by default). A minimal script:
//
//	local lib = floe.new_library({
//	    name = "Strings",
//	    author = "Floe",
//	    tagline = "Chamber strings",
//	})
//	local violin = floe.new_instrument(lib, { name = "Violin" })
//	floe.add_region(violin, {
//	    path = "samples/violin-60.flac",
//	    root_key = 60,
//	    key_range = { 0, 128 },
//	    velocity_range = { 0, 100 },
//	})
//	return lib
package lualib
