// SPDX-License-Identifier: EPL-2.0

// Package samplelib reads sample libraries and serves their audio to
// real-time consumers.
//
// A sample library is a named collection of instruments, where each
// instrument maps key and velocity ranges to audio files. Two on-disk
// formats are supported:
//
//   - MDATA, a legacy binary container that embeds its audio files
//     (formats/mdata)
//   - Lua, a script (floe.lua) evaluated in a sandbox that declares the
//     library and references audio files next to it (formats/lualib)
//
// Both formats produce the same in-memory model, defined in the library
// package. The sample package decodes the referenced audio (WAV, FLAC,
// Ogg Vorbis, MP3 and raw 16-bit PCM) into float32 frames.
//
// # Quick start
//
// ReadLibrary reads a single library from disk, picking the format from
// the path:
//
//	lib, err := samplelib.ReadLibrary("/libraries/Strings.mdata")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, inst := range lib.SortedInsts {
//		fmt.Println(inst.Name)
//	}
//
// For applications that need many libraries kept warm, watched for
// changes and loaded without blocking an audio thread, use the server
// package instead:
//
//	srv := server.New(server.Config{
//		AlwaysScannedFolders: []string{"/libraries"},
//	})
//	defer srv.Close()
//
// The state package decodes legacy preset files that reference
// instruments by library and name.
package samplelib
