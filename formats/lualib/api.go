// SPDX-License-Identifier: EPL-2.0

package lualib

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/floe-audio/samplelib/library"
)

// libraryBuilder holds the library a script is building. Script-facing
// mistakes are raised as Lua errors so they surface as ErrorRuntime with
// a script traceback.
type libraryBuilder struct {
	dir string
	lib *library.Library
	err error
}

func (b *libraryBuilder) register(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "new_library", L.NewFunction(b.newLibrary))
	L.SetField(mod, "new_instrument", L.NewFunction(b.newInstrument))
	L.SetField(mod, "add_region", L.NewFunction(b.addRegion))
	L.SetField(mod, "add_ir", L.NewFunction(b.addIR))
	L.SetField(mod, "set_attribution", L.NewFunction(b.setAttribution))
	L.SetGlobal("floe", mod)
}

func (b *libraryBuilder) newLibrary(L *lua.LState) int {
	params := L.CheckTable(1)

	if b.lib != nil {
		L.RaiseError("floe.new_library called more than once")
		return 0
	}

	name := reqString(L, params, "name")
	author := reqString(L, params, "author")
	if len(name) > library.MaxNameSize || len(author) > library.MaxNameSize {
		L.RaiseError("library name and author must be at most %d bytes", library.MaxNameSize)
		return 0
	}

	b.lib = &library.Library{
		ID:                  library.LibraryID{Author: author, Name: name},
		Tagline:             optString(L, params, "tagline"),
		URL:                 optString(L, params, "url"),
		Description:         optString(L, params, "description"),
		MinorVersion:        uint32(optInt(L, params, "minor_version", 0)),
		IconPath:            optString(L, params, "icon"),
		BackgroundImagePath: optString(L, params, "background"),
		Insts:               map[string]*library.Instrument{},
		IRs:                 map[string]*library.ImpulseResponse{},
		Attributions:        map[string]library.Attribution{},
	}

	ud := L.NewUserData()
	ud.Value = b.lib
	L.Push(ud)
	return 1
}

func (b *libraryBuilder) newInstrument(L *lua.LState) int {
	lib := checkLibrary(L, 1)
	params := L.CheckTable(2)

	name := reqString(L, params, "name")
	if len(name) > library.MaxNameSize {
		L.RaiseError("instrument name must be at most %d bytes", library.MaxNameSize)
		return 0
	}
	if _, taken := lib.Insts[name]; taken {
		L.RaiseError("instrument %q already exists", name)
		return 0
	}

	inst := &library.Instrument{
		Library:           lib,
		Name:              name,
		Folder:            optString(L, params, "folder"),
		Description:       optString(L, params, "description"),
		Tags:              optStrings(L, params, "tags"),
		WaveformAudioPath: optString(L, params, "waveform_audio_path"),
	}
	lib.Insts[name] = inst

	ud := L.NewUserData()
	ud.Value = inst
	L.Push(ud)
	return 1
}

func (b *libraryBuilder) addRegion(L *lua.LState) int {
	inst := checkInstrument(L, 1)
	params := L.CheckTable(2)

	region := library.Region{
		Path:    reqString(L, params, "path"),
		RootKey: uint8(optInt(L, params, "root_key", 60)),
		GainDb:  float32(optFloat(L, params, "gain_db", 0)),
		Trigger: library.TriggerCriteria{
			Event:           library.TriggerNoteOn,
			KeyRange:        optRange(L, params, "key_range", library.Range{Start: 0, End: 128}),
			VelocityRange:   optRange(L, params, "velocity_range", library.Range{Start: 0, End: 100}),
			RoundRobinIndex: optInt(L, params, "round_robin", library.NoRoundRobin),
			FeatherOverlappingVelocityLayers: optBool(L, params, "feather_velocity_layers"),
		},
	}

	vr := region.Trigger.VelocityRange
	if !(0 <= vr.Start && vr.Start < vr.End && vr.End <= 100) {
		L.RaiseError("velocity_range must satisfy 0 <= start < end <= 100, got {%d, %d}",
			vr.Start, vr.End)
		return 0
	}

	switch optString(L, params, "trigger") {
	case "", "note-on":
	case "note-off":
		region.Trigger.Event = library.TriggerNoteOff
	default:
		L.RaiseError("trigger must be \"note-on\" or \"note-off\"")
		return 0
	}

	if tr := optRangePtr(L, params, "timbre_range"); tr != nil {
		region.TimbreLayerRange = tr
	}

	if loopVal := L.GetField(params, "loop"); loopVal != lua.LNil {
		loopTbl, ok := loopVal.(*lua.LTable)
		if !ok {
			L.RaiseError("loop must be a table")
			return 0
		}
		loop := &library.BuiltinLoop{
			StartFrame:      int64(optInt(L, loopTbl, "start", 0)),
			EndFrame:        int64(optInt(L, loopTbl, "end", -1)),
			CrossfadeFrames: uint32(optInt(L, loopTbl, "crossfade", 0)),
			LockLoopPoints:  optBool(L, loopTbl, "lock_points"),
			LockMode:        optBool(L, loopTbl, "lock_mode"),
		}
		switch optString(L, loopTbl, "mode") {
		case "", "standard":
			loop.Mode = library.LoopStandard
		case "ping-pong":
			loop.Mode = library.LoopPingPong
		default:
			L.RaiseError("loop mode must be \"standard\" or \"ping-pong\"")
			return 0
		}
		region.Loop.Builtin = loop
	}

	alwaysLoop := optBool(L, params, "always_loop")
	neverLoop := optBool(L, params, "never_loop")
	switch {
	case alwaysLoop && neverLoop:
		L.RaiseError("always_loop and never_loop are mutually exclusive")
		return 0
	case alwaysLoop:
		region.Loop.Requirement = library.LoopRequirementAlways
	case neverLoop:
		if region.Loop.Builtin != nil {
			L.RaiseError("never_loop regions cannot carry a loop")
			return 0
		}
		region.Loop.Requirement = library.LoopRequirementNever
	}

	inst.Regions = append(inst.Regions, region)
	return 0
}

func (b *libraryBuilder) addIR(L *lua.LState) int {
	lib := checkLibrary(L, 1)
	params := L.CheckTable(2)

	name := reqString(L, params, "name")
	if len(name) > library.MaxNameSize {
		L.RaiseError("ir name must be at most %d bytes", library.MaxNameSize)
		return 0
	}
	if _, taken := lib.IRs[name]; taken {
		L.RaiseError("ir %q already exists", name)
		return 0
	}

	lib.IRs[name] = &library.ImpulseResponse{
		Library: lib,
		Name:    name,
		Path:    reqString(L, params, "path"),
		Folder:  optString(L, params, "folder"),
		Tags:    optStrings(L, params, "tags"),
	}
	return 0
}

func (b *libraryBuilder) setAttribution(L *lua.LState) int {
	lib := checkLibrary(L, 1)
	path := L.CheckString(2)
	params := L.CheckTable(3)

	lib.Attributions[path] = library.Attribution{
		Title:        optString(L, params, "title"),
		AttributedTo: optString(L, params, "attributed_to"),
		License:      optString(L, params, "license"),
		LicenseURL:   optString(L, params, "license_url"),
		URL:          optString(L, params, "url"),
	}
	return 0
}

func checkLibrary(L *lua.LState, n int) *library.Library {
	ud := L.CheckUserData(n)
	lib, ok := ud.Value.(*library.Library)
	if !ok {
		L.RaiseError("argument %d must be a library handle", n)
		return nil
	}
	return lib
}

func checkInstrument(L *lua.LState, n int) *library.Instrument {
	ud := L.CheckUserData(n)
	inst, ok := ud.Value.(*library.Instrument)
	if !ok {
		L.RaiseError("argument %d must be an instrument handle", n)
		return nil
	}
	return inst
}

func reqString(L *lua.LState, tbl *lua.LTable, key string) string {
	v := L.GetField(tbl, key)
	s, ok := v.(lua.LString)
	if !ok || s == "" {
		L.RaiseError("%q is required and must be a string", key)
		return ""
	}
	return string(s)
}

func optString(L *lua.LState, tbl *lua.LTable, key string) string {
	if s, ok := L.GetField(tbl, key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func optInt(L *lua.LState, tbl *lua.LTable, key string, def int) int {
	if n, ok := L.GetField(tbl, key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func optFloat(L *lua.LState, tbl *lua.LTable, key string, def float64) float64 {
	if n, ok := L.GetField(tbl, key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

func optBool(L *lua.LState, tbl *lua.LTable, key string) bool {
	if v, ok := L.GetField(tbl, key).(lua.LBool); ok {
		return bool(v)
	}
	return false
}

func optStrings(L *lua.LState, tbl *lua.LTable, key string) []string {
	arr, ok := L.GetField(tbl, key).(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	arr.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

func optRange(L *lua.LState, tbl *lua.LTable, key string, def library.Range) library.Range {
	if r := optRangePtr(L, tbl, key); r != nil {
		return *r
	}
	return def
}

func optRangePtr(L *lua.LState, tbl *lua.LTable, key string) *library.Range {
	arr, ok := L.GetField(tbl, key).(*lua.LTable)
	if !ok {
		return nil
	}
	lo, loOK := arr.RawGetInt(1).(lua.LNumber)
	hi, hiOK := arr.RawGetInt(2).(lua.LNumber)
	if !loOK || !hiOK {
		L.RaiseError("%q must be a {start, end} pair", key)
		return nil
	}
	return &library.Range{Start: int(lo), End: int(hi)}
}
