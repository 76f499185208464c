// SPDX-License-Identifier: EPL-2.0

package state

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/floe-audio/samplelib/formats/mdata"
	"github.com/floe-audio/samplelib/library"
)

// WaveformType is a built-in oscillator a layer can use instead of a
// sampled instrument.
type WaveformType uint8

const (
	WaveformSine WaveformType = iota
	WaveformWhiteNoiseStereo
	WaveformWhiteNoiseMono
)

func (w WaveformType) String() string {
	switch w {
	case WaveformSine:
		return "Sine"
	case WaveformWhiteNoiseStereo:
		return "White Noise"
	case WaveformWhiteNoiseMono:
		return "White Noise (Mono)"
	}
	return "Unknown"
}

// waveformPrefix marks a layer path as a built-in waveform rather than
// a sampled instrument.
const waveformPrefix = "#Special: "

// InstrumentKind discriminates an InstrumentChoice.
type InstrumentKind uint8

const (
	InstrumentNone InstrumentKind = iota
	InstrumentWaveform
	InstrumentSampled
)

// InstrumentChoice is what a layer plays: nothing, a built-in waveform,
// or a sampled instrument from a library.
type InstrumentChoice struct {
	Kind       InstrumentKind
	Waveform   WaveformType
	Instrument library.InstrumentID
}

// StateSnapshot is a fully resolved preset: every parameter has a
// linear value, every layer has an instrument choice, and the effect
// order is a complete permutation.
type StateSnapshot struct {
	Params     []float32
	Layers     [NumLayers]InstrumentChoice
	IR         *library.IrID
	FxOrder    []EffectType
	Version    Version
	PresetName string
}

func (s *StateSnapshot) get(idx ParamIndex) float32    { return s.Params[idx] }
func (s *StateSnapshot) set(idx ParamIndex, v float32) { s.Params[idx] = v }

// Param returns the linear value of a parameter.
func (s *StateSnapshot) Param(idx ParamIndex) float32 { return s.Params[idx] }

// LayerParam returns the linear value of a layer-local parameter.
func (s *StateSnapshot) LayerParam(layer int, p LayerParam) float32 {
	return s.Params[LayerParamIndex(layer, p)]
}

type presetDoc struct {
	Master struct {
		Version          uint32 `json:"version"`
		LastLoadedPreset struct {
			Name    string `json:"name"`
			Changed bool   `json:"changed"`
		} `json:"last loaded preset"`
	} `json:"master"`
	Library struct {
		Name string `json:"name"`
	} `json:"library"`
	Layers []struct {
		Path string `json:"path"`
	} `json:"layers"`
	FxOrder []string     `json:"fx_order"`
	Params  []paramEntry `json:"params"`
}

type paramEntry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// DecodeState decodes a JSON preset payload. Unknown parameter names
// are ignored, missing parameters are backfilled with defaults, retired
// parameters are translated, and version-gated patches are applied.
func DecodeState(data []byte) (*StateSnapshot, error) {
	var doc presetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	version := Version(doc.Master.Version)
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: preset %d.%d.%d, decoder %d.%d.%d",
			ErrVersionTooNew,
			version.Major(), version.Minor(), version.Patch(),
			CurrentVersion.Major(), CurrentVersion.Minor(), CurrentVersion.Patch())
	}

	snap := &StateSnapshot{
		Params:     defaultParams(),
		Version:    version,
		PresetName: doc.Master.LastLoadedPreset.Name,
	}

	retired := make(retiredSet)
	for _, entry := range doc.Params {
		if lookup, ok := paramsByName[entry.Name]; ok {
			applyParam(snap, lookup, entry.Value)
			continue
		}
		if key, ok := retiredByName[entry.Name]; ok {
			retired[key] = retiredFromValue(entry.Value)
		}
		// Anything else came from a build we never shipped; skip it.
	}

	translateRetired(snap, retired)

	snap.FxOrder = backfillFxOrder(doc.FxOrder)

	for i := 0; i < NumLayers && i < len(doc.Layers); i++ {
		snap.Layers[i] = parseInstrumentChoice(doc.Layers[i].Path, doc.Library.Name)
	}

	applyVersionPatches(snap, version)
	return snap, nil
}

func applyParam(snap *StateSnapshot, lookup paramLookup, raw any) {
	info := infoFor(lookup.Index)
	switch v := raw.(type) {
	case float64:
		snap.set(lookup.Index, linearise(info, lookup.Projection, float32(v)))
	case bool:
		snap.set(lookup.Index, linearise(info, projectNone, boolToFloat(v)))
	case string:
		if info.Menu == nil {
			return
		}
		if idx, ok := menuValue(info, v); ok {
			snap.set(lookup.Index, idx)
		}
	}
}

func retiredFromValue(raw any) retiredValue {
	switch v := raw.(type) {
	case float64:
		return retiredValue{Num: float32(v)}
	case bool:
		return retiredValue{Num: boolToFloat(v)}
	case string:
		return retiredValue{Str: v, IsStr: true}
	}
	return retiredValue{}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// parseInstrumentChoice resolves a layer's path string. Built-in
// waveforms use a "#Special: " prefix; everything else is an instrument
// name within the preset's library, possibly stored as a file path by
// very old builds.
func parseInstrumentChoice(path, libraryName string) InstrumentChoice {
	if path == "" {
		return InstrumentChoice{Kind: InstrumentNone}
	}
	if name, ok := strings.CutPrefix(path, waveformPrefix); ok {
		switch name {
		case "Sine":
			return InstrumentChoice{Kind: InstrumentWaveform, Waveform: WaveformSine}
		case "White Noise":
			return InstrumentChoice{Kind: InstrumentWaveform, Waveform: WaveformWhiteNoiseStereo}
		case "White Noise (Mono)":
			return InstrumentChoice{Kind: InstrumentWaveform, Waveform: WaveformWhiteNoiseMono}
		}
		return InstrumentChoice{Kind: InstrumentNone}
	}

	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	switch strings.ToLower(extOf(name)) {
	case ".wav", ".flac", ".r16":
		name = name[:len(name)-len(extOf(name))]
	}
	return InstrumentChoice{
		Kind: InstrumentSampled,
		Instrument: library.InstrumentID{
			Library: library.LibraryID{Author: mdata.Author, Name: libraryName},
			Name:    name,
		},
	}
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
