// SPDX-License-Identifier: EPL-2.0

package state

import (
	"github.com/floe-audio/samplelib/formats/mdata"
	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/utils"
)

// MirageCompatLibraryName is the library that hosts impulse responses
// referenced by name in old presets.
const MirageCompatLibraryName = "Mirage Compatibility"

// MirageCompatLibrary identifies the compatibility library.
var MirageCompatLibrary = library.LibraryID{
	Author: mdata.Author,
	Name:   MirageCompatLibraryName,
}

// retiredTag identifies a parameter that no longer exists. Retired
// values are collected during parsing and translated into current
// parameters afterwards.
type retiredTag uint8

const (
	retiredConvolutionIrName retiredTag = iota

	retiredReverbOn
	retiredReverbDryDb
	retiredReverbSvOn
	retiredReverbFreeverbWetPercent
	retiredReverbSvWetDb
	retiredReverbSizePercent
	retiredReverbFreeverbDampingPercent
	retiredReverbSvPreDelayPercent
	retiredReverbSvModFreqPercent
	retiredReverbSvModDepthPercent
	retiredReverbSvFilterBidirectionalPercent

	retiredPhaserOn
	retiredPhaserWetDb
	retiredPhaserDryDb
	retiredPhaserStereoPercent
	retiredPhaserFeedbackPercent
	retiredPhaserModDepthPercent
	retiredPhaserModFreqHz
	retiredPhaserCenterHz

	retiredDelayOn
	retiredDelayOldOn
	retiredDelayOldTimeLMs
	retiredDelayOldTimeRMs
	retiredDelayLegacyTimeLMs
	retiredDelayLegacyTimeRMs
	retiredDelayOldWetPercent

	retiredLayerLoopOn
	retiredLayerPingPong
)

// retiredKey addresses one retired value. Layer is -1 for non-layer
// parameters.
type retiredKey struct {
	Tag   retiredTag
	Layer int
}

type retiredValue struct {
	Num   float32
	Str   string
	IsStr bool
}

var retiredByName = buildRetiredByName()

func buildRetiredByName() map[string]retiredKey {
	m := map[string]retiredKey{
		"ConvolutionIrName": {Tag: retiredConvolutionIrName, Layer: -1},

		"ReverbOn":                     {Tag: retiredReverbOn, Layer: -1},
		"ReverbDryDb":                  {Tag: retiredReverbDryDb, Layer: -1},
		"ReverbSvOn":                   {Tag: retiredReverbSvOn, Layer: -1},
		"ReverbFreeverbWet%":           {Tag: retiredReverbFreeverbWetPercent, Layer: -1},
		"ReverbSvWetDb":                {Tag: retiredReverbSvWetDb, Layer: -1},
		"ReverbSize%":                  {Tag: retiredReverbSizePercent, Layer: -1},
		"ReverbFreeverbDamping%":       {Tag: retiredReverbFreeverbDampingPercent, Layer: -1},
		"ReverbSvPreDelay%":            {Tag: retiredReverbSvPreDelayPercent, Layer: -1},
		"ReverbSvModFreq%":             {Tag: retiredReverbSvModFreqPercent, Layer: -1},
		"ReverbSvModDepth%":            {Tag: retiredReverbSvModDepthPercent, Layer: -1},
		"ReverbSvFilterBidirectional%": {Tag: retiredReverbSvFilterBidirectionalPercent, Layer: -1},

		"PhaserOn":          {Tag: retiredPhaserOn, Layer: -1},
		"PhaserWetDb":       {Tag: retiredPhaserWetDb, Layer: -1},
		"PhaserDryDb":       {Tag: retiredPhaserDryDb, Layer: -1},
		"PhaserStereo%":     {Tag: retiredPhaserStereoPercent, Layer: -1},
		"PhaserFeedback%":   {Tag: retiredPhaserFeedbackPercent, Layer: -1},
		"PhaserModDepth%":   {Tag: retiredPhaserModDepthPercent, Layer: -1},
		"PhaserModFreqHz":   {Tag: retiredPhaserModFreqHz, Layer: -1},
		"PhaserCenterHz":    {Tag: retiredPhaserCenterHz, Layer: -1},

		"DelayOn":           {Tag: retiredDelayOn, Layer: -1},
		"DelayOldOn":        {Tag: retiredDelayOldOn, Layer: -1},
		"DelayOldTimeLMs":   {Tag: retiredDelayOldTimeLMs, Layer: -1},
		"DelayOldTimeRMs":   {Tag: retiredDelayOldTimeRMs, Layer: -1},
		"DelayLegacyTimeL":  {Tag: retiredDelayLegacyTimeLMs, Layer: -1},
		"DelayLegacyTimeR":  {Tag: retiredDelayLegacyTimeRMs, Layer: -1},
		"DelayOldWet%":      {Tag: retiredDelayOldWetPercent, Layer: -1},
	}
	for layer := 0; layer < NumLayers; layer++ {
		prefix := layerPrefix(layer)
		m[prefix+"LoopOn"] = retiredKey{Tag: retiredLayerLoopOn, Layer: layer}
		m[prefix+"PingPong"] = retiredKey{Tag: retiredLayerPingPong, Layer: layer}
	}
	return m
}

type retiredSet map[retiredKey]retiredValue

func (r retiredSet) num(tag retiredTag) (float32, bool) {
	v, ok := r[retiredKey{Tag: tag, Layer: -1}]
	if !ok || v.IsStr {
		return 0, false
	}
	return v.Num, true
}

func (r retiredSet) numOr(tag retiredTag, def float32) float32 {
	if v, ok := r.num(tag); ok {
		return v
	}
	return def
}

func (r retiredSet) has(tag retiredTag) bool {
	_, ok := r[retiredKey{Tag: tag, Layer: -1}]
	return ok
}

// translateRetired converts retired parameter groups into their modern
// equivalents. Each group only fires if the preset carried at least one
// of its members, so modern presets pass through untouched.
func translateRetired(snap *StateSnapshot, r retiredSet) {
	translateRetiredReverb(snap, r)
	translateRetiredPhaser(snap, r)
	translateRetiredDelay(snap, r)
	translateRetiredLoopModes(snap, r)

	if v, ok := r[retiredKey{Tag: retiredConvolutionIrName, Layer: -1}]; ok && v.IsStr {
		if v.Str != "" && v.Str != "None" {
			snap.IR = &library.IrID{Library: MirageCompatLibrary, Name: v.Str}
		}
	}
}

// translateRetiredReverb maps the two legacy reverb algorithms onto the
// current reverb. Both legacy engines shared a dry gain and a size
// control; wet level and damping were engine-specific. Mix is
// wet/(wet+dry) with both terms as linear amplitudes.
func translateRetiredReverb(snap *StateSnapshot, r retiredSet) {
	if !r.has(retiredReverbOn) {
		return
	}
	snap.set(ParamReverbOn, boolParam(r.numOr(retiredReverbOn, 0)))
	snap.set(ParamReverbSize, r.numOr(retiredReverbSizePercent, 50)/100)

	dry := utils.DbToAmp(r.numOr(retiredReverbDryDb, 0))
	sv := r.numOr(retiredReverbSvOn, 0) != 0

	var wet float32
	if sv {
		wet = utils.DbToAmp(r.numOr(retiredReverbSvWetDb, 0))
	} else {
		wet = r.numOr(retiredReverbFreeverbWetPercent, 0) / 100
	}
	if wet+dry > 0 {
		snap.set(ParamReverbMix, wet/(wet+dry))
	} else {
		snap.set(ParamReverbMix, 0)
	}

	if sv {
		snap.set(ParamReverbDelay, r.numOr(retiredReverbSvPreDelayPercent, 0)/100)
		snap.set(ParamReverbChorusFrequency, r.numOr(retiredReverbSvModFreqPercent, 20)/100)
		snap.set(ParamReverbChorusAmount, r.numOr(retiredReverbSvModDepthPercent, 0)/100)
		// The SV filter was a single bidirectional control: negative
		// values closed a low-pass, positive values opened a high-pass.
		filter := r.numOr(retiredReverbSvFilterBidirectionalPercent, 0) / 100
		if filter <= 0 {
			snap.set(ParamReverbPreLowPassCutoff, 1+filter)
			snap.set(ParamReverbPreHighPassCutoff, 0)
		} else {
			snap.set(ParamReverbPreLowPassCutoff, 1)
			snap.set(ParamReverbPreHighPassCutoff, filter)
		}
	} else {
		// Freeverb damping acted as a gentle pre low-pass. A third of
		// its range reproduces the audible rolloff.
		damping := r.numOr(retiredReverbFreeverbDampingPercent, 0) / 100
		snap.set(ParamReverbPreLowPassCutoff, 1-damping/3)
		snap.set(ParamReverbPreHighPassCutoff, 0)
	}
}

func translateRetiredPhaser(snap *StateSnapshot, r retiredSet) {
	if !r.has(retiredPhaserOn) {
		return
	}
	snap.set(ParamPhaserOn, boolParam(r.numOr(retiredPhaserOn, 0)))

	wet := utils.DbToAmp(r.numOr(retiredPhaserWetDb, 0))
	dry := utils.DbToAmp(r.numOr(retiredPhaserDryDb, 0))
	if wet+dry > 0 {
		snap.set(ParamPhaserMix, wet/(wet+dry))
	} else {
		snap.set(ParamPhaserMix, 0)
	}

	snap.set(ParamPhaserStereoAmount, r.numOr(retiredPhaserStereoPercent, 0)/100)
	snap.set(ParamPhaserFeedback, r.numOr(retiredPhaserFeedbackPercent, 30)/100)
	snap.set(ParamPhaserModDepth, r.numOr(retiredPhaserModDepthPercent, 50)/100)
	snap.set(ParamPhaserModFreqHz, r.numOr(retiredPhaserModFreqHz, 0.3))
	if hz, ok := r.num(retiredPhaserCenterHz); ok && hz > 0 {
		snap.set(ParamPhaserCenterSemitones, utils.HzToMidiNote(hz))
	}
}

func translateRetiredDelay(snap *StateSnapshot, r retiredSet) {
	if !r.has(retiredDelayOn) {
		return
	}
	snap.set(ParamDelayOn, boolParam(r.numOr(retiredDelayOn, 0)))

	// Two legacy delay engines stored times in different fields; the
	// "old" engine wins when its switch is set.
	if r.numOr(retiredDelayOldOn, 0) != 0 {
		snap.set(ParamDelayTimeLMs, r.numOr(retiredDelayOldTimeLMs, 250))
		snap.set(ParamDelayTimeRMs, r.numOr(retiredDelayOldTimeRMs, 250))
	} else {
		if v, ok := r.num(retiredDelayLegacyTimeLMs); ok {
			snap.set(ParamDelayTimeLMs, v)
		}
		if v, ok := r.num(retiredDelayLegacyTimeRMs); ok {
			snap.set(ParamDelayTimeRMs, v)
		}
	}
	if v, ok := r.num(retiredDelayOldWetPercent); ok {
		snap.set(ParamDelayMix, v/100)
	}
}

// translateRetiredLoopModes folds the old per-layer loop-on and
// ping-pong-on switches into the loop mode menu.
func translateRetiredLoopModes(snap *StateSnapshot, r retiredSet) {
	for layer := 0; layer < NumLayers; layer++ {
		loopOn, okLoop := r[retiredKey{Tag: retiredLayerLoopOn, Layer: layer}]
		if !okLoop || loopOn.IsStr {
			continue
		}
		mode := LoopModeInstrumentDefault
		if loopOn.Num != 0 {
			mode = LoopModeRegular
			if pp, ok := r[retiredKey{Tag: retiredLayerPingPong, Layer: layer}]; ok && !pp.IsStr && pp.Num != 0 {
				mode = LoopModePingPong
			}
		}
		snap.set(LayerParamIndex(layer, LayerLoopMode), mode)
	}
}

func boolParam(v float32) float32 {
	if v != 0 {
		return 1
	}
	return 0
}
