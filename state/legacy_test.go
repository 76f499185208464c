// SPDX-License-Identifier: EPL-2.0

package state_test

import (
	"testing"

	"github.com/floe-audio/samplelib/state"
)

func TestRetiredReverb_Freeverb(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"ReverbOn","value":1},`+
			`{"name":"ReverbDryDb","value":0},`+
			`{"name":"ReverbFreeverbWet%","value":50},`+
			`{"name":"ReverbSize%","value":40},`+
			`{"name":"ReverbFreeverbDamping%","value":30}`))

	wantNear(t, snap.Param(state.ParamReverbOn), 1, "ReverbOn")
	wantNear(t, snap.Param(state.ParamReverbMix), 1.0/3.0, "ReverbMix")
	wantNear(t, snap.Param(state.ParamReverbSize), 0.40, "ReverbSize")
	wantNear(t, snap.Param(state.ParamReverbPreLowPassCutoff), 0.9, "ReverbPreLowPassCutoff")
	wantNear(t, snap.Param(state.ParamReverbPreHighPassCutoff), 0, "ReverbPreHighPassCutoff")
}

func TestRetiredReverb_SvAlgorithm(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"ReverbOn","value":1},`+
			`{"name":"ReverbSvOn","value":1},`+
			`{"name":"ReverbDryDb","value":0},`+
			`{"name":"ReverbSvWetDb","value":0},`+
			`{"name":"ReverbSize%","value":60},`+
			`{"name":"ReverbSvPreDelay%","value":25},`+
			`{"name":"ReverbSvModFreq%","value":40},`+
			`{"name":"ReverbSvModDepth%","value":10},`+
			`{"name":"ReverbSvFilterBidirectional%","value":-30}`))

	// Wet and dry are both 0 dB, so the mix is an even split.
	wantNear(t, snap.Param(state.ParamReverbMix), 0.5, "ReverbMix")
	wantNear(t, snap.Param(state.ParamReverbSize), 0.6, "ReverbSize")
	wantNear(t, snap.Param(state.ParamReverbDelay), 0.25, "ReverbDelay")
	wantNear(t, snap.Param(state.ParamReverbChorusFrequency), 0.4, "ReverbChorusFrequency")
	wantNear(t, snap.Param(state.ParamReverbChorusAmount), 0.1, "ReverbChorusAmount")
	wantNear(t, snap.Param(state.ParamReverbPreLowPassCutoff), 0.7, "ReverbPreLowPassCutoff")
	wantNear(t, snap.Param(state.ParamReverbPreHighPassCutoff), 0, "ReverbPreHighPassCutoff")
}

func TestRetiredReverb_AbsentLeavesDefaults(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion, ""))
	wantNear(t, snap.Param(state.ParamReverbMix), 0.3, "ReverbMix default")
	wantNear(t, snap.Param(state.ParamReverbPreLowPassCutoff), 1, "ReverbPreLowPassCutoff default")
}

func TestRetiredPhaser(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"PhaserOn","value":1},`+
			`{"name":"PhaserWetDb","value":0},`+
			`{"name":"PhaserDryDb","value":0},`+
			`{"name":"PhaserStereo%","value":80},`+
			`{"name":"PhaserFeedback%","value":20},`+
			`{"name":"PhaserModDepth%","value":60},`+
			`{"name":"PhaserModFreqHz","value":2.5},`+
			`{"name":"PhaserCenterHz","value":440}`))

	wantNear(t, snap.Param(state.ParamPhaserOn), 1, "PhaserOn")
	wantNear(t, snap.Param(state.ParamPhaserMix), 0.5, "PhaserMix")
	wantNear(t, snap.Param(state.ParamPhaserStereoAmount), 0.8, "PhaserStereoAmount")
	wantNear(t, snap.Param(state.ParamPhaserFeedback), 0.2, "PhaserFeedback")
	wantNear(t, snap.Param(state.ParamPhaserModDepth), 0.6, "PhaserModDepth")
	wantNear(t, snap.Param(state.ParamPhaserModFreqHz), 2.5, "PhaserModFreqHz")
	wantNear(t, snap.Param(state.ParamPhaserCenterSemitones), 69, "PhaserCenterSemitones")
}

func TestRetiredDelay(t *testing.T) {
	t.Parallel()

	t.Run("old engine wins when switched on", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.CurrentVersion,
			`{"name":"DelayOn","value":1},`+
				`{"name":"DelayOldOn","value":1},`+
				`{"name":"DelayOldTimeLMs","value":120},`+
				`{"name":"DelayOldTimeRMs","value":240},`+
				`{"name":"DelayLegacyTimeL","value":500},`+
				`{"name":"DelayOldWet%","value":40}`))
		wantNear(t, snap.Param(state.ParamDelayOn), 1, "DelayOn")
		wantNear(t, snap.Param(state.ParamDelayTimeLMs), 120, "DelayTimeLMs")
		wantNear(t, snap.Param(state.ParamDelayTimeRMs), 240, "DelayTimeRMs")
		wantNear(t, snap.Param(state.ParamDelayMix), 0.4, "DelayMix")
	})

	t.Run("legacy times used otherwise", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.CurrentVersion,
			`{"name":"DelayOn","value":1},`+
				`{"name":"DelayLegacyTimeL","value":500},`+
				`{"name":"DelayLegacyTimeR","value":750}`))
		wantNear(t, snap.Param(state.ParamDelayTimeLMs), 500, "DelayTimeLMs")
		wantNear(t, snap.Param(state.ParamDelayTimeRMs), 750, "DelayTimeRMs")
	})

	t.Run("synced time strings resolve", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.CurrentVersion,
			`{"name":"DelayTimeSyncSwitch","value":1},`+
				`{"name":"DelayTimeSyncedL","value":"1/64T"},`+
				`{"name":"DelayTimeSyncedR","value":"1/2D"}`))
		wantNear(t, snap.Param(state.ParamDelayTimeSyncedL), 0, "DelayTimeSyncedL")
		wantNear(t, snap.Param(state.ParamDelayTimeSyncedR), 17, "DelayTimeSyncedR")
	})
}

func TestRetiredLoopModes(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"L0LoopOn","value":1},`+
			`{"name":"L0PingPong","value":1},`+
			`{"name":"L1LoopOn","value":1},`+
			`{"name":"L2LoopOn","value":0},`+
			`{"name":"L2PingPong","value":1}`))

	wantNear(t, snap.LayerParam(0, state.LayerLoopMode), state.LoopModePingPong, "L0")
	wantNear(t, snap.LayerParam(1, state.LayerLoopMode), state.LoopModeRegular, "L1")
	wantNear(t, snap.LayerParam(2, state.LayerLoopMode), state.LoopModeInstrumentDefault, "L2")
}

func TestRetiredConvolutionIrName(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"ConvolutionIrName","value":"Cathedral"}`))

	if snap.IR == nil {
		t.Fatal("IR is nil, want Mirage compatibility id")
	}
	if snap.IR.Name != "Cathedral" {
		t.Errorf("IR name = %q, want Cathedral", snap.IR.Name)
	}
	if snap.IR.Library != state.MirageCompatLibrary {
		t.Errorf("IR library = %+v, want %+v", snap.IR.Library, state.MirageCompatLibrary)
	}

	t.Run("none and empty are ignored", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"None", ""} {
			snap := decodePreset(t, presetDoc(state.CurrentVersion,
				`{"name":"ConvolutionIrName","value":"`+name+`"}`))
			if snap.IR != nil {
				t.Errorf("IR for %q = %+v, want nil", name, snap.IR)
			}
		}
	})
}
