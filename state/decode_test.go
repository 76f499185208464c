// SPDX-License-Identifier: EPL-2.0

package state_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/floe-audio/samplelib/state"
)

func decodePreset(t *testing.T, doc string) *state.StateSnapshot {
	t.Helper()
	snap, err := state.DecodeState([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	return snap
}

func presetDoc(version state.Version, params string) string {
	return fmt.Sprintf(`{"master":{"version":%d},"params":[%s]}`, uint32(version), params)
}

func wantNear(t *testing.T, got, want float32, what string) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-4 {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestDecodeState_Defaults(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion, ""))

	if len(snap.Params) != state.NumParams {
		t.Fatalf("len(Params) = %d, want %d", len(snap.Params), state.NumParams)
	}
	wantNear(t, snap.Param(state.ParamReverbMix), 0.3, "ReverbMix default")
	wantNear(t, snap.LayerParam(1, state.LayerLoopEnd), 1, "LoopEnd default")
	wantNear(t, snap.LayerParam(0, state.LayerCC64Retrigger), 1, "CC64Retrigger default")
	if len(snap.FxOrder) != state.NumEffects {
		t.Fatalf("len(FxOrder) = %d, want %d", len(snap.FxOrder), state.NumEffects)
	}
	for i := range snap.Layers {
		if snap.Layers[i].Kind != state.InstrumentNone {
			t.Errorf("layer %d kind = %v, want none", i, snap.Layers[i].Kind)
		}
	}
}

func TestDecodeState_InvalidFormat(t *testing.T) {
	t.Parallel()

	if _, err := state.DecodeState([]byte("not json")); !errors.Is(err, state.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestDecodeState_VersionTooNew(t *testing.T) {
	t.Parallel()

	doc := presetDoc(state.CurrentVersion+1, "")
	if _, err := state.DecodeState([]byte(doc)); !errors.Is(err, state.ErrVersionTooNew) {
		t.Fatalf("err = %v, want ErrVersionTooNew", err)
	}
}

func TestDecodeState_NumericAndClamp(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"ReverbMix","value":0.7},{"name":"ReverbSize","value":9.5}`))

	wantNear(t, snap.Param(state.ParamReverbMix), 0.7, "ReverbMix")
	wantNear(t, snap.Param(state.ParamReverbSize), 1, "ReverbSize clamped")
}

func TestDecodeState_LegacyProjections(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"MasterVolDb","value":-6},{"name":"L0Vol%","value":80}`))

	wantNear(t, snap.Param(state.ParamMasterVolume), 0.50119, "MasterVolume from dB")
	wantNear(t, snap.LayerParam(0, state.LayerVolume), 0.8, "layer volume from percent")
}

func TestDecodeState_MenuStrings(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"DelayMode","value":"Ping-pong LR"},`+
			`{"name":"DelayTimeSyncedL","value":"1/8"},`+
			`{"name":"L2LoopMode","value":"Ping-Pong"}`))

	wantNear(t, snap.Param(state.ParamDelayMode), state.DelayModePingPongLR, "DelayMode via alias")
	wantNear(t, snap.Param(state.ParamDelayTimeSyncedL), 10, "DelayTimeSyncedL")
	wantNear(t, snap.LayerParam(2, state.LayerLoopMode), state.LoopModePingPong, "L2 loop mode")
}

func TestDecodeState_UnknownParamsIgnored(t *testing.T) {
	t.Parallel()

	snap := decodePreset(t, presetDoc(state.CurrentVersion,
		`{"name":"NoSuchParam","value":123},{"name":"ReverbMix","value":0.25}`))

	wantNear(t, snap.Param(state.ParamReverbMix), 0.25, "ReverbMix")
}

func TestDecodeState_FxOrderBackfill(t *testing.T) {
	t.Parallel()

	doc := fmt.Sprintf(`{"master":{"version":%d},"fx_order":["dist","verb"]}`,
		uint32(state.CurrentVersion))
	snap := decodePreset(t, doc)

	want := []state.EffectType{
		state.EffectDistortion,
		state.EffectReverb,
		state.EffectBitCrush,
		state.EffectCompressor,
		state.EffectFilter,
		state.EffectStereoWiden,
		state.EffectChorus,
		state.EffectDelay,
		state.EffectPhaser,
		state.EffectConvolutionReverb,
	}
	if len(snap.FxOrder) != len(want) {
		t.Fatalf("len(FxOrder) = %d, want %d", len(snap.FxOrder), len(want))
	}
	for i := range want {
		if snap.FxOrder[i] != want[i] {
			t.Errorf("FxOrder[%d] = %v, want %v", i, snap.FxOrder[i], want[i])
		}
	}
}

func TestDecodeState_FxOrderIgnoresUnknownAndDuplicates(t *testing.T) {
	t.Parallel()

	doc := fmt.Sprintf(`{"master":{"version":%d},"fx_order":["verb","bogus","verb","delay"]}`,
		uint32(state.CurrentVersion))
	snap := decodePreset(t, doc)

	if snap.FxOrder[0] != state.EffectReverb || snap.FxOrder[1] != state.EffectDelay {
		t.Fatalf("FxOrder prefix = %v %v, want Reverb Delay", snap.FxOrder[0], snap.FxOrder[1])
	}
	if len(snap.FxOrder) != state.NumEffects {
		t.Fatalf("len(FxOrder) = %d, want %d", len(snap.FxOrder), state.NumEffects)
	}
	seen := map[state.EffectType]bool{}
	for _, e := range snap.FxOrder {
		if seen[e] {
			t.Fatalf("effect %v appears twice", e)
		}
		seen[e] = true
	}
}

func TestDecodeState_InstrumentChoices(t *testing.T) {
	t.Parallel()

	doc := fmt.Sprintf(`{
		"master":{"version":%d},
		"library":{"name":"Old Piano"},
		"layers":[
			{"path":"#Special: Sine"},
			{"path":"sampler/Piano/A4.wav"},
			{"path":"A4 2"}
		]
	}`, uint32(state.CurrentVersion))
	snap := decodePreset(t, doc)

	if snap.Layers[0].Kind != state.InstrumentWaveform || snap.Layers[0].Waveform != state.WaveformSine {
		t.Errorf("layer 0 = %+v, want sine waveform", snap.Layers[0])
	}

	if snap.Layers[1].Kind != state.InstrumentSampled {
		t.Fatalf("layer 1 kind = %v, want sampled", snap.Layers[1].Kind)
	}
	inst := snap.Layers[1].Instrument
	if inst.Name != "A4" {
		t.Errorf("layer 1 instrument name = %q, want A4", inst.Name)
	}
	if inst.Library.Name != "Old Piano" {
		t.Errorf("layer 1 library = %q, want Old Piano", inst.Library.Name)
	}

	if snap.Layers[2].Kind != state.InstrumentSampled || snap.Layers[2].Instrument.Name != "A4 2" {
		t.Errorf("layer 2 = %+v, want instrument A4 2", snap.Layers[2])
	}
}

func TestDecodeState_WaveformNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want state.WaveformType
	}{
		{"#Special: Sine", state.WaveformSine},
		{"#Special: White Noise", state.WaveformWhiteNoiseStereo},
		{"#Special: White Noise (Mono)", state.WaveformWhiteNoiseMono},
	}
	for _, tc := range cases {
		doc := fmt.Sprintf(`{"master":{"version":%d},"layers":[{"path":%q}]}`,
			uint32(state.CurrentVersion), tc.path)
		snap := decodePreset(t, doc)
		if snap.Layers[0].Kind != state.InstrumentWaveform || snap.Layers[0].Waveform != tc.want {
			t.Errorf("path %q: got %+v, want waveform %v", tc.path, snap.Layers[0], tc.want)
		}
	}
}

func TestVersionPacking(t *testing.T) {
	t.Parallel()

	v := state.MakeVersion(2, 0, 3)
	if v.Major() != 2 || v.Minor() != 0 || v.Patch() != 3 {
		t.Fatalf("unpacked = %d.%d.%d, want 2.0.3", v.Major(), v.Minor(), v.Patch())
	}
	if !(state.MakeVersion(1, 9, 9) < state.MakeVersion(2, 0, 0)) {
		t.Error("1.9.9 should order below 2.0.0")
	}
	if !(state.MakeVersion(2, 0, 2) < state.MakeVersion(2, 0, 3)) {
		t.Error("2.0.2 should order below 2.0.3")
	}
}

func TestDecodeState_VersionPatches(t *testing.T) {
	t.Parallel()

	t.Run("cc64 retrigger zeroed before 2.0.0", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.MakeVersion(1, 9, 0),
			`{"name":"L0CC64Retrigger","value":1}`))
		for layer := 0; layer < state.NumLayers; layer++ {
			wantNear(t, snap.LayerParam(layer, state.LayerCC64Retrigger), 0, "CC64Retrigger")
		}
	})

	t.Run("keytrack off zeroes tuning before 1.2.0", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.MakeVersion(1, 1, 0),
			`{"name":"L0Keytrack","value":0},`+
				`{"name":"L0TuneSemitone","value":12},`+
				`{"name":"L0TuneCents","value":50},`+
				`{"name":"L1TuneSemitone","value":7}`))
		wantNear(t, snap.LayerParam(0, state.LayerTuneSemitones), 0, "L0 semitones")
		wantNear(t, snap.LayerParam(0, state.LayerTuneCents), 0, "L0 cents")
		wantNear(t, snap.LayerParam(1, state.LayerTuneSemitones), 7, "L1 semitones kept")
	})

	t.Run("ping-pong offset mutes layer before 1.2.0", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.MakeVersion(1, 1, 0),
			`{"name":"L0LoopMode","value":"Ping-Pong"},`+
				`{"name":"L0LoopEnd%","value":20},`+
				`{"name":"L0SampleOffset%","value":50}`))
		wantNear(t, snap.LayerParam(0, state.LayerMute), 1, "L0 muted")
	})

	t.Run("ping-pong crossfade zeroed before 2.0.3", func(t *testing.T) {
		t.Parallel()
		snap := decodePreset(t, presetDoc(state.MakeVersion(2, 0, 2),
			`{"name":"L1LoopMode","value":"Ping-Pong"},`+
				`{"name":"L1LoopCrossfade%","value":40},`+
				`{"name":"L2LoopCrossfade%","value":40}`))
		wantNear(t, snap.LayerParam(1, state.LayerLoopCrossfade), 0, "L1 crossfade")
		wantNear(t, snap.LayerParam(2, state.LayerLoopCrossfade), 0.4, "L2 crossfade kept")
	})
}
