// SPDX-License-Identifier: EPL-2.0

package state

// EffectType identifies one of the reorderable effects.
type EffectType uint8

const (
	EffectDistortion EffectType = iota
	EffectBitCrush
	EffectCompressor
	EffectFilter
	EffectStereoWiden
	EffectChorus
	EffectReverb
	EffectDelay
	EffectPhaser
	EffectConvolutionReverb

	NumEffects = int(EffectConvolutionReverb) + 1
)

var effectNames = [NumEffects]string{
	EffectDistortion:        "Distortion",
	EffectBitCrush:          "Bit Crush",
	EffectCompressor:        "Compressor",
	EffectFilter:            "Filter",
	EffectStereoWiden:       "Stereo Widen",
	EffectChorus:            "Chorus",
	EffectReverb:            "Reverb",
	EffectDelay:             "Delay",
	EffectPhaser:            "Phaser",
	EffectConvolutionReverb: "Convolution Reverb",
}

func (e EffectType) String() string {
	if int(e) < NumEffects {
		return effectNames[e]
	}
	return "Unknown"
}

// legacyEffectIDs are the short ids old presets used in their fx_order
// array. They are stable serialization values, not display names.
var legacyEffectIDs = map[string]EffectType{
	"dist":   EffectDistortion,
	"crush":  EffectBitCrush,
	"comp":   EffectCompressor,
	"filt":   EffectFilter,
	"width":  EffectStereoWiden,
	"chorus": EffectChorus,
	"verb":   EffectReverb,
	"delay":  EffectDelay,
	"phaser": EffectPhaser,
	"conv":   EffectConvolutionReverb,
}

// canonicalEffectOrder is the order effects appear in when a preset does
// not say otherwise. It matches the order the processing chain used
// before effects became reorderable.
var canonicalEffectOrder = [NumEffects]EffectType{
	EffectDistortion,
	EffectBitCrush,
	EffectCompressor,
	EffectFilter,
	EffectStereoWiden,
	EffectChorus,
	EffectReverb,
	EffectDelay,
	EffectPhaser,
	EffectConvolutionReverb,
}

// backfillFxOrder resolves the legacy ids in order, ignoring unknown and
// duplicate entries, then appends every effect the preset did not mention
// in canonical order. The result is always a full permutation.
func backfillFxOrder(ids []string) []EffectType {
	order := make([]EffectType, 0, NumEffects)
	present := [NumEffects]bool{}
	for _, id := range ids {
		e, ok := legacyEffectIDs[id]
		if !ok || present[e] {
			continue
		}
		present[e] = true
		order = append(order, e)
	}
	for _, e := range canonicalEffectOrder {
		if !present[e] {
			order = append(order, e)
		}
	}
	return order
}
