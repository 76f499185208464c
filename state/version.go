// SPDX-License-Identifier: EPL-2.0

package state

// Version is a packed major/minor/patch triple. Comparisons on the
// packed value order correctly because each component gets its own byte
// range.
type Version uint32

// MakeVersion packs a major/minor/patch triple.
func MakeVersion(major, minor, patch uint8) Version {
	return Version(uint32(major)<<16 | uint32(minor)<<8 | uint32(patch))
}

func (v Version) Major() uint8 { return uint8(v >> 16) }
func (v Version) Minor() uint8 { return uint8(v >> 8) }
func (v Version) Patch() uint8 { return uint8(v) }

// CurrentVersion is the newest preset version this decoder understands.
var CurrentVersion = MakeVersion(3, 0, 0)

// applyVersionPatches reproduces behavior changes between releases so
// that presets saved by old builds sound the way they did then.
func applyVersionPatches(snap *StateSnapshot, v Version) {
	if v < MakeVersion(2, 0, 0) {
		// CC64 retrigger did not exist; leaving it at the modern
		// default would change old presets.
		for layer := 0; layer < NumLayers; layer++ {
			snap.set(LayerParamIndex(layer, LayerCC64Retrigger), 0)
		}
	}

	if v < MakeVersion(1, 2, 0) {
		for layer := 0; layer < NumLayers; layer++ {
			// Keytracking off used to zero the tuning controls.
			if snap.get(LayerParamIndex(layer, LayerKeytrack)) == 0 {
				snap.set(LayerParamIndex(layer, LayerTuneSemitones), 0)
				snap.set(LayerParamIndex(layer, LayerTuneCents), 0)
			}

			// A sample offset far past a ping-pong loop's end produced
			// silence in old builds. Keep those layers silent.
			if snap.get(LayerParamIndex(layer, LayerLoopMode)) == LoopModePingPong {
				end := snap.get(LayerParamIndex(layer, LayerLoopEnd))
				if snap.get(LayerParamIndex(layer, LayerReverse)) != 0 {
					end = 1 - end
				}
				if snap.get(LayerParamIndex(layer, LayerSampleOffset)) > 2*end {
					snap.set(LayerParamIndex(layer, LayerMute), 1)
				}
			}
		}
	}

	if v < MakeVersion(2, 0, 3) {
		// Ping-pong loops ignored the crossfade control before 2.0.3.
		for layer := 0; layer < NumLayers; layer++ {
			if snap.get(LayerParamIndex(layer, LayerLoopMode)) == LoopModePingPong {
				snap.set(LayerParamIndex(layer, LayerLoopCrossfade), 0)
			}
		}
	}
}
