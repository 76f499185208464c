// SPDX-License-Identifier: EPL-2.0

package mdata

import (
	"math"
	"sort"

	"github.com/floe-audio/samplelib/library"
)

// RemapVelocity converts an inclusive [1, 127] MIDI velocity range into the
// half-open [start, end) 0..100 domain used by the model. Old presets were
// authored against this exact mapping, so the rounding must not change.
func RemapVelocity(lowVelo, highVelo int) library.Range {
	lo := max(1, lowVelo) - 1
	hi := highVelo - 1

	start := int(math.Round(float64(lo) / 126 * 99))
	end := int(math.Round(math.Min(float64(hi+1)/126*99, 100)))

	// Narrow single-velocity ranges can collapse under rounding; keep the
	// result a non-empty [start, end) inside 0..100.
	if end <= start {
		end = start + 1
	}
	if end > 100 {
		start, end = 99, 100
	}

	return library.Range{Start: start, End: end}
}

// featherAmount is the fraction of a neighbouring layer's span that a
// touching velocity range is widened by.
const featherAmount = 0.35

// featherVelocityLayers widens exactly-touching velocity layers so adjacent
// layers crossfade. The legacy flag was instrument-wide, so only
// instruments whose first region carries it are processed.
func featherVelocityLayers(inst *library.Instrument) {
	if len(inst.Regions) == 0 || !inst.Regions[0].Trigger.FeatherOverlappingVelocityLayers {
		return
	}

	// Regions feather only within their own round-robin sequence group.
	byRoundRobin := map[int][]*library.Region{}
	for i := range inst.Regions {
		region := &inst.Regions[i]
		byRoundRobin[region.Trigger.RoundRobinIndex] = append(
			byRoundRobin[region.Trigger.RoundRobinIndex], region)
	}

	for _, group := range byRoundRobin {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Trigger.VelocityRange.Start < group[j].Trigger.VelocityRange.Start
		})

		// Bin by identical key range; only stacked layers feather.
		bins := map[library.Range][]*library.Region{}
		order := []library.Range{}
		for _, region := range group {
			kr := region.Trigger.KeyRange
			if _, seen := bins[kr]; !seen {
				order = append(order, kr)
			}
			bins[kr] = append(bins[kr], region)
		}

		for _, kr := range order {
			// Libraries produced by one old build emit bogus single-note
			// [1, 2) layers; leave those untouched.
			if kr == (library.Range{Start: 1, End: 2}) {
				continue
			}
			featherBin(bins[kr])
		}
	}
}

// featherBin expands exactly-touching neighbours toward each other by
// floor(featherAmount * neighbour-span). Expansion is skipped when it would run
// past the 0..100 extremes, and because each side moves by under half the
// neighbour's span, no velocity value ever lands in more than 2 regions.
func featherBin(bin []*library.Region) {
	if len(bin) < 2 {
		return
	}

	// Work from the pre-expansion spans so later pairs are unaffected by
	// earlier widening.
	originals := make([]library.Range, len(bin))
	for i, region := range bin {
		originals[i] = region.Trigger.VelocityRange
	}

	for i := 0; i < len(bin)-1; i++ {
		lower, upper := bin[i], bin[i+1]
		if originals[i].End != originals[i+1].Start {
			continue // only exactly-touching layers feather
		}

		deltaUp := int(featherAmount * float64(originals[i+1].Size()))
		deltaDown := int(featherAmount * float64(originals[i].Size()))

		if lower.Trigger.VelocityRange.End+deltaUp < 100 {
			lower.Trigger.VelocityRange.End += deltaUp
		}
		if upper.Trigger.VelocityRange.Start-deltaDown > deltaDown {
			upper.Trigger.VelocityRange.Start -= deltaDown
		}
	}
}
