// SPDX-License-Identifier: EPL-2.0

package library

import "sort"

// Finalize computes a library's derived state after a reader has populated
// it: the stable sorted instrument/IR views, per-instrument loop overviews
// and flags, and the aggregate region counts.
func Finalize(lib *Library) {
	lib.SortedInsts = lib.SortedInsts[:0]
	for _, inst := range lib.Insts {
		lib.SortedInsts = append(lib.SortedInsts, inst)
	}
	sort.SliceStable(lib.SortedInsts, func(i, j int) bool {
		a, b := lib.SortedInsts[i], lib.SortedInsts[j]
		return folderNameLess(a.Folder, a.Name, b.Folder, b.Name)
	})

	lib.SortedIRs = lib.SortedIRs[:0]
	for _, ir := range lib.IRs {
		lib.SortedIRs = append(lib.SortedIRs, ir)
	}
	sort.SliceStable(lib.SortedIRs, func(i, j int) bool {
		a, b := lib.SortedIRs[i], lib.SortedIRs[j]
		return folderNameLess(a.Folder, a.Name, b.Folder, b.Name)
	})

	lib.NumRegions = 0
	for _, inst := range lib.SortedInsts {
		finalizeInstrument(inst)
		lib.NumRegions += uint32(len(inst.Regions))
	}
}

// folderNameLess orders items without a folder before items with one;
// within each group by folder, then by name.
func folderNameLess(aFolder, aName, bFolder, bName string) bool {
	if (aFolder == "") != (bFolder == "") {
		return aFolder == ""
	}
	if aFolder != bFolder {
		return aFolder < bFolder
	}
	return aName < bName
}

func finalizeInstrument(inst *Instrument) {
	var o LoopOverview
	for m := 0; m < NumLoopModes; m++ {
		o.AllLoopsConvertibleToMode[m] = true
	}

	numLoops := 0
	numLockedLoopPoints := 0
	numNeverLoop := 0
	numAlwaysLoop := 0
	var firstMode LoopMode
	sameMode := true

	inst.MaxRoundRobinIndex = 0
	inst.UsesTimbreLayering = false

	for i := range inst.Regions {
		region := &inst.Regions[i]

		if loop := region.Loop.Builtin; loop != nil {
			if numLoops == 0 {
				firstMode = loop.Mode
			} else if loop.Mode != firstMode {
				sameMode = false
			}
			numLoops++

			if loop.LockLoopPoints {
				numLockedLoopPoints++
			}
			if loop.LockMode {
				for m := LoopMode(0); m < LoopMode(NumLoopModes); m++ {
					if m != loop.Mode {
						o.AllLoopsConvertibleToMode[m] = false
					}
				}
			}
		}

		switch region.Loop.Requirement {
		case LoopRequirementAlways:
			numAlwaysLoop++
		case LoopRequirementNever:
			numNeverLoop++
		}

		if region.Loop.Builtin != nil || region.Loop.Requirement == LoopRequirementAlways {
			o.HasLoops = true
		}
		if region.Loop.Requirement != LoopRequirementAlways {
			o.HasNonLoops = true
		}

		if rr := region.Trigger.RoundRobinIndex; rr != NoRoundRobin && rr > inst.MaxRoundRobinIndex {
			inst.MaxRoundRobinIndex = rr
		}
		if region.TimbreLayerRange != nil {
			inst.UsesTimbreLayering = true
		}
	}

	if numLoops > 0 && sameMode {
		mode := firstMode
		o.AllLoopsMode = &mode
	}

	o.UserDefinedLoopsAllowed = true
	if numLoops > 0 && numLockedLoopPoints == numLoops {
		o.UserDefinedLoopsAllowed = false
	}
	if len(inst.Regions) > 0 && numNeverLoop == len(inst.Regions) {
		o.UserDefinedLoopsAllowed = false
	}

	o.AllRegionsRequireLooping = len(inst.Regions) > 0 && numAlwaysLoop == len(inst.Regions)

	inst.Overview = o
}
