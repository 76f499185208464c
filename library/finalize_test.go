// SPDX-License-Identifier: EPL-2.0

package library

import "testing"

func region(loop *BuiltinLoop, req LoopRequirement) Region {
	return Region{
		Path: "a.wav",
		Loop: RegionLoop{Builtin: loop, Requirement: req},
		Trigger: TriggerCriteria{
			KeyRange:        Range{0, 128},
			VelocityRange:   Range{0, 100},
			RoundRobinIndex: NoRoundRobin,
		},
	}
}

func newTestLibrary(insts ...*Instrument) *Library {
	lib := &Library{
		ID:    LibraryID{Author: "Tester", Name: "Lib"},
		Insts: map[string]*Instrument{},
		IRs:   map[string]*ImpulseResponse{},
	}
	for _, inst := range insts {
		inst.Library = lib
		lib.Insts[inst.Name] = inst
	}
	return lib
}

func TestFinalize_SortOrder(t *testing.T) {
	t.Parallel()

	lib := newTestLibrary(
		&Instrument{Name: "Zebra"},
		&Instrument{Name: "Alto", Folder: "Brass"},
		&Instrument{Name: "Cello", Folder: "Strings"},
		&Instrument{Name: "Apple"},
		&Instrument{Name: "Viola", Folder: "Strings"},
	)
	Finalize(lib)

	want := []string{"Apple", "Zebra", "Alto", "Cello", "Viola"}
	if len(lib.SortedInsts) != len(want) {
		t.Fatalf("got %d instruments, want %d", len(lib.SortedInsts), len(want))
	}
	for i, name := range want {
		if lib.SortedInsts[i].Name != name {
			t.Errorf("SortedInsts[%d] = %q, want %q", i, lib.SortedInsts[i].Name, name)
		}
	}
}

func TestFinalize_AllLoopsMode(t *testing.T) {
	t.Parallel()

	std := &BuiltinLoop{EndFrame: 100, Mode: LoopStandard}
	pp := &BuiltinLoop{EndFrame: 100, Mode: LoopPingPong}

	inst := &Instrument{Name: "I", Regions: []Region{
		region(std, LoopRequirementDefault),
		region(std, LoopRequirementDefault),
	}}
	lib := newTestLibrary(inst)
	Finalize(lib)

	if inst.Overview.AllLoopsMode == nil || *inst.Overview.AllLoopsMode != LoopStandard {
		t.Errorf("AllLoopsMode = %v, want Standard", inst.Overview.AllLoopsMode)
	}
	if !inst.Overview.HasLoops {
		t.Error("HasLoops should be true")
	}

	// Mixed modes: no single mode
	inst.Regions = append(inst.Regions, region(pp, LoopRequirementDefault))
	Finalize(lib)
	if inst.Overview.AllLoopsMode != nil {
		t.Errorf("AllLoopsMode = %v, want nil for mixed modes", *inst.Overview.AllLoopsMode)
	}
}

func TestFinalize_ConvertibleModes(t *testing.T) {
	t.Parallel()

	locked := &BuiltinLoop{EndFrame: 100, Mode: LoopStandard, LockMode: true}
	inst := &Instrument{Name: "I", Regions: []Region{region(locked, LoopRequirementDefault)}}
	lib := newTestLibrary(inst)
	Finalize(lib)

	if !inst.Overview.AllLoopsConvertibleToMode[LoopStandard] {
		t.Error("loops should be convertible to their own locked mode")
	}
	if inst.Overview.AllLoopsConvertibleToMode[LoopPingPong] {
		t.Error("mode-locked loop must not be convertible to another mode")
	}
}

func TestFinalize_UserDefinedLoopsAllowed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		regions []Region
		want    bool
	}{
		{
			name:    "no loops at all",
			regions: []Region{region(nil, LoopRequirementDefault)},
			want:    true,
		},
		{
			name: "every loop locked",
			regions: []Region{
				region(&BuiltinLoop{EndFrame: 10, LockLoopPoints: true}, LoopRequirementDefault),
				region(&BuiltinLoop{EndFrame: 20, LockLoopPoints: true}, LoopRequirementDefault),
			},
			want: false,
		},
		{
			name: "one loop unlocked",
			regions: []Region{
				region(&BuiltinLoop{EndFrame: 10, LockLoopPoints: true}, LoopRequirementDefault),
				region(&BuiltinLoop{EndFrame: 20}, LoopRequirementDefault),
			},
			want: true,
		},
		{
			name: "every region never-loops",
			regions: []Region{
				region(nil, LoopRequirementNever),
				region(nil, LoopRequirementNever),
			},
			want: false,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			inst := &Instrument{Name: "I", Regions: c.regions}
			lib := newTestLibrary(inst)
			Finalize(lib)

			if got := inst.Overview.UserDefinedLoopsAllowed; got != c.want {
				t.Errorf("UserDefinedLoopsAllowed = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFinalize_AllRegionsRequireLooping(t *testing.T) {
	t.Parallel()

	inst := &Instrument{Name: "I", Regions: []Region{
		region(&BuiltinLoop{EndFrame: 10}, LoopRequirementAlways),
		region(&BuiltinLoop{EndFrame: 20}, LoopRequirementAlways),
	}}
	lib := newTestLibrary(inst)
	Finalize(lib)

	if !inst.Overview.AllRegionsRequireLooping {
		t.Error("AllRegionsRequireLooping should be true")
	}
	if inst.Overview.HasNonLoops {
		t.Error("HasNonLoops should be false when every region always loops")
	}
}

func TestFinalize_TimbreAndRoundRobin(t *testing.T) {
	t.Parallel()

	r1 := region(nil, LoopRequirementDefault)
	r1.Trigger.RoundRobinIndex = 3
	r2 := region(nil, LoopRequirementDefault)
	r2.TimbreLayerRange = &Range{0, 90}

	inst := &Instrument{Name: "I", Regions: []Region{r1, r2}}
	lib := newTestLibrary(inst)
	Finalize(lib)

	if inst.MaxRoundRobinIndex != 3 {
		t.Errorf("MaxRoundRobinIndex = %d, want 3", inst.MaxRoundRobinIndex)
	}
	if !inst.UsesTimbreLayering {
		t.Error("UsesTimbreLayering should be true")
	}
	if lib.NumRegions != 2 {
		t.Errorf("NumRegions = %d, want 2", lib.NumRegions)
	}
}
