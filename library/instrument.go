// SPDX-License-Identifier: EPL-2.0

package library

// TriggerEvent selects which MIDI event starts a region.
type TriggerEvent uint8

const (
	TriggerNoteOn TriggerEvent = iota
	TriggerNoteOff
)

// LoopMode is the playback direction of a loop.
type LoopMode uint8

const (
	LoopStandard LoopMode = iota
	LoopPingPong

	NumLoopModes = 2
)

// LoopRequirement is the author's looping policy for a region.
type LoopRequirement uint8

const (
	// LoopRequirementDefault leaves looping to the player.
	LoopRequirementDefault LoopRequirement = iota
	// LoopRequirementAlways means the region must always loop.
	LoopRequirementAlways
	// LoopRequirementNever forbids looping the region.
	LoopRequirementNever
)

// Range is a half-open [Start, End) interval. Key ranges are MIDI notes;
// velocity and timbre ranges are in 0..100.
type Range struct {
	Start int
	End   int
}

// Contains reports whether v falls inside the interval.
func (r Range) Contains(v int) bool { return v >= r.Start && v < r.End }

// Size returns End-Start.
func (r Range) Size() int { return r.End - r.Start }

// BuiltinLoop is a loop baked into the library by its author.
type BuiltinLoop struct {
	// StartFrame and EndFrame may be negative, meaning an index from the
	// end of the audio file.
	StartFrame      int64
	EndFrame        int64
	CrossfadeFrames uint32
	Mode            LoopMode
	LockLoopPoints  bool
	LockMode        bool
}

// RegionLoop combines an optional builtin loop with the looping policy.
type RegionLoop struct {
	Builtin     *BuiltinLoop
	Requirement LoopRequirement
}

// NoRoundRobin marks a region that takes no part in round-robin rotation.
const NoRoundRobin = -1

// TriggerCriteria decides when a region sounds.
type TriggerCriteria struct {
	Event         TriggerEvent
	KeyRange      Range
	VelocityRange Range // [Start, End) in 0..100

	// RoundRobinIndex is the region's slot in its round-robin sequence,
	// or NoRoundRobin.
	RoundRobinIndex int

	FeatherOverlappingVelocityLayers bool
}

// Region maps trigger criteria to one audio file inside an instrument.
type Region struct {
	// Path is the library-relative audio path, resolvable through the
	// owning Library's Open.
	Path    string
	RootKey uint8

	Loop    RegionLoop
	Trigger TriggerCriteria

	GainDb float32

	// TimbreLayerRange is set when the region belongs to a timbre
	// crossfade layer; the range is the timbre-knob span in 0..100.
	TimbreLayerRange *Range
}

// LoopOverview is derived state summarizing the loops of all regions of an
// instrument. It is a pure function of the region set; Finalize recomputes
// it whenever regions are replaced.
type LoopOverview struct {
	AllLoopsConvertibleToMode [NumLoopModes]bool
	AllLoopsMode              *LoopMode

	HasLoops    bool
	HasNonLoops bool

	UserDefinedLoopsAllowed  bool
	AllRegionsRequireLooping bool
}

// Instrument is a named set of regions inside a library.
type Instrument struct {
	Library *Library

	Name        string
	Folder      string // optional, may contain '/'
	Description string
	Tags        []string

	// WaveformAudioPath is the audio file drawn as the instrument's GUI
	// waveform.
	WaveformAudioPath string

	Regions []Region

	Overview LoopOverview

	MaxRoundRobinIndex int
	UsesTimbreLayering bool
}

// ImpulseResponse is a convolution reverb impulse inside a library.
type ImpulseResponse struct {
	Library *Library

	Name   string
	Path   string // library-relative audio path
	Folder string // optional
	Tags   []string
}
