// SPDX-License-Identifier: EPL-2.0

package state

import "github.com/floe-audio/samplelib/utils"

// ParamIndex identifies a parameter slot in a StateSnapshot. Master and
// effect parameters occupy a fixed prefix, followed by NumLayers blocks
// of layer parameters.
type ParamIndex uint16

const (
	ParamMasterVolume ParamIndex = iota
	ParamMasterVelocityToVolume
	ParamMasterTimbre

	ParamDistortionOn
	ParamDistortionType
	ParamDistortionDrive

	ParamBitCrushOn
	ParamBitCrushBits
	ParamBitCrushSampleRate
	ParamBitCrushWet
	ParamBitCrushDry

	ParamCompressorOn
	ParamCompressorThreshold
	ParamCompressorRatio
	ParamCompressorGain

	ParamFilterOn
	ParamFilterType
	ParamFilterCutoff
	ParamFilterResonance

	ParamStereoWidenOn
	ParamStereoWidenWidth

	ParamChorusOn
	ParamChorusRate
	ParamChorusDepth
	ParamChorusHighpass
	ParamChorusWet
	ParamChorusDry

	ParamReverbOn
	ParamReverbMix
	ParamReverbSize
	ParamReverbDelay
	ParamReverbChorusFrequency
	ParamReverbChorusAmount
	ParamReverbPreLowPassCutoff
	ParamReverbPreHighPassCutoff

	ParamDelayOn
	ParamDelayTimeLMs
	ParamDelayTimeRMs
	ParamDelayTimeSyncSwitch
	ParamDelayTimeSyncedL
	ParamDelayTimeSyncedR
	ParamDelayMode
	ParamDelayFeedback
	ParamDelayMix

	ParamPhaserOn
	ParamPhaserMix
	ParamPhaserStereoAmount
	ParamPhaserFeedback
	ParamPhaserModDepth
	ParamPhaserModFreqHz
	ParamPhaserCenterSemitones

	ParamConvolutionOn
	ParamConvolutionWet
	ParamConvolutionDry

	layerParamsStart
)

// LayerParam identifies a parameter within one layer's block.
type LayerParam uint16

const (
	LayerVolume LayerParam = iota
	LayerPan
	LayerMute
	LayerTuneSemitones
	LayerTuneCents
	LayerKeytrack
	LayerReverse
	LayerSampleOffset
	LayerLoopMode
	LayerLoopStart
	LayerLoopEnd
	LayerLoopCrossfade
	LayerCC64Retrigger
	LayerVolumeAttack
	LayerVolumeDecay
	LayerVolumeSustain
	LayerVolumeRelease

	numLayerParams = int(LayerVolumeRelease) + 1
)

// NumLayers is the number of sampler layers a preset addresses.
const NumLayers = 3

// NumParams is the total size of a StateSnapshot's parameter array.
const NumParams = int(layerParamsStart) + NumLayers*numLayerParams

// LayerParamIndex returns the ParamIndex for a layer-local parameter.
func LayerParamIndex(layer int, p LayerParam) ParamIndex {
	return layerParamsStart + ParamIndex(layer*numLayerParams) + ParamIndex(p)
}

// Loop mode menu values for LayerLoopMode.
const (
	LoopModeInstrumentDefault float32 = 0
	LoopModeRegular           float32 = 1
	LoopModePingPong          float32 = 2
)

// Delay mode menu values for ParamDelayMode.
const (
	DelayModeStereo     float32 = 0
	DelayModePingPongLR float32 = 1
	DelayModePingPongRL float32 = 2
)

// legacyProjection converts a legacy-unit value into the current linear
// unit on resolution through a legacy name.
type legacyProjection uint8

const (
	projectNone legacyProjection = iota
	// projectPercentToFraction divides by 100.
	projectPercentToFraction
	// projectDbToAmp converts decibels to linear amplitude.
	projectDbToAmp
)

// menuItem is one enumerated value of a menu parameter. Value strings in
// preset documents match either Name or LegacyAlias.
type menuItem struct {
	Name        string
	LegacyAlias string
}

type paramInfo struct {
	Name        string
	LegacyNames []string
	Projection  legacyProjection // applied only on legacy-name hits
	Default     float32
	Min, Max    float32
	Menu        []menuItem // non-nil for menu parameters
}

var delaySyncedTimes = []menuItem{
	{Name: "1/64T"}, {Name: "1/64"}, {Name: "1/64D"},
	{Name: "1/32T"}, {Name: "1/32"}, {Name: "1/32D"},
	{Name: "1/16T"}, {Name: "1/16"}, {Name: "1/16D"},
	{Name: "1/8T"}, {Name: "1/8"}, {Name: "1/8D"},
	{Name: "1/4T"}, {Name: "1/4"}, {Name: "1/4D"},
	{Name: "1/2T"}, {Name: "1/2"}, {Name: "1/2D"},
	{Name: "1/1T"}, {Name: "1/1"}, {Name: "1/1D"},
}

// paramTable describes every current parameter. Indexed by ParamIndex
// for the fixed prefix; the three layer blocks share layerParamTable.
var paramTable = map[ParamIndex]paramInfo{
	ParamMasterVolume:           {Name: "MasterVolume", LegacyNames: []string{"MasterVolDb"}, Projection: projectDbToAmp, Default: 0.6, Min: 0, Max: 4},
	ParamMasterVelocityToVolume: {Name: "MasterVelocity", LegacyNames: []string{"MasterVelocity%"}, Projection: projectPercentToFraction, Default: 0, Min: 0, Max: 1},
	ParamMasterTimbre:           {Name: "MasterTimbre", LegacyNames: []string{"MasterDynamics%"}, Projection: projectPercentToFraction, Default: 0.5, Min: 0, Max: 1},

	ParamDistortionOn:    {Name: "DistortionOn", Default: 0, Min: 0, Max: 1},
	ParamDistortionType:  {Name: "DistortionType", Default: 0, Menu: []menuItem{{Name: "Tube"}, {Name: "Clip", LegacyAlias: "Hard Clip"}, {Name: "Fold"}}},
	ParamDistortionDrive: {Name: "DistortionDrive", Default: 0.2, Min: 0, Max: 1},

	ParamBitCrushOn:         {Name: "BitCrushOn", Default: 0, Min: 0, Max: 1},
	ParamBitCrushBits:       {Name: "BitCrushBits", Default: 16, Min: 1, Max: 32},
	ParamBitCrushSampleRate: {Name: "BitCrushSampleRate", Default: 44100, Min: 100, Max: 44100},
	ParamBitCrushWet:        {Name: "BitCrushWet", LegacyNames: []string{"BitCrushWetDb"}, Projection: projectDbToAmp, Default: 1, Min: 0, Max: 2},
	ParamBitCrushDry:        {Name: "BitCrushDry", LegacyNames: []string{"BitCrushDryDb"}, Projection: projectDbToAmp, Default: 0, Min: 0, Max: 2},

	ParamCompressorOn:        {Name: "CompressorOn", Default: 0, Min: 0, Max: 1},
	ParamCompressorThreshold: {Name: "CompressorThreshold", Default: 0.5, Min: 0, Max: 1},
	ParamCompressorRatio:     {Name: "CompressorRatio", Default: 0.3, Min: 0, Max: 1},
	ParamCompressorGain:      {Name: "CompressorGain", Default: 0.5, Min: 0, Max: 1},

	ParamFilterOn:        {Name: "FilterOn", Default: 0, Min: 0, Max: 1},
	ParamFilterType:      {Name: "FilterType", Default: 0, Menu: []menuItem{{Name: "Low-Pass", LegacyAlias: "LP"}, {Name: "High-Pass", LegacyAlias: "HP"}, {Name: "Band-Pass", LegacyAlias: "BP"}, {Name: "Notch"}}},
	ParamFilterCutoff:    {Name: "FilterCutoff", Default: 0.6, Min: 0, Max: 1},
	ParamFilterResonance: {Name: "FilterResonance", Default: 0, Min: 0, Max: 1},

	ParamStereoWidenOn:    {Name: "StereoWidenOn", Default: 0, Min: 0, Max: 1},
	ParamStereoWidenWidth: {Name: "StereoWidenWidth", LegacyNames: []string{"StereoWidenWidth%"}, Projection: projectPercentToFraction, Default: 0.5, Min: 0, Max: 1},

	ParamChorusOn:       {Name: "ChorusOn", Default: 0, Min: 0, Max: 1},
	ParamChorusRate:     {Name: "ChorusRate", Default: 0.3, Min: 0, Max: 1},
	ParamChorusDepth:    {Name: "ChorusDepth", Default: 0.4, Min: 0, Max: 1},
	ParamChorusHighpass: {Name: "ChorusHighpass", Default: 0, Min: 0, Max: 1},
	ParamChorusWet:      {Name: "ChorusWet", LegacyNames: []string{"ChorusWetDb"}, Projection: projectDbToAmp, Default: 0.6, Min: 0, Max: 2},
	ParamChorusDry:      {Name: "ChorusDry", LegacyNames: []string{"ChorusDryDb"}, Projection: projectDbToAmp, Default: 1, Min: 0, Max: 2},

	ParamReverbOn:                {Name: "ReverbIsOn", Default: 0, Min: 0, Max: 1},
	ParamReverbMix:               {Name: "ReverbMix", Default: 0.3, Min: 0, Max: 1},
	ParamReverbSize:              {Name: "ReverbSize", Default: 0.5, Min: 0, Max: 1},
	ParamReverbDelay:             {Name: "ReverbDelay", Default: 0, Min: 0, Max: 1},
	ParamReverbChorusFrequency:   {Name: "ReverbChorusFrequency", Default: 0.2, Min: 0, Max: 1},
	ParamReverbChorusAmount:      {Name: "ReverbChorusAmount", Default: 0, Min: 0, Max: 1},
	ParamReverbPreLowPassCutoff:  {Name: "ReverbPreLowPassCutoff", Default: 1, Min: 0, Max: 1},
	ParamReverbPreHighPassCutoff: {Name: "ReverbPreHighPassCutoff", Default: 0, Min: 0, Max: 1},

	ParamDelayOn:             {Name: "DelayIsOn", Default: 0, Min: 0, Max: 1},
	ParamDelayTimeLMs:        {Name: "DelayTimeLMs", Default: 250, Min: 1, Max: 2000},
	ParamDelayTimeRMs:        {Name: "DelayTimeRMs", Default: 250, Min: 1, Max: 2000},
	ParamDelayTimeSyncSwitch: {Name: "DelayTimeSyncSwitch", Default: 1, Min: 0, Max: 1},
	ParamDelayTimeSyncedL:    {Name: "DelayTimeSyncedL", Default: 13, Menu: delaySyncedTimes},
	ParamDelayTimeSyncedR:    {Name: "DelayTimeSyncedR", Default: 13, Menu: delaySyncedTimes},
	ParamDelayMode:           {Name: "DelayMode", Default: DelayModeStereo, Menu: []menuItem{{Name: "Stereo"}, {Name: "Ping-Pong LR", LegacyAlias: "Ping-pong LR"}, {Name: "Ping-Pong RL", LegacyAlias: "Ping-pong RL"}}},
	ParamDelayFeedback:       {Name: "DelayFeedback", LegacyNames: []string{"DelayFeedback%"}, Projection: projectPercentToFraction, Default: 0.4, Min: 0, Max: 1},
	ParamDelayMix:            {Name: "DelayMix", Default: 0.3, Min: 0, Max: 1},

	ParamPhaserOn:              {Name: "PhaserIsOn", Default: 0, Min: 0, Max: 1},
	ParamPhaserMix:             {Name: "PhaserMix", Default: 0.3, Min: 0, Max: 1},
	ParamPhaserStereoAmount:    {Name: "PhaserStereoAmount", Default: 0, Min: 0, Max: 1},
	ParamPhaserFeedback:        {Name: "PhaserFeedback", Default: 0.3, Min: 0, Max: 1},
	ParamPhaserModDepth:        {Name: "PhaserModDepth", Default: 0.5, Min: 0, Max: 1},
	ParamPhaserModFreqHz:       {Name: "PhaserModFreqHz", Default: 0.3, Min: 0.01, Max: 20},
	ParamPhaserCenterSemitones: {Name: "PhaserCenterSemitones", Default: 64, Min: 0, Max: 128},

	ParamConvolutionOn:  {Name: "ConvolutionOn", Default: 0, Min: 0, Max: 1},
	ParamConvolutionWet: {Name: "ConvolutionWet", LegacyNames: []string{"ConvolutionWetDb"}, Projection: projectDbToAmp, Default: 0.6, Min: 0, Max: 2},
	ParamConvolutionDry: {Name: "ConvolutionDry", LegacyNames: []string{"ConvolutionDryDb"}, Projection: projectDbToAmp, Default: 1, Min: 0, Max: 2},
}

// layerParamTable describes the per-layer parameters. Names get an
// "L<n>" prefix when resolved against a preset document.
var layerParamTable = map[LayerParam]paramInfo{
	LayerVolume:        {Name: "Vol", LegacyNames: []string{"Vol%"}, Projection: projectPercentToFraction, Default: 0.6, Min: 0, Max: 2},
	LayerPan:           {Name: "Pan", Default: 0, Min: -1, Max: 1},
	LayerMute:          {Name: "Mute", Default: 0, Min: 0, Max: 1},
	LayerTuneSemitones: {Name: "TuneSemitone", Default: 0, Min: -36, Max: 36},
	LayerTuneCents:     {Name: "TuneCents", Default: 0, Min: -100, Max: 100},
	LayerKeytrack:      {Name: "Keytrack", Default: 1, Min: 0, Max: 1},
	LayerReverse:       {Name: "Reverse", Default: 0, Min: 0, Max: 1},
	LayerSampleOffset:  {Name: "SampleOffset", LegacyNames: []string{"SampleOffset%"}, Projection: projectPercentToFraction, Default: 0, Min: 0, Max: 1},
	LayerLoopMode:      {Name: "LoopMode", Default: LoopModeInstrumentDefault, Menu: []menuItem{{Name: "Instrument Default", LegacyAlias: "Default"}, {Name: "Regular", LegacyAlias: "Loop"}, {Name: "Ping-Pong"}}},
	LayerLoopStart:     {Name: "LoopStart", LegacyNames: []string{"LoopStart%"}, Projection: projectPercentToFraction, Default: 0, Min: 0, Max: 1},
	LayerLoopEnd:       {Name: "LoopEnd", LegacyNames: []string{"LoopEnd%"}, Projection: projectPercentToFraction, Default: 1, Min: 0, Max: 1},
	LayerLoopCrossfade: {Name: "LoopCrossfade", LegacyNames: []string{"LoopCrossfade%"}, Projection: projectPercentToFraction, Default: 0, Min: 0, Max: 1},
	LayerCC64Retrigger: {Name: "CC64Retrigger", Default: 1, Min: 0, Max: 1},
	LayerVolumeAttack:  {Name: "VolumeAttack", Default: 0, Min: 0, Max: 1},
	LayerVolumeDecay:   {Name: "VolumeDecay", Default: 0.5, Min: 0, Max: 1},
	LayerVolumeSustain: {Name: "VolumeSustain", Default: 1, Min: 0, Max: 1},
	LayerVolumeRelease: {Name: "VolumeRelease", Default: 0.3, Min: 0, Max: 1},
}

// paramLookup maps every current and legacy parameter name to its index
// and the projection to apply on a legacy-name hit.
type paramLookup struct {
	Index      ParamIndex
	Projection legacyProjection
}

var paramsByName = buildParamsByName()

func buildParamsByName() map[string]paramLookup {
	m := make(map[string]paramLookup, NumParams*2)
	for idx, info := range paramTable {
		m[info.Name] = paramLookup{Index: idx}
		for _, legacy := range info.LegacyNames {
			m[legacy] = paramLookup{Index: idx, Projection: info.Projection}
		}
	}
	for layer := 0; layer < NumLayers; layer++ {
		prefix := layerPrefix(layer)
		for p, info := range layerParamTable {
			idx := LayerParamIndex(layer, p)
			m[prefix+info.Name] = paramLookup{Index: idx}
			for _, legacy := range info.LegacyNames {
				m[prefix+legacy] = paramLookup{Index: idx, Projection: info.Projection}
			}
		}
	}
	return m
}

func layerPrefix(layer int) string {
	return "L" + string(rune('0'+layer))
}

func infoFor(idx ParamIndex) paramInfo {
	if idx < layerParamsStart {
		return paramTable[idx]
	}
	rel := int(idx - layerParamsStart)
	return layerParamTable[LayerParam(rel%numLayerParams)]
}

// defaultParams returns a fully backfilled parameter array.
func defaultParams() []float32 {
	out := make([]float32, NumParams)
	for idx, info := range paramTable {
		out[idx] = info.Default
	}
	for layer := 0; layer < NumLayers; layer++ {
		for p, info := range layerParamTable {
			out[LayerParamIndex(layer, p)] = info.Default
		}
	}
	return out
}

// linearise converts a raw preset value into the parameter's linear
// representation, applying the legacy projection and clamping to range.
// Menu parameters clamp to a valid item index instead.
func linearise(info paramInfo, proj legacyProjection, v float32) float32 {
	switch proj {
	case projectPercentToFraction:
		v /= 100
	case projectDbToAmp:
		v = utils.DbToAmp(v)
	}
	if info.Menu != nil {
		if v < 0 {
			return 0
		}
		if max := float32(len(info.Menu) - 1); v > max {
			return max
		}
		return float32(int(v))
	}
	if v < info.Min {
		return info.Min
	}
	if v > info.Max {
		return info.Max
	}
	return v
}

// menuValue resolves a string value for a menu parameter, matching the
// current name first and the legacy alias second.
func menuValue(info paramInfo, s string) (float32, bool) {
	for i, item := range info.Menu {
		if s == item.Name || (item.LegacyAlias != "" && s == item.LegacyAlias) {
			return float32(i), true
		}
	}
	return 0, false
}
