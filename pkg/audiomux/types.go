// Package audiomux is a thin, declarative binding over an external muxing
// and filter-graph library (spec.md §2 "Audio Mux Library Binding": "thin
// wrapper... external dependency; contract only"). No pure-Go ffmpeg or
// gstreamer filter-graph binding appears anywhere in the retrieval pack
// (DESIGN.md), so the default implementation in this package shells out to
// the ffprobe/ffmpeg binaries via os/exec — the idiomatic Go way to bind a
// tool with no native Go port. Filter graphs are represented as declarative
// step lists rather than raw ffmpeg filter strings so pkg/pipeline can be
// unit tested against graph construction without invoking ffmpeg at all.
package audiomux

import "time"

// TrackProbe carries the start-time candidates spec.md §4.2.1 requires
// trying in priority order: stream.start_time > container start time >
// first packet's DTS. Pointers are nil when the container/stream did not
// report that field.
type TrackProbe struct {
	StreamStartTime    *float64 // seconds, from the audio stream's time_base
	ContainerStartTime *float64 // seconds, from the format/container header
	FirstPacketDTS     *float64 // seconds, decode timestamp of the first packet
	SampleRate         int
	Channels           int
	Duration           time.Duration
}

// StartTimeSeconds resolves the padding delay source per spec.md §4.2.1's
// hard contract ("stream.start_time is ~209ms more accurate than filename
// timestamps and must be tried first"). Returns 0 when none of the three
// candidates are present — spec.md §9 Ambiguity (i): "no padding needed."
func (p TrackProbe) StartTimeSeconds() float64 {
	switch {
	case p.StreamStartTime != nil:
		return *p.StreamStartTime
	case p.ContainerStartTime != nil:
		return *p.ContainerStartTime
	case p.FirstPacketDTS != nil:
		return *p.FirstPacketDTS
	default:
		return 0
	}
}

// FilterStep is one declarative node in a filter graph, e.g.
// {Name: "adelay", Args: map[string]string{"delays": "1203", "all": "1"}}.
type FilterStep struct {
	Name string
	Args map[string]string
}

// FilterGraph is an ordered pipeline of named filter steps, one graph per
// audio path (abuffer -> ... -> abuffersink). Multiple input graphs can
// share a common mix/sink tail for the N-track mixdown case.
type FilterGraph struct {
	Inputs []string     // input stream labels, e.g. "in0", "in1"
	Steps  []FilterStep // applied in order after the inputs are buffered
	Output string       // sink label
}

// EncodeProfile names one of the two fixed encode targets spec.md §6
// requires: padded tracks (Opus) and the final mixdown (MP3).
type EncodeProfile struct {
	Codec      string // "libopus" | "libmp3lame"
	SampleRate int
	Channels   int
	BitrateKbps int
	Container  string // "webm" | "mp3"
}

// OpusPaddedProfile is the padded-track encode target: Opus 48kHz stereo
// 64kbps in a WebM container, per spec.md §4.2.1 step 4 and §6.
var OpusPaddedProfile = EncodeProfile{
	Codec:       "libopus",
	SampleRate:  48000,
	Channels:    2,
	BitrateKbps: 64,
	Container:   "webm",
}

// MP3MixdownProfile is the mixdown encode target: MP3 192kbps, sample rate
// probed from the first decodable track, per spec.md §4.2.3 and §6.
func MP3MixdownProfile(sampleRate int) EncodeProfile {
	return EncodeProfile{
		Codec:       "libmp3lame",
		SampleRate:  sampleRate,
		Channels:    2,
		BitrateKbps: 192,
		Container:   "mp3",
	}
}
