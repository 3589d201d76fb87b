package audiomux

import "fmt"

// Prober reads container/stream metadata needed to resolve a track's
// padding delay and to pick the mixdown's target sample rate.
type Prober interface {
	Probe(path string) (TrackProbe, error)
}

// FilterGraphBuilder builds the declarative filter graphs spec.md §4.2.1
// and §4.2.3 describe. Implementations never invoke ffmpeg themselves;
// Encoder.Encode does, from the FilterGraph value these return.
type FilterGraphBuilder interface {
	// BuildPadGraph builds abuffer -> aresample(async=1) -> adelay(delays=d:all=1) -> abuffersink
	// for a single track, per spec.md §4.2.1 step 4. A single delay value
	// is emitted; all=1 applies it to every channel.
	BuildPadGraph(delayMs int) FilterGraph
	// BuildMixGraph builds abuffer[i] -> amix(inputs=N, normalize=0) ->
	// aformat(s16, stereo, rate=R) -> abuffersink for N tracks, per
	// spec.md §4.2.3. normalize=0 is required to preserve level with N
	// inputs (spec.md §4.2.3: "normalize=0 is required to preserve level
	// with N inputs").
	BuildMixGraph(trackCount, sampleRate int) FilterGraph
}

// Encoder renders a FilterGraph against concrete input files and writes an
// encoded container to outputPath under the given profile.
type Encoder interface {
	Encode(inputs []string, graph FilterGraph, outputPath string, profile EncodeProfile) error
}

// builder is the default FilterGraphBuilder; it has no external
// dependencies of its own (graph construction is pure data), so it needs
// no constructor arguments.
type builder struct{}

// NewBuilder returns the default FilterGraphBuilder.
func NewBuilder() FilterGraphBuilder { return builder{} }

func (builder) BuildPadGraph(delayMs int) FilterGraph {
	return FilterGraph{
		Inputs: []string{"in0"},
		Steps: []FilterStep{
			{Name: "aresample", Args: map[string]string{"async": "1"}},
			{Name: "adelay", Args: map[string]string{
				"delays": fmt.Sprintf("%d", delayMs),
				"all":    "1",
			}},
		},
		Output: "out",
	}
}

func (builder) BuildMixGraph(trackCount, sampleRate int) FilterGraph {
	inputs := make([]string, trackCount)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("in%d", i)
	}
	return FilterGraph{
		Inputs: inputs,
		Steps: []FilterStep{
			{Name: "amix", Args: map[string]string{
				"inputs":    fmt.Sprintf("%d", trackCount),
				"normalize": "0",
			}},
			{Name: "aformat", Args: map[string]string{
				"sample_fmts":     "s16",
				"channel_layouts": "stereo",
				"sample_rates":    fmt.Sprintf("%d", sampleRate),
			}},
		},
		Output: "out",
	}
}

// FilterComplex renders a FilterGraph to an ffmpeg -filter_complex
// expression string. Kept separate from the declarative FilterGraph type
// so construction (tested without ffmpeg) stays decoupled from rendering
// (exercised only by the ffmpeg-backed Encoder).
func FilterComplex(g FilterGraph) string {
	expr := ""
	for _, label := range g.Inputs {
		expr += fmt.Sprintf("[%s]", label)
	}
	for i, step := range g.Steps {
		if i > 0 {
			expr += ","
		}
		expr += stepExpr(step)
	}
	return expr + fmt.Sprintf("[%s]", g.Output)
}

func stepExpr(s FilterStep) string {
	out := s.Name
	if len(s.Args) == 0 {
		return out
	}
	out += "="
	first := true
	// Deterministic order matters for testability; callers compare the
	// rendered string, so iterate the fixed arg names a graph builder
	// above actually produces rather than ranging over the map.
	for _, k := range orderedKeys(s.Args) {
		if !first {
			out += ":"
		}
		out += fmt.Sprintf("%s=%s", k, s.Args[k])
		first = false
	}
	return out
}

// orderedKeys returns the well-known arg names in a stable order when
// present, falling back to encounter order for anything else.
func orderedKeys(args map[string]string) []string {
	known := []string{"delays", "all", "async", "inputs", "normalize", "sample_fmts", "channel_layouts", "sample_rates"}
	out := make([]string, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, k := range known {
		if _, ok := args[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	for k := range args {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}
