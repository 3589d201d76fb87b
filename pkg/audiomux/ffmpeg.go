package audiomux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/reflector-core/reflector/pkg/errs"
)

// ffprobeOutput is the subset of `ffprobe -print_format json -show_format
// -show_streams` output this package reads.
type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		StartTime    string `json:"start_time"`
		SampleRate   string `json:"sample_rate"`
		Channels     int    `json:"channels"`
		DurationTS   int64  `json:"duration_ts"`
		Duration     string `json:"duration"`
		TimeBase     string `json:"time_base"`
		StartPTS     int64  `json:"start_pts"`
	} `json:"streams"`
	Format struct {
		StartTime string `json:"start_time"`
		Duration  string `json:"duration"`
	} `json:"format"`
}

// FFProbeProber is the default Prober: it shells out to `ffprobe`.
type FFProbeProber struct {
	// Runner executes an external command and returns its stdout; swapped
	// out in tests to avoid requiring an ffprobe binary on the test host.
	Runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewFFProbeProber returns a Prober backed by the real ffprobe binary.
func NewFFProbeProber() *FFProbeProber {
	return &FFProbeProber{Runner: runCommand}
}

// Probe reads the first audio stream's start-time candidates from path,
// per spec.md §4.2.1's priority contract.
func (p *FFProbeProber) Probe(path string) (TrackProbe, error) {
	out, err := p.Runner(context.Background(), "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return TrackProbe{}, errs.New(errs.Protocol, "audiomux", "Probe", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return TrackProbe{}, errs.New(errs.Protocol, "audiomux", "Probe", fmt.Errorf("parse ffprobe output: %w", err))
	}

	probe := TrackProbe{}
	for _, s := range parsed.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if v, ok := parseFloat(s.StartTime); ok {
			probe.StreamStartTime = &v
		}
		if v, ok := parseFloat(s.Duration); ok {
			probe.Duration = time.Duration(v * float64(time.Second))
		}
		if sr, err := strconv.Atoi(s.SampleRate); err == nil {
			probe.SampleRate = sr
		}
		probe.Channels = s.Channels
		if probe.StreamStartTime == nil && s.TimeBase != "" {
			if dts, ok := dtsSeconds(s.StartPTS, s.TimeBase); ok {
				probe.FirstPacketDTS = &dts
			}
		}
		break
	}

	if v, ok := parseFloat(parsed.Format.StartTime); ok {
		probe.ContainerStartTime = &v
	}

	return probe, nil
}

func dtsSeconds(pts int64, timeBase string) (float64, bool) {
	var num, den int64
	if _, err := fmt.Sscanf(timeBase, "%d/%d", &num, &den); err != nil || den == 0 {
		return 0, false
	}
	return float64(pts) * float64(num) / float64(den), true
}

func parseFloat(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FFmpegEncoder is the default Encoder: it shells out to `ffmpeg` with a
// -filter_complex expression rendered from the declarative FilterGraph.
type FFmpegEncoder struct {
	Runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewFFmpegEncoder returns an Encoder backed by the real ffmpeg binary.
func NewFFmpegEncoder() *FFmpegEncoder {
	return &FFmpegEncoder{Runner: runCommand}
}

// Encode renders graph against inputs and writes outputPath using profile,
// per spec.md §4.2.1 step 4 (pad, Opus/WebM) and §4.2.3 (mixdown, MP3).
func (e *FFmpegEncoder) Encode(inputs []string, graph FilterGraph, outputPath string, profile EncodeProfile) error {
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", FilterComplex(graph),
		"-map", fmt.Sprintf("[%s]", graph.Output),
		"-c:a", profile.Codec,
		"-ar", strconv.Itoa(profile.SampleRate),
		"-ac", strconv.Itoa(profile.Channels),
		"-b:a", fmt.Sprintf("%dk", profile.BitrateKbps),
		outputPath,
	)

	if _, err := e.Runner(context.Background(), "ffmpeg", args...); err != nil {
		return errs.New(errs.Protocol, "audiomux", "Encode", err)
	}
	return nil
}

// runCommand is the real subprocess runner used by NewFFProbeProber and
// NewFFmpegEncoder. Isolated as a var-assignable field (not a package
// function call) so tests can substitute a fake without a real binary.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
