package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/reflector-core/reflector/pkg/audiomux"
	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/inference"
)

// PadTrackInput is pad_track's input per spec.md §4.2.1.
type PadTrackInput struct {
	TrackIndex   int
	SourceKey    string
	BucketName   string
	TranscriptID string
}

// PadTrackOutput is pad_track's output per spec.md §4.2.1.
type PadTrackOutput struct {
	PaddedURL  string
	Size       int64
	TrackIndex int
}

// PadTrack implements spec.md §4.2.1: presign the source, probe its start
// time, pass through unchanged if no padding is needed, else build a pad
// filter graph, re-encode with Opus, upload, and return a presigned URL.
func (d Deps) PadTrack(ctx context.Context, in PadTrackInput) (PadTrackOutput, error) {
	sourceURL, err := d.Store.PresignGet(ctx, in.BucketName, in.SourceKey)
	if err != nil {
		return PadTrackOutput{}, err
	}

	probe, err := d.Prober.Probe(sourceURL)
	if err != nil {
		return PadTrackOutput{}, err
	}

	startSeconds := probe.StartTimeSeconds()
	if startSeconds <= 0 {
		// spec.md §9 Ambiguity (i): no decodable start time means no
		// padding needed; pass the source through unchanged.
		return PadTrackOutput{PaddedURL: sourceURL, Size: 0, TrackIndex: in.TrackIndex}, nil
	}

	delayMs := int(startSeconds * 1000)
	graph := d.GraphBuilder.BuildPadGraph(delayMs)

	dir, cleanup, err := d.Scratch()
	if err != nil {
		return PadTrackOutput{}, err
	}
	defer cleanup()

	outputPath := filepath.Join(dir, fmt.Sprintf("padded_%d.webm", in.TrackIndex))
	if err := d.Encoder.Encode([]string{sourceURL}, graph, outputPath, audiomux.OpusPaddedProfile); err != nil {
		return PadTrackOutput{}, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return PadTrackOutput{}, errs.New(errs.Protocol, "pipeline", "PadTrack", err)
	}

	f, err := os.Open(outputPath)
	if err != nil {
		return PadTrackOutput{}, errs.New(errs.Protocol, "pipeline", "PadTrack", err)
	}
	defer f.Close()

	key := PaddedTrackKey(d.Engine, in.TranscriptID, in.TrackIndex)
	if err := d.Store.Put(ctx, in.BucketName, key, f, "audio/webm"); err != nil {
		return PadTrackOutput{}, err
	}

	paddedURL, err := d.Store.PresignGet(ctx, in.BucketName, key)
	if err != nil {
		return PadTrackOutput{}, err
	}

	return PadTrackOutput{PaddedURL: paddedURL, Size: info.Size(), TrackIndex: in.TrackIndex}, nil
}

// TranscribeTrackOutput is transcribe_track's output per spec.md §4.2.2.
type TranscribeTrackOutput struct {
	TrackIndex int
	Words      []SpeakerWord
}

// TranscribeTrack implements spec.md §4.2.2: transcribe a padded track and
// tag every word with speaker=track_index. A non-empty track returning
// zero words is Protocol-fatal per spec.md §7 (no partial transcript is
// produced).
func (d Deps) TranscribeTrack(ctx context.Context, trackIndex int, paddedURL string) (TranscribeTrackOutput, error) {
	result, err := d.Transcriber.TranscribeFromURL(ctx, paddedURL, d.Model, d.Language, 0)
	if err != nil {
		return TranscribeTrackOutput{}, err
	}
	if len(result.Words) == 0 {
		return TranscribeTrackOutput{}, errs.New(errs.Protocol, "pipeline", "TranscribeTrack",
			fmt.Errorf("track %d produced zero words", trackIndex))
	}

	words := make([]SpeakerWord, len(result.Words))
	for i, w := range result.Words {
		words[i] = SpeakerWord{Word: w, Speaker: trackIndex}
	}
	return TranscribeTrackOutput{TrackIndex: trackIndex, Words: words}, nil
}

// MixdownInput is mixdown_tracks's input per spec.md §4.2.3.
type MixdownInput struct {
	TranscriptID string
	BucketName   string
	PaddedURLs   []string
}

// MixdownOutput is mixdown_tracks's output per spec.md §4.2.3.
type MixdownOutput struct {
	AudioKey string
	Duration float64
	Size     int64
}

// MixdownTracks implements spec.md §4.2.3: probe the first decodable
// frame across tracks for the target sample rate, build an N-input
// amix(normalize=0) graph, encode MP3 @ 192kbps, and upload under
// `<transcript_id>/audio.mp3`. A mixdown producing no decodable frames is
// fatal to the workflow per spec.md §4.2's failure semantics.
func (d Deps) MixdownTracks(ctx context.Context, in MixdownInput) (MixdownOutput, error) {
	if len(in.PaddedURLs) == 0 {
		return MixdownOutput{}, errs.New(errs.Protocol, "pipeline", "MixdownTracks", fmt.Errorf("no tracks to mix"))
	}

	sampleRate := 0
	var duration float64
	for _, url := range in.PaddedURLs {
		probe, err := d.Prober.Probe(url)
		if err != nil {
			continue
		}
		if probe.SampleRate > 0 {
			sampleRate = probe.SampleRate
		}
		if s := probe.Duration.Seconds(); s > duration {
			duration = s
		}
		if sampleRate > 0 {
			break
		}
	}
	if sampleRate == 0 {
		return MixdownOutput{}, errs.New(errs.Protocol, "pipeline", "MixdownTracks", fmt.Errorf("no decodable frames across %d tracks", len(in.PaddedURLs)))
	}

	graph := d.GraphBuilder.BuildMixGraph(len(in.PaddedURLs), sampleRate)

	dir, cleanup, err := d.Scratch()
	if err != nil {
		return MixdownOutput{}, err
	}
	defer cleanup()

	outputPath := filepath.Join(dir, "audio.mp3")
	profile := audiomux.MP3MixdownProfile(sampleRate)
	if err := d.Encoder.Encode(in.PaddedURLs, graph, outputPath, profile); err != nil {
		return MixdownOutput{}, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return MixdownOutput{}, errs.New(errs.Protocol, "pipeline", "MixdownTracks", err)
	}
	f, err := os.Open(outputPath)
	if err != nil {
		return MixdownOutput{}, errs.New(errs.Protocol, "pipeline", "MixdownTracks", err)
	}
	defer f.Close()

	key := MixdownKey(in.TranscriptID)
	if err := d.Store.Put(ctx, in.BucketName, key, f, "audio/mpeg"); err != nil {
		return MixdownOutput{}, err
	}

	return MixdownOutput{AudioKey: key, Duration: duration, Size: info.Size()}, nil
}

// Assemble implements spec.md §4.2.4: if diarization is empty, return
// words unchanged; else assign each word the speaker of the segment with
// maximal temporal overlap, keeping the track-index speaker when no
// segment overlaps. Order is preserved.
func Assemble(words []SpeakerWord, diarization []inference.DiarizationSegment) []SpeakerWord {
	if len(diarization) == 0 {
		return words
	}

	out := make([]SpeakerWord, len(words))
	copy(out, words)

	for i, w := range out {
		var best *inference.DiarizationSegment
		bestOverlap := 0.0
		for segIdx := range diarization {
			seg := &diarization[segIdx]
			overlap := overlapSeconds(w.Word.Start, w.Word.End, seg.Start, seg.End)
			if overlap <= 0 {
				continue
			}
			if best == nil || overlap > bestOverlap || (overlap == bestOverlap && seg.Start < best.Start) {
				best = seg
				bestOverlap = overlap
			}
		}
		if best != nil {
			out[i].Speaker = best.Speaker
		}
	}
	return out
}

func overlapSeconds(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// DetectTopics implements spec.md §4.2.5: chunk the word list into
// fixed-size groups and submit one topic-detection call per chunk,
// collecting results in order.
func (d Deps) DetectTopics(ctx context.Context, words []SpeakerWord, detect func(ctx context.Context, chunkText string) (string, error)) ([]Topic, error) {
	var topics []Topic
	for start, chunkIndex := 0, 0; start < len(words); start, chunkIndex = start+topicChunkSize, chunkIndex+1 {
		end := start + topicChunkSize
		if end > len(words) {
			end = len(words)
		}
		text := renderWords(words[start:end])
		summary, err := detect(ctx, text)
		if err != nil {
			return topics, err
		}
		topics = append(topics, Topic{ChunkIndex: chunkIndex, Summary: summary})
		d.publish(ctx, "detect_topics", "completed", map[string]any{"chunk_index": chunkIndex, "summary": summary})
	}
	return topics, nil
}

func renderWords(words []SpeakerWord) string {
	out := ""
	lastSpeaker := -1
	for _, w := range words {
		if w.Speaker != lastSpeaker {
			out += fmt.Sprintf("\n%d: ", w.Speaker)
			lastSpeaker = w.Speaker
		}
		out += w.Word.Word + " "
	}
	return out
}

// sortedSpeakers returns the distinct speaker labels a transcript's words
// carry, in ascending order.
func sortedSpeakers(words []SpeakerWord) []int {
	seen := make(map[int]bool)
	for _, w := range words {
		seen[w.Speaker] = true
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
