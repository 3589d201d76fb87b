// Package pipeline implements the DiarizationPipeline of spec.md §4.2:
// the stage DAG that turns a recording (file or multitrack) into a
// finalized Transcript, wiring pkg/audiomux, pkg/inference,
// pkg/objectstore, pkg/llmcoord, and pkg/broadcast together behind
// pkg/workflow's Engine abstraction. Orchestration is expressed twice
// from the same stage functions: once as a plain Go function
// (memory_runner.go, for pkg/workflow/memory) and once as a Temporal
// workflow (temporal_workflow.go, for pkg/workflow/temporal) — mirroring
// goadesign-goa-ai's split between a transport-agnostic WorkflowFunc and
// its Temporal registration.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/reflector-core/reflector/pkg/audiomux"
	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/inference"
	"github.com/reflector-core/reflector/pkg/llmcoord"
	"github.com/reflector-core/reflector/pkg/objectstore"
	"github.com/reflector-core/reflector/pkg/workflow"
)

// FileInput is Dispatch's workflow.Input for a single-file recording.
type FileInput struct {
	TranscriptID string
	BucketName   string
	ObjectKey    string
	Language     string
}

// MultitrackInput is Dispatch's workflow.Input for a multitrack recording,
// matching pkg/workflow.MultitrackConfig.
type MultitrackInput struct {
	TranscriptID string
	RecordingID  string
	BucketName   string
	TrackKeys    []string
	Language     string
}

// SpeakerWord is a transcribed word carrying the speaker label assembly
// assigns it, per spec.md §4.2.2/§4.2.4. Track-indexed words from
// transcribe_track keep Speaker == their track index until assemble
// overwrites it from diarization.
type SpeakerWord struct {
	Word    inference.Word
	Speaker int
}

// Result is the DiarizationPipeline's terminal output.
type Result struct {
	AudioKey     string
	Duration     time.Duration
	Words        []SpeakerWord
	Title        string
	ShortSummary string
	LongSummary  string
	Topics       []Topic
}

// Topic is one detected discussion topic, emitted as a TOPIC event per
// spec.md §4.2.5.
type Topic struct {
	ChunkIndex int
	Summary    string
}

// topicChunkSize is spec.md §4.2.5's default word-count chunk size for
// topic detection.
const topicChunkSize = 300

// padTimeout, transcribeTimeout, mixdownTimeout are the per-stage
// execution timeouts of spec.md §5.
const (
	padTimeout       = 300 * time.Second
	transcribeTimeout = 600 * time.Second
	mixdownTimeout   = 15 * time.Minute
)

// EngineName identifies the transcription engine/model in the padded
// track object key layout (`file_pipeline_<engine>/...`, spec.md §6).
// It is a configuration value (InferenceConfig.Model in
// pkg/config/config.go), not a constant, since the engine is swappable.
type EngineName string

// TranscriptSink is the subset of pkg/transcript.Service the pipeline
// writes final per-stage fields through, so each stage's output lands on
// the Transcript row (and fans out a matching event) the moment it's
// produced, per spec.md §4.6: "Duration, title, summaries, topics... are
// set by the corresponding pipeline stages."
type TranscriptSink interface {
	SetDuration(ctx context.Context, id string, seconds float64) error
	SetTitle(ctx context.Context, id, title string) error
	SetSummaries(ctx context.Context, id, short, long string) error
}

// Deps bundles every external dependency a pipeline run needs. The I/O
// collaborators are interfaces defined by their owning package (the LLM
// Coordinator wraps a backend.LLMBackend interface), so fakes can stand in
// without AWS/ffmpeg/LLM SDKs; the remaining fields are plain settings and
// callbacks.
type Deps struct {
	Store        objectstore.Store
	Prober       audiomux.Prober
	GraphBuilder audiomux.FilterGraphBuilder
	Encoder      audiomux.Encoder
	Transcriber  inference.TranscriptionClient
	Diarizer     inference.DiarizationClient
	Coordinator  *llmcoord.Coordinator
	Transcript   TranscriptSink
	Engine       EngineName
	Model        string
	Language     string

	// Publish emits one progress event for a task transition; nil is
	// valid (no-op) for tests that don't assert on broadcast traffic.
	Publish func(ctx context.Context, taskName, status string, data map[string]any)

	// Scratch returns a fresh temp directory for one task's local files,
	// matching spec.md §5's "per-task tempdirs; cleaned in finally
	// regardless of failure" resource model.
	Scratch func() (dir string, cleanup func(), err error)
}

func (d Deps) publish(ctx context.Context, task, status string, data map[string]any) {
	if d.Publish != nil {
		d.Publish(ctx, task, status, data)
	}
}

// deriveInput adapts whatever workflow.Input the engine hands back into a
// concrete MultitrackInput/FileInput. Engine.Start is called from
// pkg/workflow.Adapter.Dispatch with a workflow.PrepareResult (the
// Prepare step's output per spec.md §4.1); unit tests that exercise
// runMultitrack/runFile directly may instead pass an already-concrete
// MultitrackInput/FileInput, which is returned unchanged.
func deriveInput(input workflow.Input, language string) (workflow.Input, error) {
	switch v := input.(type) {
	case MultitrackInput, FileInput:
		return v, nil
	case workflow.PrepareResult:
		switch v.Kind {
		case workflow.KindMultitrack:
			if v.Multitrack == nil {
				return nil, errs.New(errs.Validation, "pipeline", "deriveInput", fmt.Errorf("multitrack PrepareResult missing Multitrack config"))
			}
			return MultitrackInput{
				TranscriptID: v.Multitrack.TranscriptID,
				RecordingID:  v.Multitrack.RecordingID,
				BucketName:   v.Multitrack.BucketName,
				TrackKeys:    v.Multitrack.TrackKeys,
				Language:     language,
			}, nil
		case workflow.KindFile:
			if v.File == nil {
				return nil, errs.New(errs.Validation, "pipeline", "deriveInput", fmt.Errorf("file PrepareResult missing File config"))
			}
			return FileInput{
				TranscriptID: v.File.TranscriptID,
				BucketName:   v.File.BucketName,
				ObjectKey:    v.File.ObjectKey,
				Language:     language,
			}, nil
		default:
			return nil, errs.New(errs.Validation, "pipeline", "deriveInput", fmt.Errorf("unknown PrepareResult kind %q", v.Kind))
		}
	default:
		return nil, errs.New(errs.Validation, "pipeline", "deriveInput", fmt.Errorf("unsupported input type %T", input))
	}
}
