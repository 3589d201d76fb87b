package pipeline

import (
	"context"
	"fmt"
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	sdkworkflow "go.temporal.io/sdk/workflow"

	rwf "github.com/reflector-core/reflector/pkg/workflow"
	rwftemporal "github.com/reflector-core/reflector/pkg/workflow/temporal"
)

// Activities wraps Deps for Temporal activity registration: the Deps
// methods in pkg/pipeline/activities.go and llm.go (PadTrack,
// TranscribeTrack, MixdownTracks, DetectTopicChunk, Title) are registered
// as they are. Activities adds the store-write activities the in-process
// memory runner performs inline, a single-result Summaries wrapper, and
// TranscribeFileTrack.
type Activities struct {
	Deps
}

// NewActivities constructs an Activities wrapper for worker registration.
func NewActivities(d Deps) *Activities { return &Activities{Deps: d} }

// SetDurationInput/SetTitleInput/SetSummariesInput are the small wrapper
// activities a Temporal workflow must call through instead of touching
// Deps.Transcript directly, since workflow code may not perform I/O
// itself (spec.md §9: "no implicit suspension outside declared I/O
// points" — a Temporal workflow goroutine enforces this at the SDK
// level).
type SetDurationInput struct {
	TranscriptID string
	Seconds      float64
}

type SetTitleInput struct {
	TranscriptID string
	Title        string
}

type SetSummariesInput struct {
	TranscriptID string
	Short        string
	Long         string
}

// SummariesOutput is Summaries' activity result: Deps.Summaries returns
// (short, long string, err error), which Temporal cannot marshal directly
// since an activity may return at most one result value plus error.
type SummariesOutput struct {
	Short string
	Long  string
}

// SetDuration, SetTitle, SetSummaries are the store-write activities the
// Temporal workflow calls through instead of touching Deps.Transcript
// directly from workflow code.
func (a *Activities) SetDuration(ctx context.Context, in SetDurationInput) (struct{}, error) {
	if a.Deps.Transcript == nil {
		return struct{}{}, nil
	}
	return struct{}{}, a.Deps.Transcript.SetDuration(ctx, in.TranscriptID, in.Seconds)
}

func (a *Activities) SetTitle(ctx context.Context, in SetTitleInput) (struct{}, error) {
	if a.Deps.Transcript == nil {
		return struct{}{}, nil
	}
	return struct{}{}, a.Deps.Transcript.SetTitle(ctx, in.TranscriptID, in.Title)
}

func (a *Activities) SetSummaries(ctx context.Context, in SetSummariesInput) (struct{}, error) {
	if a.Deps.Transcript == nil {
		return struct{}{}, nil
	}
	return struct{}{}, a.Deps.Transcript.SetSummaries(ctx, in.TranscriptID, in.Short, in.Long)
}

// Summaries wraps Deps.Summaries into a Temporal-compatible single-result
// activity signature.
func (a *Activities) Summaries(ctx context.Context, topics []Topic) (SummariesOutput, error) {
	short, long, err := a.Deps.Summaries(ctx, topics)
	if err != nil {
		return SummariesOutput{}, err
	}
	return SummariesOutput{Short: short, Long: long}, nil
}

// TranscribeFileTrack presigns a single-file recording's source object
// and transcribes it as track 0, mirroring runFile's inline steps so the
// Temporal path and the in-memory path apply the exact same logic.
func (a *Activities) TranscribeFileTrack(ctx context.Context, in FileInput) (TranscribeTrackOutput, error) {
	sourceURL, err := a.Deps.Store.PresignGet(ctx, in.BucketName, in.ObjectKey)
	if err != nil {
		return TranscribeTrackOutput{}, err
	}
	out, err := a.Deps.TranscribeTrack(ctx, 0, sourceURL)
	if err != nil {
		return TranscribeTrackOutput{}, err
	}
	if a.Deps.Transcript != nil && a.Deps.Prober != nil {
		if probe, probeErr := a.Deps.Prober.Probe(sourceURL); probeErr == nil && probe.Duration > 0 {
			_ = a.Deps.Transcript.SetDuration(ctx, in.TranscriptID, probe.Duration.Seconds())
		}
	}
	return out, nil
}

// statusResult is the JSON shape the StatusQuery handler returns; it must
// match pkg/workflow/temporal.statusQueryResult field-for-field (Shape,
// Tasks) since QueryWorkflow decodes across the Temporal wire with no
// shared Go type between the two packages.
type statusResult struct {
	Shape rwf.DAGShape                    `json:"shape"`
	Tasks map[string]rwf.TaskSummary `json:"tasks"`
}

// dagState is the mutable per-run bookkeeping the workflow goroutine owns
// and the status query handler reads. Temporal workflow code is single-
// threaded cooperative scheduling, so no mutex is needed: the query
// handler only runs between coroutine yield points.
type dagState struct {
	shape rwf.DAGShape
	tasks map[string]rwf.TaskSummary
}

func newDagState(shape rwf.DAGShape) *dagState {
	return &dagState{shape: shape, tasks: make(map[string]rwf.TaskSummary, len(shape))}
}

func (s *dagState) start(ctx sdkworkflow.Context, name string) {
	s.tasks[name] = rwf.TaskSummary{Name: name, Status: "running", StartedAtMillis: sdkworkflow.Now(ctx).UnixMilli()}
}

func (s *dagState) finish(ctx sdkworkflow.Context, name string, err error) {
	t := s.tasks[name]
	t.FinishedAtMillis = sdkworkflow.Now(ctx).UnixMilli()
	if err != nil {
		t.Status = "failed"
		t.ErrorText = err.Error()
	} else {
		t.Status = "completed"
	}
	s.tasks[name] = t
}

func (s *dagState) snapshot() statusResult {
	tasks := make(map[string]rwf.TaskSummary, len(s.tasks))
	for k, v := range s.tasks {
		tasks[k] = v
	}
	return statusResult{Shape: s.shape, Tasks: tasks}
}

// llmActivityTimeout bounds the title/summary/topic-detection activities
// (and the small store-write activities). pkg/llmcoord.Coordinator's own
// backoff around each LLM call is sized by LLM_RETRY_MIN/LLM_RETRY_MAX
// (pkg/config.LLMConfig); the activity-level ceiling here is a coarser
// outer bound Temporal enforces independently.
const llmActivityTimeout = 5 * time.Minute

func defaultActivityOptions(ctx sdkworkflow.Context, timeout time.Duration) sdkworkflow.Context {
	return sdkworkflow.WithActivityOptions(ctx, sdkworkflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	})
}

// DiarizationPipelineWorkflow is the Temporal workflow registered under
// rwftemporal.WorkflowName. It drives the same stage DAG as
// memory_runner.go's runMultitrack/runFile, expressed as
// sdkworkflow.ExecuteActivity calls instead of goroutines, and answers
// rwftemporal.StatusQuery with a live DAG_STATUS projection throughout
// execution.
func DiarizationPipelineWorkflow(ctx sdkworkflow.Context, cfg rwf.PrepareResult) (Result, error) {
	state := newDagState(nil)
	if err := sdkworkflow.SetQueryHandler(ctx, rwftemporal.StatusQuery, func() (statusResult, error) {
		return state.snapshot(), nil
	}); err != nil {
		return Result{}, err
	}

	switch cfg.Kind {
	case rwf.KindMultitrack:
		return runMultitrackWorkflow(ctx, cfg.Multitrack, state)
	case rwf.KindFile:
		return runFileWorkflow(ctx, cfg.File, state)
	default:
		return Result{}, fmt.Errorf("pipeline: unknown PrepareResult kind %q", cfg.Kind)
	}
}

func runMultitrackWorkflow(ctx sdkworkflow.Context, cfg *rwf.MultitrackConfig, state *dagState) (Result, error) {
	n := len(cfg.TrackKeys)
	shape := rwf.DAGShape{"get_recording": {}}
	for i := 0; i < n; i++ {
		shape[fmt.Sprintf("pad_track_%d", i)] = []string{"get_recording"}
		shape[fmt.Sprintf("transcribe_track_%d", i)] = []string{fmt.Sprintf("pad_track_%d", i)}
	}
	mixParents := make([]string, n)
	assembleParents := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		mixParents[i] = fmt.Sprintf("pad_track_%d", i)
		assembleParents = append(assembleParents, fmt.Sprintf("transcribe_track_%d", i))
	}
	shape["mixdown_tracks"] = mixParents
	assembleParents = append(assembleParents, "mixdown_tracks")
	shape["assemble"] = assembleParents
	shape["detect_topics"] = []string{"assemble"}
	shape["title"] = []string{"detect_topics"}
	shape["summaries"] = []string{"detect_topics"}
	state.shape = shape

	state.start(ctx, "get_recording")
	state.finish(ctx, "get_recording", nil)

	padCtx := defaultActivityOptions(ctx, padTimeout)
	padFutures := make([]sdkworkflow.Future, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("pad_track_%d", i)
		state.start(ctx, name)
		padFutures[i] = sdkworkflow.ExecuteActivity(padCtx, activityName("PadTrack"), PadTrackInput{
			TrackIndex:   i,
			SourceKey:    cfg.TrackKeys[i],
			BucketName:   cfg.BucketName,
			TranscriptID: cfg.TranscriptID,
		})
	}

	pads := make([]PadTrackOutput, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("pad_track_%d", i)
		var out PadTrackOutput
		err := padFutures[i].Get(ctx, &out)
		state.finish(ctx, name, err)
		if err != nil {
			return Result{}, err
		}
		pads[i] = out
	}

	transcribeCtx := defaultActivityOptions(ctx, transcribeTimeout)
	transcribeFutures := make([]sdkworkflow.Future, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("transcribe_track_%d", i)
		state.start(ctx, name)
		transcribeFutures[i] = sdkworkflow.ExecuteActivity(transcribeCtx, activityName("TranscribeTrack"), i, pads[i].PaddedURL)
	}

	mixName := "mixdown_tracks"
	state.start(ctx, mixName)
	paddedURLs := make([]string, n)
	for i, p := range pads {
		paddedURLs[i] = p.PaddedURL
	}
	mixCtx := defaultActivityOptions(ctx, mixdownTimeout)
	var mixOut MixdownOutput
	mixErr := sdkworkflow.ExecuteActivity(mixCtx, activityName("MixdownTracks"), MixdownInput{
		TranscriptID: cfg.TranscriptID,
		BucketName:   cfg.BucketName,
		PaddedURLs:   paddedURLs,
	}).Get(ctx, &mixOut)
	if mixErr == nil {
		mixErr = sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, llmActivityTimeout), activityName("SetDuration"),
			SetDurationInput{TranscriptID: cfg.TranscriptID, Seconds: mixOut.Duration}).Get(ctx, nil)
	}
	state.finish(ctx, mixName, mixErr)

	transcribes := make([]TranscribeTrackOutput, n)
	var firstErr error
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("transcribe_track_%d", i)
		var out TranscribeTrackOutput
		err := transcribeFutures[i].Get(ctx, &out)
		state.finish(ctx, name, err)
		// transcribe_track failures are fatal per spec.md §4.2 ("no
		// partial transcript is produced"), but every future must still
		// be drained before returning so Temporal's workflow history
		// stays consistent across replay.
		if err != nil && firstErr == nil {
			firstErr = err
		}
		transcribes[i] = out
	}
	if firstErr != nil {
		return Result{}, firstErr
	}
	if mixErr != nil {
		return Result{}, mixErr
	}

	assembleName := "assemble"
	state.start(ctx, assembleName)
	var words []SpeakerWord
	for _, tr := range transcribes {
		words = append(words, tr.Words...)
	}
	state.finish(ctx, assembleName, nil)

	topics, err := runTopicsWorkflow(ctx, state, words)
	if err != nil {
		return Result{}, err
	}

	title, short, long, err := runTitleAndSummariesWorkflow(ctx, state, topics)
	if err != nil {
		return Result{}, err
	}
	if err := sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, llmActivityTimeout), activityName("SetTitle"),
		SetTitleInput{TranscriptID: cfg.TranscriptID, Title: title}).Get(ctx, nil); err != nil {
		return Result{}, err
	}
	if err := sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, llmActivityTimeout), activityName("SetSummaries"),
		SetSummariesInput{TranscriptID: cfg.TranscriptID, Short: short, Long: long}).Get(ctx, nil); err != nil {
		return Result{}, err
	}

	return Result{
		AudioKey:     mixOut.AudioKey,
		Duration:     time.Duration(mixOut.Duration * float64(time.Second)),
		Words:        words,
		Title:        title,
		ShortSummary: short,
		LongSummary:  long,
		Topics:       topics,
	}, nil
}

func runFileWorkflow(ctx sdkworkflow.Context, cfg *rwf.FileConfig, state *dagState) (Result, error) {
	shape := rwf.DAGShape{
		"get_recording":      {},
		"transcribe_track_0": {"get_recording"},
		"assemble":           {"transcribe_track_0"},
		"detect_topics":      {"assemble"},
		"title":              {"detect_topics"},
		"summaries":          {"detect_topics"},
	}
	state.shape = shape

	state.start(ctx, "get_recording")
	state.finish(ctx, "get_recording", nil)

	state.start(ctx, "transcribe_track_0")
	var out TranscribeTrackOutput
	err := sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, transcribeTimeout), activityName("TranscribeFileTrack"),
		FileInput{TranscriptID: cfg.TranscriptID, BucketName: cfg.BucketName, ObjectKey: cfg.ObjectKey}).Get(ctx, &out)
	state.finish(ctx, "transcribe_track_0", err)
	if err != nil {
		return Result{}, err
	}

	state.start(ctx, "assemble")
	state.finish(ctx, "assemble", nil)

	topics, err := runTopicsWorkflow(ctx, state, out.Words)
	if err != nil {
		return Result{}, err
	}

	title, short, long, err := runTitleAndSummariesWorkflow(ctx, state, topics)
	if err != nil {
		return Result{}, err
	}
	if err := sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, llmActivityTimeout), activityName("SetTitle"),
		SetTitleInput{TranscriptID: cfg.TranscriptID, Title: title}).Get(ctx, nil); err != nil {
		return Result{}, err
	}
	if err := sdkworkflow.ExecuteActivity(defaultActivityOptions(ctx, llmActivityTimeout), activityName("SetSummaries"),
		SetSummariesInput{TranscriptID: cfg.TranscriptID, Short: short, Long: long}).Get(ctx, nil); err != nil {
		return Result{}, err
	}

	return Result{Words: out.Words, Title: title, ShortSummary: short, LongSummary: long, Topics: topics}, nil
}

// runTopicsWorkflow chunks words the same way DetectTopics does (fixed
// topicChunkSize word groups) and dispatches one DetectTopicChunk
// activity per chunk, per spec.md §4.2.5.
func runTopicsWorkflow(ctx sdkworkflow.Context, state *dagState, words []SpeakerWord) ([]Topic, error) {
	state.start(ctx, "detect_topics")
	topicCtx := defaultActivityOptions(ctx, llmActivityTimeout)

	var topics []Topic
	for start, chunkIndex := 0, 0; start < len(words); start, chunkIndex = start+topicChunkSize, chunkIndex+1 {
		end := start + topicChunkSize
		if end > len(words) {
			end = len(words)
		}
		text := renderWords(words[start:end])
		var summary string
		if err := sdkworkflow.ExecuteActivity(topicCtx, activityName("DetectTopicChunk"), text).Get(ctx, &summary); err != nil {
			state.finish(ctx, "detect_topics", err)
			return nil, err
		}
		topics = append(topics, Topic{ChunkIndex: chunkIndex, Summary: summary})
	}
	state.finish(ctx, "detect_topics", nil)
	return topics, nil
}

func runTitleAndSummariesWorkflow(ctx sdkworkflow.Context, state *dagState, topics []Topic) (title, short, long string, err error) {
	llmCtx := defaultActivityOptions(ctx, llmActivityTimeout)

	state.start(ctx, "title")
	titleFuture := sdkworkflow.ExecuteActivity(llmCtx, activityName("Title"), topics)

	state.start(ctx, "summaries")
	var summaries SummariesOutput
	summErr := sdkworkflow.ExecuteActivity(llmCtx, activityName("Summaries"), topics).Get(ctx, &summaries)
	state.finish(ctx, "summaries", summErr)

	titleErr := titleFuture.Get(ctx, &title)
	state.finish(ctx, "title", titleErr)

	if titleErr != nil {
		return "", "", "", titleErr
	}
	if summErr != nil {
		return "", "", "", summErr
	}
	return title, summaries.Short, summaries.Long, nil
}

// activityName maps a logical stage name to the registered Temporal
// activity type name. Kept as a single indirection point so
// RegisterWorker (register.go) and the workflow body agree on names
// without repeating string literals at every call site.
func activityName(name string) string { return "pipeline." + name }
