package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/metrics"
	"github.com/reflector-core/reflector/pkg/workflow"
	"github.com/reflector-core/reflector/pkg/workflow/memory"
)

// clock supplies the task timestamps the memory runner reports; it is a
// package variable wrapping time.Now.
var clock = func() time.Time { return time.Now() }

// NewMemoryRunner adapts Deps into a pkg/workflow/memory.Runner: a plain
// Go function that drives the DiarizationPipeline stage DAG directly with
// goroutines, reporting each task's TaskSummary as it transitions.
// Grounded on spec.md §4.2's stage DAG and §5's "workers must be isolated"
// concurrency model; this is the in-memory, single-process deployment
// mode, not a test double for the Temporal path.
func NewMemoryRunner(d Deps) memory.Runner {
	return func(ctx context.Context, input workflow.Input, report func(workflow.TaskSummary)) (workflow.DAGShape, error) {
		in, err := deriveInput(input, d.Language)
		if err != nil {
			return nil, err
		}
		switch v := in.(type) {
		case MultitrackInput:
			return runMultitrack(ctx, d, v, report)
		case FileInput:
			return runFile(ctx, d, v, report)
		default:
			return nil, errs.New(errs.Validation, "pipeline", "Run", fmt.Errorf("unsupported input type %T", input))
		}
	}
}

func started(name string) workflow.TaskSummary {
	return workflow.TaskSummary{Name: name, Status: "running", StartedAtMillis: clock().UnixMilli()}
}

func finished(s workflow.TaskSummary, err error) workflow.TaskSummary {
	s.FinishedAtMillis = clock().UnixMilli()
	if err != nil {
		s.Status = "failed"
		s.ErrorText = err.Error()
	} else {
		s.Status = "completed"
	}
	metrics.ObserveStage(s.Name, s.Status, float64(s.FinishedAtMillis-s.StartedAtMillis)/1000.0)
	return s
}

func runMultitrack(ctx context.Context, d Deps, in MultitrackInput, report func(workflow.TaskSummary)) (workflow.DAGShape, error) {
	n := len(in.TrackKeys)
	shape := workflow.DAGShape{"get_recording": {}}
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

	report(finished(started("get_recording"), nil))

	type padResult struct {
		out PadTrackOutput
		err error
	}
	pads := make([]padResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("pad_track_%d", i)
			s := started(name)
			out, err := d.PadTrack(ctx, PadTrackInput{
				TrackIndex:   i,
				SourceKey:    in.TrackKeys[i],
				BucketName:   in.BucketName,
				TranscriptID: in.TranscriptID,
			})
			report(finished(s, err))
			pads[i] = padResult{out: out, err: err}
		}(i)
	}
	wg.Wait()
	for _, p := range pads {
		if p.err != nil {
			return shape, p.err
		}
	}

	type transcribeResult struct {
		out TranscribeTrackOutput
		err error
	}
	transcribes := make([]transcribeResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("transcribe_track_%d", i)
			s := started(name)
			out, err := d.TranscribeTrack(ctx, i, pads[i].out.PaddedURL)
			report(finished(s, err))
			transcribes[i] = transcribeResult{out: out, err: err}
		}(i)
	}

	mixS := started("mixdown_tracks")
	paddedURLs := make([]string, n)
	for i, p := range pads {
		paddedURLs[i] = p.out.PaddedURL
	}
	mixOut, mixErr := d.MixdownTracks(ctx, MixdownInput{
		TranscriptID: in.TranscriptID,
		BucketName:   in.BucketName,
		PaddedURLs:   paddedURLs,
	})
	if mixErr == nil && d.Transcript != nil {
		if err := d.Transcript.SetDuration(ctx, in.TranscriptID, mixOut.Duration); err != nil {
			mixErr = err
		}
	}
	report(finished(mixS, mixErr))

	wg.Wait()
	for _, tr := range transcribes {
		// transcribe_track failures are fatal per spec.md §4.2's failure
		// semantics ("individual transcribe_track failures are also
		// fatal... downstream assembly assumes all tracks are present").
		if tr.err != nil {
			return shape, tr.err
		}
	}
	if mixErr != nil {
		return shape, mixErr
	}

	assembleS := started("assemble")
	var words []SpeakerWord
	for _, tr := range transcribes {
		words = append(words, tr.out.Words...)
	}
	// Multitrack recordings carry per-track speaker identity from
	// transcribe_track already; no separate diarization pass runs here,
	// so assemble is a no-op merge preserving track-index speakers.
	report(finished(assembleS, nil))

	topicsS := started("detect_topics")
	topics, err := d.DetectTopics(ctx, words, d.DetectTopicChunk)
	report(finished(topicsS, err))
	if err != nil {
		return shape, err
	}

	var titleErr, summErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		s := started("title")
		title, err := d.Title(ctx, topics)
		titleErr = err
		if err == nil && d.Transcript != nil {
			titleErr = d.Transcript.SetTitle(ctx, in.TranscriptID, title)
		}
		report(finished(s, titleErr))
	}()
	go func() {
		defer wg.Done()
		s := started("summaries")
		short, long, err := d.Summaries(ctx, topics)
		summErr = err
		if err == nil && d.Transcript != nil {
			summErr = d.Transcript.SetSummaries(ctx, in.TranscriptID, short, long)
		}
		report(finished(s, summErr))
	}()
	wg.Wait()
	if titleErr != nil {
		return shape, titleErr
	}
	return shape, summErr
}

func runFile(ctx context.Context, d Deps, in FileInput, report func(workflow.TaskSummary)) (workflow.DAGShape, error) {
	shape := workflow.DAGShape{
		"get_recording":      {},
		"transcribe_track_0": {"get_recording"},
		"assemble":           {"transcribe_track_0"},
		"detect_topics":      {"assemble"},
		"title":              {"detect_topics"},
		"summaries":          {"detect_topics"},
	}

	report(finished(started("get_recording"), nil))

	sourceURL, err := d.Store.PresignGet(ctx, in.BucketName, in.ObjectKey)
	if err != nil {
		s := started("transcribe_track_0")
		report(finished(s, err))
		return shape, err
	}

	ts := started("transcribe_track_0")
	out, err := d.TranscribeTrack(ctx, 0, sourceURL)
	report(finished(ts, err))
	if err != nil {
		return shape, err
	}

	if d.Transcript != nil && d.Prober != nil {
		if probe, probeErr := d.Prober.Probe(sourceURL); probeErr == nil && probe.Duration > 0 {
			_ = d.Transcript.SetDuration(ctx, in.TranscriptID, probe.Duration.Seconds())
		}
	}

	report(finished(started("assemble"), nil))

	topicsS := started("detect_topics")
	topics, err := d.DetectTopics(ctx, out.Words, d.DetectTopicChunk)
	report(finished(topicsS, err))
	if err != nil {
		return shape, err
	}

	var wg sync.WaitGroup
	var titleErr, summErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		s := started("title")
		title, err := d.Title(ctx, topics)
		titleErr = err
		if err == nil && d.Transcript != nil {
			titleErr = d.Transcript.SetTitle(ctx, in.TranscriptID, title)
		}
		report(finished(s, titleErr))
	}()
	go func() {
		defer wg.Done()
		s := started("summaries")
		short, long, err := d.Summaries(ctx, topics)
		summErr = err
		if err == nil && d.Transcript != nil {
			summErr = d.Transcript.SetSummaries(ctx, in.TranscriptID, short, long)
		}
		report(finished(s, summErr))
	}()
	wg.Wait()
	if titleErr != nil {
		return shape, titleErr
	}
	return shape, summErr
}
