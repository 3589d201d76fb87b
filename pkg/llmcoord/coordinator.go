package llmcoord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/llmcoord/backend"
)

// Coordinator ties a backend.LLMBackend to the chunker, the
// structured-output retry loop, and the dedup merge, matching spec.md
// §4.4's "Contract for a structured call" end to end.
type Coordinator struct {
	Backend       backend.LLMBackend
	ParseAttempts int
	RetryMin      time.Duration
	RetryMax      time.Duration
}

// NewCoordinator constructs a Coordinator with spec.md's default
// PARSE_ATTEMPTS of 3 when attempts <= 0.
func NewCoordinator(b backend.LLMBackend, parseAttempts int) *Coordinator {
	if parseAttempts <= 0 {
		parseAttempts = 3
	}
	return &Coordinator{Backend: b, ParseAttempts: parseAttempts, RetryMin: 250 * time.Millisecond, RetryMax: 10 * time.Second}
}

// CallStructured implements spec.md §4.4's structured-output retry loop:
// up to ParseAttempts attempts, each attempt's user prompt optionally
// augmented with the prior error, transient transport errors retried with
// exponential-jittered backoff via cenkalti/backoff/v4. A non-retryable
// backend error is returned at once; invalid JSON and schema violations
// use up attempts and surface as a Protocol error once the attempt budget
// is exhausted.
func (c *Coordinator) CallStructured(ctx context.Context, schema *jsonschema.Schema, systemPrompt, userPrompt string) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < c.ParseAttempts; attempt++ {
		prompt := userPrompt
		if lastErr != nil {
			prompt = fmt.Sprintf("%s\n\nYour previous response was invalid: %s\nPlease correct it and respond again.", userPrompt, lastErr.Error())
		}

		raw, err := c.completeWithBackoff(ctx, []backend.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		})
		if err != nil {
			if !errs.Classify(err).Retryable() {
				return nil, err
			}
			lastErr = err
			continue
		}

		extracted := ExtractJSON(raw)

		var doc any
		if err := json.Unmarshal([]byte(extracted), &doc); err != nil {
			lastErr = fmt.Errorf("invalid JSON at attempt %d: %w", attempt+1, err)
			continue
		}

		if schema != nil {
			if err := schema.Validate(doc); err != nil {
				lastErr = fmt.Errorf("schema validation failed: %w", err)
				continue
			}
		}

		return json.RawMessage(extracted), nil
	}

	return nil, errs.New(errs.Protocol, "llmcoord", "CallStructured", fmt.Errorf("exhausted %d attempts: %w", c.ParseAttempts, lastErr))
}

// completeWithBackoff wraps Backend.Complete in the same transient-only
// exponential-jittered retry the inference client uses (§7), via
// cenkalti/backoff/v4.
func (c *Coordinator) completeWithBackoff(ctx context.Context, messages []backend.Message) (string, error) {
	min := c.RetryMin
	if min <= 0 {
		min = 250 * time.Millisecond
	}
	max := c.RetryMax
	if max <= 0 {
		max = 10 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = min
	bo.MaxInterval = max
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx)

	var result string
	err := backoff.Retry(func() error {
		out, err := c.Backend.Complete(ctx, messages)
		if err != nil {
			if errs.Classify(err).Retryable() {
				return err
			}
			return backoff.Permanent(err)
		}
		result = out
		return nil
	}, policy)
	return result, err
}

// ChunkAndDispatch implements spec.md §4.4 steps 7-8: dispatch each chunk
// produced by Chunk in parallel via call, collect successes (chunk
// failures are logged by the caller via onChunkError and skipped), then
// dedup — an LLM pass via dedupCall when there are multiple chunks and
// more than 3 collected subjects, else order-preserving dedup.
func (c *Coordinator) ChunkAndDispatch(
	ctx context.Context,
	cfg ChunkerConfig,
	template TemplateFunc,
	corpus string,
	call func(ctx context.Context, chunk string) ([]string, error),
	dedupCall func(ctx context.Context, subjects []string) ([]string, error),
	onChunkError func(chunkIndex int, err error),
) ([]string, error) {
	chunks, err := Chunk(cfg, template, corpus)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	results := make([][]string, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()
			subjects, err := call(ctx, chunk)
			if err != nil {
				if onChunkError != nil {
					onChunkError(i, err)
				}
				return
			}
			results[i] = subjects
		}(i, chunk)
	}
	wg.Wait()

	var all []string
	for _, r := range results {
		all = append(all, r...)
	}

	if needsLLMDedup(len(chunks), len(all)) && dedupCall != nil {
		deduped, err := dedupCall(ctx, all)
		if err != nil {
			return dedupPreservingOrder(all), nil
		}
		return deduped, nil
	}

	return dedupPreservingOrder(all), nil
}
