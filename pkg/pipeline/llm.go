package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/llmcoord"
)

// topicSchema, titleSchema, and summariesSchema are compiled once per
// process, following goadesign-goa-ai/registry/service.go's
// NewCompiler -> AddResource -> Compile sequence.
var (
	topicSchema     = mustCompile("topic", `{"type":"object","required":["summary"],"properties":{"summary":{"type":"string"}}}`)
	titleSchema     = mustCompile("title", `{"type":"object","required":["title"],"properties":{"title":{"type":"string"}}}`)
	summariesSchema = mustCompile("summaries", `{"type":"object","required":["short_summary","long_summary"],"properties":{"short_summary":{"type":"string"},"long_summary":{"type":"string"}}}`)
)

func mustCompile(name, schemaJSON string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("pipeline: invalid embedded schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := c.AddResource(resource, doc); err != nil {
		panic(fmt.Sprintf("pipeline: add schema resource %s: %v", name, err))
	}
	schema, err := c.Compile(resource)
	if err != nil {
		panic(fmt.Sprintf("pipeline: compile schema %s: %v", name, err))
	}
	return schema
}

// DetectTopicChunk runs one topic-detection structured call over a word
// chunk's rendered text, matching DetectTopics' detect callback shape.
func (d Deps) DetectTopicChunk(ctx context.Context, chunkText string) (string, error) {
	raw, err := d.Coordinator.CallStructured(ctx, topicSchema,
		"Identify the single main topic discussed in this meeting transcript excerpt. Respond with JSON {\"summary\": \"...\"}.",
		chunkText)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errs.New(errs.Protocol, "pipeline", "DetectTopicChunk", err)
	}
	return parsed.Summary, nil
}

// Title implements spec.md §4.2.6: a single short string derived from the
// topic list; the model's title is always passed through
// TitleCaseFallback's casing heuristic before it is returned.
func (d Deps) Title(ctx context.Context, topics []Topic) (string, error) {
	raw, err := d.Coordinator.CallStructured(ctx, titleSchema,
		"Produce a short, specific title (under 12 words) for a meeting given its topics. Respond with JSON {\"title\": \"...\"}.",
		renderTopics(topics))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errs.New(errs.Protocol, "pipeline", "Title", err)
	}
	return llmcoord.TitleCaseFallback(parsed.Title), nil
}

// Summaries implements spec.md §4.2.6: a short and a long summary,
// produced by one structured call over the topic list.
func (d Deps) Summaries(ctx context.Context, topics []Topic) (short, long string, err error) {
	raw, err := d.Coordinator.CallStructured(ctx, summariesSchema,
		"Write a short (1-2 sentence) and a long (one paragraph per topic) summary of this meeting given its topics. Respond with JSON {\"short_summary\": \"...\", \"long_summary\": \"...\"}.",
		renderTopics(topics))
	if err != nil {
		return "", "", err
	}
	var parsed struct {
		Short string `json:"short_summary"`
		Long  string `json:"long_summary"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", errs.New(errs.Protocol, "pipeline", "Summaries", err)
	}
	return parsed.Short, parsed.Long, nil
}

func renderTopics(topics []Topic) string {
	out := ""
	for _, t := range topics {
		out += fmt.Sprintf("%d. %s\n", t.ChunkIndex+1, t.Summary)
	}
	return out
}
