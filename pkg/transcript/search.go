package transcript

import (
	"strings"

	"github.com/reflector-core/reflector/ent"
)

// SearchDoc is a denormalized, storage-agnostic view of a Transcript for
// full-text search. Supplements spec.md §3's "search projection (derived)"
// field, which names the concept but never an operation producing it; the
// HTTP/REST layer that would index or query this document is out of scope
// (see SPEC_FULL.md §5 Non-goals).
type SearchDoc struct {
	TranscriptID     string
	Title            string
	ShortSummary     string
	LongSummary      string
	TopicTitles      []string
	ParticipantNames []string
	FullText         string
}

// SearchProjection derives a SearchDoc from a Transcript and its loaded
// Topics/Participants, grounded on the original implementation's priority
// order for snippet generation (title, then short_summary, then
// long_summary, then topics) — here used to build one concatenated
// searchable field instead.
func SearchProjection(t *ent.Transcript, topics []*ent.Topic, participants []*ent.TranscriptParticipant) SearchDoc {
	doc := SearchDoc{
		TranscriptID: t.ID,
		Title:        t.Title,
		ShortSummary: t.ShortSummary,
		LongSummary:  t.LongSummary,
	}

	for _, top := range topics {
		doc.TopicTitles = append(doc.TopicTitles, top.Title)
	}
	for _, p := range participants {
		doc.ParticipantNames = append(doc.ParticipantNames, p.Name)
	}

	var parts []string
	if doc.Title != "" {
		parts = append(parts, doc.Title)
	}
	if doc.ShortSummary != "" {
		parts = append(parts, doc.ShortSummary)
	}
	if doc.LongSummary != "" {
		parts = append(parts, doc.LongSummary)
	}
	parts = append(parts, doc.TopicTitles...)
	parts = append(parts, doc.ParticipantNames...)
	doc.FullText = strings.Join(parts, " ")

	return doc
}
