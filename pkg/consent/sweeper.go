package consent

import (
	"context"
	"log/slog"
	"time"
)

// SweepCandidate is the subset of a Transcript row the retention sweep acts
// on.
type SweepCandidate struct {
	TranscriptID string
	MeetingID    *string
	RecordingID  *string
}

// SweepStore is the persistence seam for the retention sweep. It is kept
// separate from Store because the sweep needs cascade-aware deletes the
// deny-consent path never touches.
type SweepStore interface {
	// StaleUnowned returns transcripts with user_id IS NULL and
	// created_at older than cutoff, matching the partial index declared
	// on the Transcript schema for this exact predicate.
	StaleUnowned(ctx context.Context, cutoff time.Time) ([]SweepCandidate, error)
	// DeleteMeeting removes a Meeting row, cascading to its
	// ParticipantSession, Recording and RecordingRequest rows.
	DeleteMeeting(ctx context.Context, meetingID string) error
	// DeleteOrphanRecording removes a Recording row that has no
	// meeting_id (and therefore would not be reached by DeleteMeeting's
	// cascade).
	DeleteOrphanRecording(ctx context.Context, recordingID string) error
	// DeleteTranscript removes the Transcript row, cascading to its
	// Topic, TranscriptEvent and TranscriptParticipant rows.
	DeleteTranscript(ctx context.Context, transcriptID string) error
}

// Sweeper periodically hard-deletes unowned transcripts older than its
// retentionDays setting, per spec.md §4.7.
type Sweeper struct {
	store         SweepStore
	retentionDays int
	interval      time.Duration
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewSweeper constructs a Sweeper that runs every interval and deletes
// transcripts older than retentionDays.
func NewSweeper(store SweepStore, retentionDays int, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:         store,
		retentionDays: retentionDays,
		interval:      interval,
		done:          make(chan struct{}),
	}
}

// Start launches the periodic sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(ctx)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				slog.Error("consent: retention sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce runs a single retention pass: every unowned transcript older
// than retentionDays is deleted together with its Meeting (and, for
// orphan recordings, its Recording) per spec.md §4.7. Transcript has no
// ent edge to Meeting or Recording, only weak string FKs, so each must be
// deleted explicitly rather than relying on Transcript's own cascade.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)

	candidates, err := s.store.StaleUnowned(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		if c.MeetingID != nil {
			if err := s.store.DeleteMeeting(ctx, *c.MeetingID); err != nil {
				slog.Error("consent: retention sweep could not delete meeting",
					"transcript_id", c.TranscriptID, "meeting_id", *c.MeetingID, "error", err)
				continue
			}
		} else if c.RecordingID != nil {
			if err := s.store.DeleteOrphanRecording(ctx, *c.RecordingID); err != nil {
				slog.Error("consent: retention sweep could not delete orphan recording",
					"transcript_id", c.TranscriptID, "recording_id", *c.RecordingID, "error", err)
				continue
			}
		}

		if err := s.store.DeleteTranscript(ctx, c.TranscriptID); err != nil {
			slog.Error("consent: retention sweep could not delete transcript",
				"transcript_id", c.TranscriptID, "error", err)
			continue
		}

		slog.Info("consent: retention sweep deleted transcript", "transcript_id", c.TranscriptID)
	}

	return nil
}
