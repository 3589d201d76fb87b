// Package consent destroys raw audio when a meeting participant denies
// consent and runs the retention sweep for unowned transcripts. It
// generalizes the teacher's pkg/cleanup periodic-sweep shape
// (softDeleteOldSessions/cleanupOrphanedEvents) from incident-session
// retention to the Transcript/Recording/Meeting domain.
package consent

import (
	"context"
	"log/slog"

	"github.com/reflector-core/reflector/pkg/errs"
)

// RecordingInfo is the subset of a Recording row the deny-consent
// operation needs.
type RecordingInfo struct {
	BucketName string
	ObjectKey  string
	TrackKeys  []string
}

// ObjectDeleter deletes a single object from the store; pkg/objectstore
// satisfies this against S3.
type ObjectDeleter interface {
	Delete(ctx context.Context, bucket, key string) error
}

// Store is the persistence seam for consent operations.
type Store interface {
	GetRecordingByTranscript(ctx context.Context, transcriptID string) (RecordingInfo, error)
	SetAudioDeleted(ctx context.Context, transcriptID string) error
}

// Service deletes raw audio on consent denial.
type Service struct {
	store  Store
	object ObjectDeleter
}

// NewService constructs a Service.
func NewService(store Store, object ObjectDeleter) *Service {
	return &Service{store: store, object: object}
}

// DenyConsent implements spec.md §4.7: delete every track object (or the
// single object_key for single-file recordings) under the recording's
// bucket, and only mark audio_deleted=true if every deletion succeeds —
// a partial failure leaves the flag clear so a retry can finish the job.
func (s *Service) DenyConsent(ctx context.Context, transcriptID string) error {
	rec, err := s.store.GetRecordingByTranscript(ctx, transcriptID)
	if err != nil {
		return err
	}

	keys := rec.TrackKeys
	if len(keys) == 0 {
		keys = []string{rec.ObjectKey}
	}

	for _, key := range keys {
		if err := s.object.Delete(ctx, rec.BucketName, key); err != nil {
			slog.Warn("consent: audio deletion failed, audio_deleted left unset for retry",
				"transcript_id", transcriptID, "bucket", rec.BucketName, "key", key, "error", err)
			return errs.New(errs.Transient, "consent", "DenyConsent", err)
		}
	}

	return s.store.SetAudioDeleted(ctx, transcriptID)
}
