// Package presence reconciles locally-tracked Meeting activity against the
// external platform's room-presence API, which is authoritative whenever
// it is reachable. It generalizes the teacher's pkg/session (in-memory
// session tracking) and pkg/queue/orphan.go (idempotent, ticker-driven
// reconciliation every pod runs independently) to meeting presence.
package presence

import (
	"context"
	"log/slog"
	"time"
)

// MeetingRecord is the subset of a Meeting row the reconciler acts on.
type MeetingRecord struct {
	ID       string
	RoomName string
}

// PlatformPresence is the external platform's room-presence API.
type PlatformPresence interface {
	// RoomPresence returns the number of clients the platform currently
	// reports in roomName.
	RoomPresence(ctx context.Context, roomName string) (count int, err error)
	// DeleteRoom deletes the platform room. A 404-equivalent "already
	// gone" response must not be treated as an error by implementations.
	DeleteRoom(ctx context.Context, roomName string) error
}

// PendingJoins answers whether a meeting has an outstanding join
// reservation, preventing deactivation during a WebRTC handshake.
type PendingJoins interface {
	Exists(ctx context.Context, meetingID string) (bool, error)
}

// Store is the persistence seam for presence reconciliation.
type Store interface {
	ActiveMeetings(ctx context.Context) ([]MeetingRecord, error)
	// HasAnySession reports whether the meeting has ever had a
	// ParticipantSession row, open or closed.
	HasAnySession(ctx context.Context, meetingID string) (bool, error)
	// HasOpenSession reports whether a ParticipantSession with
	// left_at IS NULL exists for the meeting.
	HasOpenSession(ctx context.Context, meetingID string) (bool, error)
	SetNumClients(ctx context.Context, meetingID string, count int) error
	// Deactivate sets is_active=false and num_clients=0.
	Deactivate(ctx context.Context, meetingID string) error
}

// Reconciler runs the presence algorithm of spec.md §4.8 against every
// currently-active meeting, on a fixed interval.
type Reconciler struct {
	store    Store
	platform PlatformPresence
	pending  PendingJoins
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReconciler constructs a Reconciler that sweeps every interval.
func NewReconciler(store Store, platform PlatformPresence, pending PendingJoins, interval time.Duration) *Reconciler {
	return &Reconciler{
		store:    store,
		platform: platform,
		pending:  pending,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the periodic reconciliation loop in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.run(ctx)
}

// Stop signals the reconciliation loop to exit and waits for it to finish.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				slog.Error("presence: reconciliation pass failed", "error", err)
			}
		}
	}
}

// ReconcileOnce runs a single reconciliation pass over every active
// meeting. All pods run this independently; every step is idempotent.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	meetings, err := r.store.ActiveMeetings(ctx)
	if err != nil {
		return err
	}

	for _, m := range meetings {
		r.reconcileMeeting(ctx, m)
	}
	return nil
}

// reconcileMeeting applies spec.md §4.8's three-step algorithm to a single
// active meeting.
func (r *Reconciler) reconcileMeeting(ctx context.Context, m MeetingRecord) {
	count, err := r.platform.RoomPresence(ctx, m.RoomName)
	if err != nil {
		open, oerr := r.store.HasOpenSession(ctx, m.ID)
		if oerr != nil {
			slog.Error("presence: could not check open sessions after platform error",
				"meeting_id", m.ID, "error", oerr)
			return
		}
		if open {
			slog.Warn("presence: platform presence API errored, falling back to DB session, staying active",
				"meeting_id", m.ID, "room_name", m.RoomName, "platform_error", err)
			return
		}
		slog.Warn("presence: platform presence API errored, no open DB session, deactivating",
			"meeting_id", m.ID, "room_name", m.RoomName, "platform_error", err)
		if err := r.store.Deactivate(ctx, m.ID); err != nil {
			slog.Error("presence: failed to deactivate meeting after platform error", "meeting_id", m.ID, "error", err)
		}
		return
	}

	if count > 0 {
		if err := r.store.SetNumClients(ctx, m.ID, count); err != nil {
			slog.Error("presence: failed to record client count", "meeting_id", m.ID, "error", err)
		}
		return
	}

	hadSession, err := r.store.HasAnySession(ctx, m.ID)
	if err != nil {
		slog.Error("presence: failed to check session history", "meeting_id", m.ID, "error", err)
		return
	}
	if !hadSession {
		return
	}

	pending, err := r.pending.Exists(ctx, m.ID)
	if err != nil {
		slog.Error("presence: failed to check pending joins", "meeting_id", m.ID, "error", err)
		return
	}
	if pending {
		return
	}

	if err := r.store.Deactivate(ctx, m.ID); err != nil {
		slog.Error("presence: failed to deactivate meeting", "meeting_id", m.ID, "error", err)
		return
	}
	slog.Info("presence: deactivated meeting", "meeting_id", m.ID, "room_name", m.RoomName)

	if err := r.platform.DeleteRoom(ctx, m.RoomName); err != nil {
		slog.Warn("presence: best-effort platform room deletion failed",
			"meeting_id", m.ID, "room_name", m.RoomName, "error", err)
	}
}
