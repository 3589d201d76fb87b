package presence

import (
	"context"

	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/ent/meeting"
	"github.com/reflector-core/reflector/ent/participantsession"
	"github.com/reflector-core/reflector/pkg/errs"
)

type entStore struct {
	client *ent.Client
}

// NewEntStore constructs the production Store backed by Postgres.
func NewEntStore(client *ent.Client) Store {
	return &entStore{client: client}
}

func (s *entStore) ActiveMeetings(ctx context.Context) ([]MeetingRecord, error) {
	rows, err := s.client.Meeting.Query().
		Where(meeting.IsActiveEQ(true)).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "presence", "ActiveMeetings", err)
	}

	out := make([]MeetingRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, MeetingRecord{ID: m.ID, RoomName: m.RoomName})
	}
	return out, nil
}

func (s *entStore) HasAnySession(ctx context.Context, meetingID string) (bool, error) {
	exists, err := s.client.ParticipantSession.Query().
		Where(participantsession.MeetingIDEQ(meetingID)).
		Exist(ctx)
	if err != nil {
		return false, errs.New(errs.Transient, "presence", "HasAnySession", err)
	}
	return exists, nil
}

func (s *entStore) HasOpenSession(ctx context.Context, meetingID string) (bool, error) {
	exists, err := s.client.ParticipantSession.Query().
		Where(participantsession.MeetingIDEQ(meetingID), participantsession.LeftAtIsNil()).
		Exist(ctx)
	if err != nil {
		return false, errs.New(errs.Transient, "presence", "HasOpenSession", err)
	}
	return exists, nil
}

func (s *entStore) SetNumClients(ctx context.Context, meetingID string, count int) error {
	err := s.client.Meeting.UpdateOneID(meetingID).SetNumClients(count).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "presence", "SetNumClients", err)
	}
	return nil
}

func (s *entStore) Deactivate(ctx context.Context, meetingID string) error {
	err := s.client.Meeting.UpdateOneID(meetingID).
		SetIsActive(false).
		SetNumClients(0).
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "presence", "Deactivate", err)
	}
	return nil
}
