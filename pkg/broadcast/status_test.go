package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupersedeDagStatus_KeepsOnlyLatestPerRun(t *testing.T) {
	events := []CatchupEvent{
		{SequenceNumber: 1, EventType: EventDagStatus, Data: map[string]any{"workflow_run_id": "run-a"}},
		{SequenceNumber: 2, EventType: EventStatus, Data: map[string]any{"status": "processing"}},
		{SequenceNumber: 3, EventType: EventDagStatus, Data: map[string]any{"workflow_run_id": "run-a"}},
		{SequenceNumber: 4, EventType: EventDagStatus, Data: map[string]any{"workflow_run_id": "run-b"}},
	}

	out := supersedeDagStatus(events)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(out) == 3, "expected superseded run-a snapshot to be dropped")

	var seqs []int64
	for _, e := range out {
		seqs = append(seqs, e.SequenceNumber)
	}
	assert.Equal(t, []int64{2, 3, 4}, seqs)
}

func TestSupersedeDagStatus_NoDagStatusIsNoOp(t *testing.T) {
	events := []CatchupEvent{
		{SequenceNumber: 1, EventType: EventStatus},
		{SequenceNumber: 2, EventType: EventTopic},
	}
	out := supersedeDagStatus(events)
	assert.Equal(t, events, out)
}
