package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ForwardChainAllowed(t *testing.T) {
	chain := []Status{StatusIdle, StatusUploaded, StatusRecording, StatusProcessing, StatusEnded}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s should be allowed", chain[i], chain[i+1])
	}
}

func TestCanTransition_BackwardIsRejected(t *testing.T) {
	assert.False(t, CanTransition(StatusProcessing, StatusUploaded))
	assert.False(t, CanTransition(StatusEnded, StatusIdle))
}

func TestCanTransition_SkippingAheadIsAllowed(t *testing.T) {
	assert.True(t, CanTransition(StatusIdle, StatusProcessing))
}

func TestCanTransition_AnyStateToErrorIsAllowed(t *testing.T) {
	for _, s := range []Status{StatusIdle, StatusUploaded, StatusRecording, StatusProcessing, StatusEnded} {
		assert.True(t, CanTransition(s, StatusError), "%s -> error should be allowed", s)
	}
}

func TestCanTransition_ErrorIsAbsorbingExceptReprocess(t *testing.T) {
	assert.True(t, CanTransition(StatusError, StatusProcessing))
	assert.False(t, CanTransition(StatusError, StatusIdle))
	assert.False(t, CanTransition(StatusError, StatusUploaded))
	assert.False(t, CanTransition(StatusError, StatusEnded))
}

func TestCanTransition_SameStateIsRejected(t *testing.T) {
	assert.False(t, CanTransition(StatusProcessing, StatusProcessing))
}

func TestIsReprocess(t *testing.T) {
	assert.True(t, IsReprocess(StatusError, StatusProcessing))
	assert.False(t, IsReprocess(StatusIdle, StatusProcessing))
}

func TestValidateTransition_RejectsIllegalMove(t *testing.T) {
	err := ValidateTransition(StatusEnded, StatusUploaded)
	assert.Error(t, err)
}
