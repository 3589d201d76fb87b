package transcript

import (
	"strings"
	"testing"

	"github.com/reflector-core/reflector/ent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWebVTT_GroupsConsecutiveWordsBySpeaker(t *testing.T) {
	words := []schema.Word{
		{Text: "Hello", Start: 0, End: 0.5, Speaker: 0},
		{Text: "there", Start: 0.5, End: 1.0, Speaker: 0},
		{Text: "Hi", Start: 1.0, End: 1.5, Speaker: 1},
	}

	out := RenderWebVTT(words)

	require.True(t, strings.HasPrefix(out, "WEBVTT"))
	assert.Contains(t, out, "00:00:00.000 --> 00:00:01.000")
	assert.Contains(t, out, "<v Speaker0>Hello there")
	assert.Contains(t, out, "<v Speaker1>Hi")
}

func TestRenderWebVTT_EmptyWordsProducesBareHeader(t *testing.T) {
	out := RenderWebVTT(nil)
	assert.Equal(t, "WEBVTT\n", out)
}

func TestFormatTimestamp_HoursMinutesSeconds(t *testing.T) {
	assert.Equal(t, "01:01:01.500", formatTimestamp(3661.5))
	assert.Equal(t, "00:00:00.000", formatTimestamp(0))
}
