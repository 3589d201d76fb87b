package transcript

import (
	"fmt"
	"strings"

	"github.com/reflector-core/reflector/ent/schema"
)

// RenderWebVTT renders a word-level transcript into WebVTT cue text, one
// cue per contiguous run of words from the same speaker. This supplements
// spec.md §3's `webvtt` field, which names the storage slot but never an
// operation that fills it (see SPEC_FULL.md §4).
func RenderWebVTT(words []schema.Word) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")

	for _, cue := range groupBySpeaker(words) {
		b.WriteString("\n")
		b.WriteString(formatTimestamp(cue.start))
		b.WriteString(" --> ")
		b.WriteString(formatTimestamp(cue.end))
		b.WriteString("\n")
		fmt.Fprintf(&b, "<v Speaker%d>%s\n", cue.speaker, cue.text)
	}

	return b.String()
}

type speakerCue struct {
	speaker    int
	start, end float64
	text       string
}

func groupBySpeaker(words []schema.Word) []speakerCue {
	var cues []speakerCue
	for _, w := range words {
		if len(cues) > 0 && cues[len(cues)-1].speaker == w.Speaker {
			last := &cues[len(cues)-1]
			last.end = w.End
			last.text += " " + w.Text
			continue
		}
		cues = append(cues, speakerCue{speaker: w.Speaker, start: w.Start, end: w.End, text: w.Text})
	}
	return cues
}

// formatTimestamp renders seconds as WebVTT's HH:MM:SS.mmm timestamp form.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
