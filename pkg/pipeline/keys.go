package pipeline

import "fmt"

// PaddedTrackKey is the padded-track object key layout of spec.md §6:
// `file_pipeline_<engine>/<transcript_id>/tracks/padded_<i>.webm`.
func PaddedTrackKey(engine EngineName, transcriptID string, trackIndex int) string {
	return fmt.Sprintf("file_pipeline_%s/%s/tracks/padded_%d.webm", engine, transcriptID, trackIndex)
}

// MixdownKey is the final mixdown object key layout of spec.md §6:
// `<transcript_id>/audio.mp3`.
func MixdownKey(transcriptID string) string {
	return fmt.Sprintf("%s/audio.mp3", transcriptID)
}
