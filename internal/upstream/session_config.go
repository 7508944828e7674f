package upstream

import (
	"encoding/json"
	"fmt"
)

// DefaultSessionConfig is the session object applied on model connect
// when the client has not pushed its own session.update yet: both
// modalities, server-side voice activity detection so the model reports
// speech_started for barge-in, and raw pcm16 in both directions.
func DefaultSessionConfig(voice string) json.RawMessage {
	if voice == "" {
		voice = "ash"
	}
	return json.RawMessage(fmt.Sprintf(`{
		"modalities": ["text", "audio"],
		"turn_detection": {"type": "server_vad"},
		"voice": %q,
		"input_audio_transcription": {"model": "whisper-1"},
		"input_audio_format": "pcm16",
		"output_audio_format": "pcm16"
	}`, voice))
}
