package relay

import "encoding/json"

// Utterance tracks the assistant response currently streaming audio.
// ItemID and StartMs always travel together: a nil *Utterance means no
// response is in flight and there is nothing to truncate.
type Utterance struct {
	ItemID  string
	StartMs int64
}

// Session is the in-memory record of one active conversation. It is
// owned and mutated exclusively by the Hub's event loop.
type Session struct {
	ID string

	// SavedConfig is the last session.update payload from the client,
	// replayed whenever the model connection is (re)established.
	SavedConfig json.RawMessage

	// LatestMediaMs is the epoch-ms timestamp of the most recent client
	// audio activity, used as the clock against which elapsed playback
	// is measured.
	LatestMediaMs int64

	Utterance *Utterance
}

// Reset clears every field to its documented empty value. The session
// keeps its shape; nothing is reassigned wholesale.
func (s *Session) Reset() {
	s.SavedConfig = nil
	s.LatestMediaMs = 0
	s.Utterance = nil
}

// ClearUtterance returns the session to idle after a truncation or a
// naturally completed response.
func (s *Session) ClearUtterance() {
	s.Utterance = nil
}
