package relay

// ElapsedMs computes how many milliseconds of the current assistant
// utterance the user actually heard before interrupting: the distance
// from the utterance start to the latest client audio activity, never
// negative. Both timestamps live in the same client-audio clock domain.
func ElapsedMs(latestMediaMs, responseStartMs int64) int64 {
	e := latestMediaMs - responseStartMs
	if e < 0 {
		return 0
	}
	return e
}
