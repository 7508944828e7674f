// Package playback renders streamed audio deltas as gapless sequential
// audio on a virtual timeline, and can surgically cancel everything still
// pending for one utterance when the user barges in.
package playback

import (
	"fmt"
	"sync"
	"time"

	"vox/relay/internal/audio"
)

// Clock reports the current position on the playback timeline. The console
// client uses wall time since start; tests use a fake they advance by hand.
type Clock interface {
	Now() time.Duration
}

// Sink receives decoded PCM buffers with the timeline offset each one must
// start at, and returns a handle that can stop that buffer.
type Sink interface {
	Play(pcm []byte, at time.Duration) Handle
}

// Handle stops one scheduled buffer. Stop on an already-finished buffer is
// a no-op.
type Handle interface {
	Stop()
}

type entry struct {
	start  time.Duration
	end    time.Duration
	handle Handle
}

// Scheduler keeps one forward-looking cursor shared by every item so chunks
// play back-to-back in arrival order, within and across items.
type Scheduler struct {
	clock  Clock
	sink   Sink
	format audio.Format

	mu        sync.Mutex
	next      time.Duration
	items     map[string][]entry
	cancelled map[string]bool
}

func New(clock Clock, sink Sink, f audio.Format) *Scheduler {
	return &Scheduler{
		clock:     clock,
		sink:      sink,
		format:    f,
		items:     make(map[string][]entry),
		cancelled: make(map[string]bool),
	}
}

// Enqueue decodes one base64 PCM delta and schedules it at
// max(clock now, cursor), then advances the cursor by the buffer duration.
// Deltas for an already-cancelled item are dropped silently: they were in
// flight when the interruption landed.
func (s *Scheduler) Enqueue(itemID, encoded string) error {
	pcm, err := audio.DecodeBase64(encoded)
	if err != nil {
		return fmt.Errorf("delta for item %s: %w", itemID, err)
	}
	d := s.format.Duration(pcm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled[itemID] {
		return nil
	}
	now := s.clock.Now()
	start := s.next
	if now > start {
		start = now
	}
	h := s.sink.Play(pcm, start)
	s.prune(itemID, now)
	s.items[itemID] = append(s.items[itemID], entry{start: start, end: start + d, handle: h})
	s.next = start + d
	return nil
}

// CancelItem stops every buffer still scheduled or playing for the item,
// drops its bookkeeping, and pulls the cursor back to the present so audio
// queued behind the cancelled item is not delayed. The item stays marked
// cancelled so stragglers are dropped on arrival.
func (s *Scheduler) CancelItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items[itemID] {
		e.handle.Stop()
	}
	delete(s.items, itemID)
	s.cancelled[itemID] = true
	s.next = s.clock.Now()
}

// Cancelled reports whether the item has been cancelled.
func (s *Scheduler) Cancelled(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled[itemID]
}

// Pending reports how many buffers are still scheduled (not yet finished)
// for the item.
func (s *Scheduler) Pending(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(itemID, s.clock.Now())
	return len(s.items[itemID])
}

// Cursor returns the timeline position the next buffer would start at.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// prune drops entries that finished before now. Caller holds s.mu.
func (s *Scheduler) prune(itemID string, now time.Duration) {
	es := s.items[itemID]
	kept := es[:0]
	for _, e := range es {
		if e.end > now {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(s.items, itemID)
		return
	}
	s.items[itemID] = kept
}
