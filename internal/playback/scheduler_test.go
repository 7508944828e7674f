package playback

import (
	"encoding/base64"
	"testing"
	"time"

	"vox/relay/internal/audio"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

type fakeHandle struct {
	stopped bool
}

func (h *fakeHandle) Stop() { h.stopped = true }

type played struct {
	pcm    []byte
	at     time.Duration
	handle *fakeHandle
}

type fakeSink struct {
	calls []played
}

func (s *fakeSink) Play(pcm []byte, at time.Duration) Handle {
	h := &fakeHandle{}
	s.calls = append(s.calls, played{pcm: pcm, at: at, handle: h})
	return h
}

// chunk returns a base64 pcm16 buffer lasting d at the test format.
func chunk(t *testing.T, f audio.Format, d time.Duration) string {
	t.Helper()
	n := int(d.Milliseconds()) * f.SampleRate * f.Channels * 2 / 1000
	return base64.StdEncoding.EncodeToString(make([]byte, n))
}

func newTestScheduler() (*Scheduler, *fakeClock, *fakeSink, audio.Format) {
	f := audio.Format{SampleRate: 1000, Channels: 1} // 2 bytes per ms
	clock := &fakeClock{}
	sink := &fakeSink{}
	return New(clock, sink, f), clock, sink, f
}

func TestEnqueueSchedulesGapless(t *testing.T) {
	s, _, sink, f := newTestScheduler()

	for i := 0; i < 3; i++ {
		if err := s.Enqueue("a1", chunk(t, f, 100*time.Millisecond)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	if len(sink.calls) != 3 {
		t.Fatalf("want 3 buffers played, got %d", len(sink.calls))
	}
	for i, want := range []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond} {
		if sink.calls[i].at != want {
			t.Fatalf("buffer %d scheduled at %v, want %v", i, sink.calls[i].at, want)
		}
	}
	if s.Cursor() != 300*time.Millisecond {
		t.Fatalf("cursor at %v, want 300ms", s.Cursor())
	}
}

func TestEnqueueNeverSchedulesInThePast(t *testing.T) {
	s, clock, sink, f := newTestScheduler()

	s.Enqueue("a1", chunk(t, f, 50*time.Millisecond))
	clock.now = 400 * time.Millisecond
	s.Enqueue("a1", chunk(t, f, 50*time.Millisecond))

	if sink.calls[1].at != 400*time.Millisecond {
		t.Fatalf("stale cursor used: scheduled at %v", sink.calls[1].at)
	}
}

func TestCrossItemOrdering(t *testing.T) {
	s, _, sink, f := newTestScheduler()

	s.Enqueue("a1", chunk(t, f, 100*time.Millisecond))
	s.Enqueue("a2", chunk(t, f, 100*time.Millisecond))

	if sink.calls[1].at != 100*time.Millisecond {
		t.Fatalf("second item must queue behind the first, scheduled at %v", sink.calls[1].at)
	}
}

func TestCancelStopsEveryPendingBuffer(t *testing.T) {
	s, _, sink, f := newTestScheduler()

	for i := 0; i < 4; i++ {
		s.Enqueue("a1", chunk(t, f, 100*time.Millisecond))
	}
	s.CancelItem("a1")

	for i, c := range sink.calls {
		if !c.handle.stopped {
			t.Fatalf("buffer %d not stopped on cancel", i)
		}
	}
	if s.Pending("a1") != 0 {
		t.Fatalf("cancel left %d pending buffers", s.Pending("a1"))
	}
	if !s.Cancelled("a1") {
		t.Fatal("item not marked cancelled")
	}
}

func TestLateDeltaAfterCancelIsDropped(t *testing.T) {
	s, _, sink, f := newTestScheduler()

	s.Enqueue("a1", chunk(t, f, 100*time.Millisecond))
	s.CancelItem("a1")
	before := len(sink.calls)

	if err := s.Enqueue("a1", chunk(t, f, 100*time.Millisecond)); err != nil {
		t.Fatalf("late delta must be dropped silently, got %v", err)
	}
	if len(sink.calls) != before {
		t.Fatal("late delta reached the sink")
	}
}

func TestCancelPullsCursorBack(t *testing.T) {
	s, clock, sink, f := newTestScheduler()

	s.Enqueue("a1", chunk(t, f, 500*time.Millisecond))
	clock.now = 100 * time.Millisecond
	s.CancelItem("a1")

	s.Enqueue("a2", chunk(t, f, 100*time.Millisecond))
	if at := sink.calls[len(sink.calls)-1].at; at != 100*time.Millisecond {
		t.Fatalf("audio after cancel delayed until %v", at)
	}
}

func TestCancelUnknownItemIsHarmless(t *testing.T) {
	s, _, _, f := newTestScheduler()
	s.CancelItem("ghost")
	if err := s.Enqueue("a1", chunk(t, f, 10*time.Millisecond)); err != nil {
		t.Fatalf("scheduler broken after cancelling unknown item: %v", err)
	}
}

func TestPendingPrunesFinishedBuffers(t *testing.T) {
	s, clock, _, f := newTestScheduler()

	s.Enqueue("a1", chunk(t, f, 100*time.Millisecond))
	s.Enqueue("a1", chunk(t, f, 100*time.Millisecond))
	if s.Pending("a1") != 2 {
		t.Fatalf("want 2 pending, got %d", s.Pending("a1"))
	}

	clock.now = 150 * time.Millisecond
	if s.Pending("a1") != 1 {
		t.Fatalf("finished buffer not pruned, %d pending", s.Pending("a1"))
	}
	clock.now = time.Second
	if s.Pending("a1") != 0 {
		t.Fatalf("want 0 pending, got %d", s.Pending("a1"))
	}
}

func TestEnqueueRejectsBadBase64(t *testing.T) {
	s, _, _, _ := newTestScheduler()
	if err := s.Enqueue("a1", "not base64!!"); err == nil {
		t.Fatal("want decode error")
	}
}
