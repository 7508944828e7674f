package playback

import (
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"vox/relay/internal/audio"
)

// WallClock measures the playback timeline as wall time since creation.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

func (c *WallClock) Now() time.Duration { return time.Since(c.start) }

// ProcessSink feeds scheduled PCM buffers to a player subprocess
// (aplay/ffplay) at their timeline offsets. Writes are serialized; a
// stopped handle simply never writes.
type ProcessSink struct {
	clock Clock

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewProcessSink starts the player process reading raw s16le on stdin.
func NewProcessSink(bin string, f audio.Format, clock Clock) (*ProcessSink, error) {
	var cmd *exec.Cmd
	switch bin {
	case "", "aplay":
		cmd = exec.Command("aplay", "-t", "raw", "-r", fmt.Sprint(f.SampleRate), "-f", "S16_LE", "-c", fmt.Sprint(f.Channels), "-q")
	default:
		cmd = exec.Command(bin,
			"-f", "s16le", "-ar", fmt.Sprint(f.SampleRate), "-ch_layout", "mono",
			"-i", "pipe:0", "-autoexit", "-nodisp", "-loglevel", "quiet")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ProcessSink{clock: clock, cmd: cmd, stdin: stdin}, nil
}

func (s *ProcessSink) Play(pcm []byte, at time.Duration) Handle {
	h := &processHandle{}
	go func() {
		if d := at - s.clock.Now(); d > 0 {
			time.Sleep(d)
		}
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		if stopped {
			return
		}
		s.mu.Lock()
		_, err := s.stdin.Write(pcm)
		s.mu.Unlock()
		if err != nil {
			log.Printf("[playback] write to player: %v", err)
		}
	}()
	return h
}

// Close ends the player's input and waits for it to drain.
func (s *ProcessSink) Close() error {
	s.mu.Lock()
	_ = s.stdin.Close()
	cmd := s.cmd
	s.mu.Unlock()
	return cmd.Wait()
}

type processHandle struct {
	mu      sync.Mutex
	stopped bool
}

func (h *processHandle) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}
