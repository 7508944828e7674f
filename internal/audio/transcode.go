package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Transcoder converts between compressed audio containers and raw PCM.
// Decode must return the samples plus their playable duration; EncodeWAV
// (frame.go) covers the reverse direction for containers we build ourselves.
type Transcoder interface {
	Decode(ctx context.Context, container []byte) (pcm []byte, d time.Duration, err error)
}

// FFmpegTranscoder shells out to ffmpeg to turn an arbitrary compressed
// container (webm/opus uploads, mp3, wav) into raw pcm16 at the relay format.
type FFmpegTranscoder struct {
	Bin    string
	Format Format
}

// NewFFmpegTranscoder uses the given binary path ("ffmpeg" if empty).
func NewFFmpegTranscoder(bin string, f Format) *FFmpegTranscoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegTranscoder{Bin: bin, Format: f}
}

// Decode runs one ffmpeg process per buffer: container in on stdin, raw
// s16le out on stdout. A non-zero exit fails that buffer only; callers
// skip it and keep going.
func (t *FFmpegTranscoder) Decode(ctx context.Context, container []byte) ([]byte, time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.Bin,
		"-i", "pipe:0",
		"-ar", fmt.Sprint(t.Format.SampleRate),
		"-ac", fmt.Sprint(t.Format.Channels),
		"-f", "s16le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(container)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("ffmpeg decode: %w: %s", err, firstLine(errb.Bytes()))
	}
	pcm := out.Bytes()
	return pcm, t.Format.Duration(pcm), nil
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}
