package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

var ErrMalformedFrame = errors.New("malformed audio frame")

// Format describes raw linear PCM audio. The relay runs everything as
// 16-bit signed little-endian mono at 24 kHz, matching the model endpoint.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is pcm16 mono 24kHz.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1}

const bytesPerSample = 2

// EncodeBase64 packages raw PCM bytes for a JSON wire message.
func EncodeBase64(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// DecodeBase64 recovers raw PCM bytes from a wire message.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrMalformedFrame
	}
	return b, nil
}

// Duration reports how long the given PCM payload plays for.
func (f Format) Duration(pcm []byte) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samples := len(pcm) / (bytesPerSample * f.Channels)
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

const wavHeaderLen = 44

// EncodeWAV wraps raw PCM in a minimal RIFF/WAVE container so a generic
// decoder can be used uniformly regardless of where a chunk came from.
func EncodeWAV(pcm []byte, f Format) []byte {
	out := make([]byte, wavHeaderLen+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.SampleRate*f.Channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.Channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderLen:], pcm)
	return out
}

// DecodeWAV parses a container produced by EncodeWAV and returns the raw
// PCM payload and its format. Only 16-bit PCM is accepted.
func DecodeWAV(container []byte) ([]byte, Format, error) {
	if len(container) < wavHeaderLen {
		return nil, Format{}, ErrMalformedFrame
	}
	if string(container[0:4]) != "RIFF" || string(container[8:12]) != "WAVE" || string(container[12:16]) != "fmt " {
		return nil, Format{}, ErrMalformedFrame
	}
	if binary.LittleEndian.Uint16(container[20:22]) != 1 {
		return nil, Format{}, ErrMalformedFrame
	}
	if binary.LittleEndian.Uint16(container[34:36]) != 16 {
		return nil, Format{}, ErrMalformedFrame
	}
	f := Format{
		Channels:   int(binary.LittleEndian.Uint16(container[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(container[24:28])),
	}
	if f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, Format{}, ErrMalformedFrame
	}
	if string(container[36:40]) != "data" {
		return nil, Format{}, ErrMalformedFrame
	}
	n := int(binary.LittleEndian.Uint32(container[40:44]))
	if n > len(container)-wavHeaderLen {
		return nil, Format{}, ErrMalformedFrame
	}
	return container[wavHeaderLen : wavHeaderLen+n], f, nil
}
