package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nhooyr.io/websocket"

	"vox/relay/internal/audio"
	"vox/relay/internal/playback"
	"vox/relay/internal/protocol"
)

// Console client: creates a session against a running relay, streams a WAV
// file up as microphone audio, and plays the model's replies through a
// local player process. Deltas after a truncation are dropped the same way
// the browser client drops them.
func main() {
	server := flag.String("server", "http://localhost:8080", "Relay base URL")
	wavPath := flag.String("wav", "", "Audio file to stream as input (pcm16 wav, or anything ffmpeg reads)")
	player := flag.String("player", "aplay", "Player binary (aplay or ffplay)")
	frameMs := flag.Int("frame", 100, "Input frame size in milliseconds")
	timeout := flag.Duration("timeout", 60*time.Second, "Session timeout")
	flag.Parse()

	if *wavPath == "" {
		log.Fatal("usage: console -wav <file.wav> [-server http://host:port]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		cancel()
	}()

	sessionID, token, err := createSession(ctx, *server)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	fmt.Printf("session %s\n", sessionID)

	wsURL := wsEndpoint(*server, sessionID, token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial relay: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(1 << 22)

	pcm, format, err := loadAudio(ctx, *wavPath)
	if err != nil {
		log.Fatalf("load audio: %v", err)
	}
	fmt.Printf("input: %d bytes pcm, %d Hz, %d ch\n", len(pcm), format.SampleRate, format.Channels)

	sink, err := playback.NewProcessSink(*player, audio.DefaultFormat, playback.NewWallClock())
	if err != nil {
		log.Fatalf("start player: %v", err)
	}
	sched := playback.New(playback.NewWallClock(), sink, audio.DefaultFormat)

	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		receive(ctx, conn, sched)
	}()

	if err := streamInput(ctx, conn, pcm, format, *frameMs); err != nil {
		log.Printf("stream input: %v", err)
	}

	select {
	case <-recvDone:
	case <-ctx.Done():
	}
	if err := sink.Close(); err != nil {
		log.Printf("player exit: %v", err)
	}
}

func createSession(ctx context.Context, server string) (id, token string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/sessions", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("POST /sessions: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		SessionID   string `json:"session_id"`
		ClientToken string `json:"client_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", err
	}
	return out.SessionID, out.ClientToken, nil
}

func wsEndpoint(server, sessionID, token string) string {
	ws := strings.Replace(server, "http", "ws", 1)
	q := url.Values{"session_id": {sessionID}}
	if token != "" {
		q.Set("token", token)
	}
	return ws + "/ws?" + q.Encode()
}

// loadAudio reads the file as a pcm16 WAV, falling back to ffmpeg for
// any other container (mp3, webm, a differently-encoded wav).
func loadAudio(ctx context.Context, path string) ([]byte, audio.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, audio.Format{}, err
	}
	if pcm, f, err := audio.DecodeWAV(data); err == nil {
		return pcm, f, nil
	}
	tc := audio.NewFFmpegTranscoder("", audio.DefaultFormat)
	pcm, _, err := tc.Decode(ctx, data)
	if err != nil {
		return nil, audio.Format{}, err
	}
	return pcm, audio.DefaultFormat, nil
}

// streamInput paces the file up in real time so server-side VAD sees it
// the way it would see a microphone.
func streamInput(ctx context.Context, conn *websocket.Conn, pcm []byte, f audio.Format, frameMs int) error {
	frameBytes := f.SampleRate * f.Channels * 2 * frameMs / 1000
	ticker := time.NewTicker(time.Duration(frameMs) * time.Millisecond)
	defer ticker.Stop()

	sent := 0
	tsMs := int64(0)
	for off := 0; off < len(pcm); off += frameBytes {
		end := off + frameBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		msg, err := json.Marshal(map[string]any{
			"type":  protocol.TypeInputAudioAppend,
			"audio": audio.EncodeBase64(pcm[off:end]),
			"ts_ms": tsMs,
		})
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
			return err
		}
		sent++
		tsMs += int64(frameMs)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	fmt.Printf("streamed %d frames\n", sent)
	return nil
}

func receive(ctx context.Context, conn *websocket.Conn, sched *playback.Scheduler) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("read: %v", err)
			}
			return
		}
		env, err := protocol.Parse(data)
		if err != nil {
			log.Printf("malformed message from relay: %v", err)
			continue
		}
		switch env.Type {
		case protocol.TypeResponseAudioDelta:
			if err := sched.Enqueue(env.ItemID, env.Delta); err != nil {
				log.Printf("enqueue delta: %v", err)
			}
		case protocol.TypeItemTruncated:
			fmt.Printf("truncated %s, cutting playback\n", env.ItemID)
			sched.CancelItem(env.ItemID)
		case protocol.TypeError:
			log.Printf("relay error: %s", string(data))
		default:
			// transcripts, item lifecycle, etc. are informational here
		}
	}
}
