package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("OPENAI_REALTIME_MODEL")
	os.Unsetenv("RELAY_QUEUE_MAX")
	os.Unsetenv("AUDIO_SAMPLE_RATE")

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Server.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", c.Server.LogLevel)
	}
	if c.OpenAI.Model != "gpt-4o-realtime-preview-2024-12-17" {
		t.Fatalf("expected default realtime model, got %q", c.OpenAI.Model)
	}
	if c.Relay.QueueMax != 64 {
		t.Fatalf("expected default queue max 64, got %d", c.Relay.QueueMax)
	}
	if c.Audio.SampleRate != 24000 || c.Audio.Channels != 1 {
		t.Fatalf("expected pcm16 mono 24kHz defaults, got %d/%d", c.Audio.SampleRate, c.Audio.Channels)
	}
}

func TestRealtimeURL(t *testing.T) {
	os.Unsetenv("OPENAI_REALTIME_BASE")
	os.Unsetenv("OPENAI_REALTIME_MODEL")
	c := Load()
	want := "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-12-17"
	if got := c.RealtimeURL(); got != want {
		t.Fatalf("realtime url: got %q want %q", got, want)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("RELAY_QUEUE_MAX", "8")
	defer os.Unsetenv("RELAY_QUEUE_MAX")
	c := Load()
	if c.Relay.QueueMax != 8 {
		t.Fatalf("expected queue max 8 from env, got %d", c.Relay.QueueMax)
	}
}
