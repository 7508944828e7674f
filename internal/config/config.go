package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port      string
		LogLevel  string
		StaticDir string
	}
	OpenAI struct {
		APIKey       string
		Model        string
		RESTBase     string
		RealtimeBase string
		Voice        string
	}
	Relay struct {
		QueueMax int
	}
	Client struct {
		TokenSecret   string
		TokenExpMin   int
		TokenSkewSecs int
	}
	Audio struct {
		SampleRate int
		Channels   int
		FFmpegBin  string
	}
}

// RealtimeURL is the websocket endpoint including the model selector.
func (c Config) RealtimeURL() string {
	return c.OpenAI.RealtimeBase + "?model=" + c.OpenAI.Model
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.static_dir", "public")

	v.SetDefault("openai.model", "gpt-4o-realtime-preview-2024-12-17")
	v.SetDefault("openai.rest_base", "https://api.openai.com/v1")
	v.SetDefault("openai.realtime_base", "wss://api.openai.com/v1/realtime")
	v.SetDefault("openai.voice", "ash")

	v.SetDefault("relay.queue_max", 64)

	v.SetDefault("client.token_exp_min", 60)
	v.SetDefault("client.token_skew_secs", 30)

	v.SetDefault("audio.sample_rate", 24000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.ffmpeg_bin", "ffmpeg")

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.static_dir", "STATIC_DIR")

	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "OPENAI_REALTIME_MODEL")
	v.BindEnv("openai.rest_base", "OPENAI_REST_BASE")
	v.BindEnv("openai.realtime_base", "OPENAI_REALTIME_BASE")
	v.BindEnv("openai.voice", "OPENAI_VOICE")

	v.BindEnv("relay.queue_max", "RELAY_QUEUE_MAX")

	v.BindEnv("client.token_secret", "CLIENT_TOKEN_SECRET")
	v.BindEnv("client.token_exp_min", "CLIENT_TOKEN_EXP_MIN")
	v.BindEnv("client.token_skew_secs", "CLIENT_TOKEN_SKEW_SECS")

	v.BindEnv("audio.sample_rate", "AUDIO_SAMPLE_RATE")
	v.BindEnv("audio.channels", "AUDIO_CHANNELS")
	v.BindEnv("audio.ffmpeg_bin", "FFMPEG_BIN")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.StaticDir = v.GetString("server.static_dir")

	c.OpenAI.APIKey = v.GetString("openai.api_key")
	c.OpenAI.Model = v.GetString("openai.model")
	c.OpenAI.RESTBase = v.GetString("openai.rest_base")
	c.OpenAI.RealtimeBase = v.GetString("openai.realtime_base")
	c.OpenAI.Voice = v.GetString("openai.voice")

	c.Relay.QueueMax = v.GetInt("relay.queue_max")

	c.Client.TokenSecret = v.GetString("client.token_secret")
	c.Client.TokenExpMin = v.GetInt("client.token_exp_min")
	c.Client.TokenSkewSecs = v.GetInt("client.token_skew_secs")

	c.Audio.SampleRate = v.GetInt("audio.sample_rate")
	c.Audio.Channels = v.GetInt("audio.channels")
	c.Audio.FFmpegBin = v.GetString("audio.ffmpeg_bin")

	if c.OpenAI.APIKey == "" {
		log.Printf("config: OPENAI_API_KEY not set - the relay cannot reach the model endpoint")
	}
	if c.Client.TokenSecret == "" {
		log.Printf("config: CLIENT_TOKEN_SECRET not set - client websocket auth disabled")
	}

	log.Printf("config loaded: port=%s model=%s queue_max=%d", c.Server.Port, c.OpenAI.Model, c.Relay.QueueMax)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
