package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vox/relay/internal/api"
	"vox/relay/internal/clientws"
	"vox/relay/internal/config"
	"vox/relay/internal/events"
	"vox/relay/internal/functions"
	"vox/relay/internal/health"
	"vox/relay/internal/relay"
	"vox/relay/internal/sessions"
	"vox/relay/internal/upstream"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	checkOnly := flag.Bool("check", false, "run health checks and exit")
	flag.Parse()

	cfg := config.Load()

	if *checkOnly {
		status := health.CheckAll(context.Background(), cfg)
		fmt.Print(status.String())
		if !status.OK {
			os.Exit(1)
		}
		return
	}

	if cfg.OpenAI.APIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}

	st := sessions.NewStore()
	ev := events.NewStore()
	up := upstream.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.RESTBase, cfg.RealtimeURL())

	fns := functions.NewRegistry()
	fns.Register("current_time", func(ctx context.Context, args json.RawMessage) (string, error) {
		return string(relayJSON(map[string]string{"time": time.Now().UTC().Format(time.RFC3339)})), nil
	})

	hubCtx, stopHubs := context.WithCancel(context.Background())
	defaultCfg := upstream.DefaultSessionConfig(cfg.OpenAI.Voice)
	hubs := relay.NewManager(hubCtx, func(sessionID string) *relay.Hub {
		return relay.NewHub(sessionID, up, fns, ev, relay.Config{
			QueueMax:             cfg.Relay.QueueMax,
			DefaultSessionConfig: defaultCfg,
		})
	})

	h := api.NewHandlers(cfg, st, ev, up, hubs)
	wss := clientws.NewServer(st, hubs, cfg.Client.TokenSecret, cfg.Client.TokenSkewSecs)

	mux := http.NewServeMux()
	router := api.NewRouter(h)
	mux.Handle("/healthz", router)
	mux.Handle("/sessions", router)
	mux.Handle("/sessions/", router)
	mux.HandleFunc("/ws", wss.HandleClientWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		stopHubs()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func relayJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
