package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/config"
	"github.com/tomz197/bomb-arena/internal/net/transport"
	"github.com/tomz197/bomb-arena/internal/schedule"
	"github.com/tomz197/bomb-arena/internal/server"
)

//go:embed index.html
var htmlPage string

// inboundQueueSize is the number of packets waiting for the server loop.
const inboundQueueSize = 1024

type statsResponse struct {
	SessionsNow       uint32 `json:"sessions_now"`
	SessionsLastHour  uint32 `json:"sessions_last_hour"`
	SessionsLastDay   uint32 `json:"sessions_last_day"`
	SessionsLastMonth uint32 `json:"sessions_last_month"`
	GamesNow          uint32 `json:"games_now"`
	GamesLastHour     uint32 `json:"games_last_hour"`
	GamesLastDay      uint32 `json:"games_last_day"`
	GamesLastMonth    uint32 `json:"games_last_month"`
	Connections       int    `json:"connections"`
}

func main() {
	cfg := server.ConfigFromEnv()
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")
	sshPort := config.GetEnv("SSH_DISPLAY_PORT", "2222")

	if config.GetEnvBool("BIM_DEBUG", false) {
		log.SetLevel(log.DebugLevel)
	}

	loop := schedule.NewLoop(inboundQueueSize)
	hub := transport.NewHub(inboundQueueSize)

	srv, err := server.New(cfg, loop, hub)
	if err != nil {
		log.Fatal("Could not create the game server.", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx, hub, loop)
		close(done)
	}()

	page := strings.NewReplacer(
		"{{.ServerName}}", cfg.ServerName,
		"{{.SSHHost}}", sshHost,
		"{{.SSHPort}}", sshPort,
	).Replace(htmlPage)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.Handle("/ws", transport.WebsocketHandler(hub))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		statsHandler(w, r, loop, srv, hub)
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting game server.", "addr", "http://"+cfg.Addr(), "name", cfg.ServerName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error.", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error.", "err", err)
	}

	hub.Close()
	cancel()
	<-done

	if err := srv.Close(); err != nil {
		log.Error("Could not close the server.", "err", err)
	}
	log.Info("Game server stopped.")
}

// statsHandler answers with the statistics of the server. They are read on
// the goroutine of the server loop.
func statsHandler(w http.ResponseWriter, r *http.Request, loop *schedule.Loop, srv *server.Server, hub *transport.Hub) {
	result := make(chan statsResponse, 1)
	loop.Post(func() {
		s := srv.Statistics()
		result <- statsResponse{
			SessionsNow:       s.SessionsNow,
			SessionsLastHour:  s.SessionsLastHour,
			SessionsLastDay:   s.SessionsLastDay,
			SessionsLastMonth: s.SessionsLastMonth,
			GamesNow:          s.GamesNow,
			GamesLastHour:     s.GamesLastHour,
			GamesLastDay:      s.GamesLastDay,
			GamesLastMonth:    s.GamesLastMonth,
			Connections:       hub.Count(),
		}
	})

	select {
	case stats := <-result:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Debug("Could not write statistics.", "err", err)
		}
	case <-r.Context().Done():
	}
}
