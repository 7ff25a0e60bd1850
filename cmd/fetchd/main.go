package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/batchfetch/internal/config"
	"github.com/Sternrassler/batchfetch/pkg/fetcher"
	"github.com/Sternrassler/batchfetch/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type fetchRequest struct {
	URLs      []string `json:"urls"`
	TimeoutMs int      `json:"timeout_ms,omitempty"`
	Retries   int      `json:"retries,omitempty"`
	BatchSize int      `json:"batch_size,omitempty"`
}

type fetchResponse struct {
	Results []any `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/fetch", fetchHandler(cfg, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Dur("timeout", cfg.Timeout).
			Int("retries", cfg.Retries).
			Int("batch_size", cfg.BatchSize).
			Msg("Starting fetchd")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// fetchHandler runs one batched fetch per request. Per-request overrides
// fall back to the host defaults.
func fetchHandler(cfg *config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.URLs) == 0 {
			writeError(w, http.StatusBadRequest, "urls must not be empty")
			return
		}

		fcfg := fetcher.Config{
			Timeout:   cfg.Timeout,
			Retries:   cfg.Retries,
			BatchSize: cfg.BatchSize,
		}
		if req.TimeoutMs > 0 {
			fcfg.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
		}
		if req.Retries > 0 {
			fcfg.Retries = req.Retries
		}
		if req.BatchSize > 0 {
			fcfg.BatchSize = req.BatchSize
		}

		f, err := fetcher.New(fcfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		results, err := f.FetchAll(r.Context(), req.URLs)
		if err != nil {
			logger.Error().Err(err).Int("urls", len(req.URLs)).Msg("Fetch failed")
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, fetchResponse{Results: results})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
