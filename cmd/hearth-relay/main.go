// hearth-relay serves the payment API, the websocket fan-out hub, and the
// operational endpoints for a household.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/hearthapp/hearth/internal/config"
	"github.com/hearthapp/hearth/internal/httpapi"
	"github.com/hearthapp/hearth/internal/payments"
	"github.com/hearthapp/hearth/internal/relay"
	"github.com/hearthapp/hearth/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	logger := slog.Default()

	store, err := payments.NewIntentStore(cfg.Intents)
	if err != nil {
		logger.Error("failed to initialize intent store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Daraja.CallbackURL == "" {
		cfg.Daraja.CallbackURL = "http://localhost" + cfg.ListenAddr + "/api/payments/mpesa/callback"
	}
	daraja := payments.NewDarajaClient(cfg.Daraja, nil)
	svc := payments.NewService(store, daraja, logger.With("component", "payments"))

	hub := relay.NewHub(logger.With("component", "relay"), relay.NewMetrics(nil))
	server := httpapi.NewServer(svc, hub, logger.With("component", "http"), httpapi.ServerConfig{
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	logger.Info("hearth relay listening", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
