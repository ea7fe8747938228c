// hearth-agent runs one household client: it keeps the shared state, joins
// the relay for cross-device sync, heartbeats presence, and persists a
// snapshot on shutdown.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/config"
	"github.com/hearthapp/hearth/internal/household"
	"github.com/hearthapp/hearth/internal/realtime"
	"github.com/hearthapp/hearth/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	memberID := flag.String("member", "", "member id to sign in as")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	logger := slog.Default()

	client := realtime.NewClient(realtime.Options{
		RelayURL: cfg.RelayURL,
		Logger:   logger.With("component", "realtime"),
	})

	store := household.NewStore(household.Options{
		Publisher:    client,
		Logger:       logger.With("component", "household"),
		AllowedNames: cfg.AllowedNames,
		Seed:         loadSnapshot(cfg.SnapshotPath, logger),
	})
	client.Subscribe(store.Apply)
	client.Start()

	var sessions *auth.SessionManager
	if cfg.SessionSecret != "" {
		sessions = auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	}
	sessionPath := cfg.SnapshotPath + ".session"

	switch {
	case *memberID != "":
		if err := store.SignIn(*memberID); err != nil {
			logger.Error("sign in failed", "member", *memberID, "error", err)
			os.Exit(1)
		}
		rememberSession(sessions, sessionPath, store, logger)
	case sessions != nil:
		restoreSession(sessions, sessionPath, store, logger)
	}

	heartbeat := store.StartHeartbeat(cfg.HeartbeatInterval)
	logger.Info("hearth agent running", "relay", cfg.RelayURL, "snapshot", cfg.SnapshotPath)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	heartbeat.Stop()
	saveSnapshot(cfg.SnapshotPath, store, logger)
	client.Close()
}

// rememberSession writes a signed token so the next start can restore the
// signed-in member without the -member flag.
func rememberSession(sessions *auth.SessionManager, path string, store *household.Store, logger *slog.Logger) {
	if sessions == nil {
		return
	}
	member, ok := store.CurrentMember()
	if !ok {
		return
	}
	token, err := sessions.Issue(member.ID, member.Name)
	if err != nil {
		logger.Warn("session token issue failed", "error", err)
		return
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		logger.Warn("session token write failed", "path", path, "error", err)
	}
}

func restoreSession(sessions *auth.SessionManager, path string, store *household.Store, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	claims, err := sessions.Validate(string(data))
	if err != nil {
		logger.Warn("stored session rejected", "error", err)
		return
	}
	if err := store.SignIn(claims.MemberID); err != nil {
		logger.Warn("remembered member no longer signs in", "member", claims.MemberID, "error", err)
		return
	}
	logger.Info("session restored", "member", claims.Name)
}

func loadSnapshot(path string, logger *slog.Logger) *household.State {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("snapshot unreadable, starting fresh", "path", path, "error", err)
		}
		return nil
	}
	st, err := household.DecodeSnapshot(data)
	if err != nil {
		logger.Warn("snapshot corrupt, starting fresh", "path", path, "error", err)
		return nil
	}
	logger.Info("snapshot loaded", "path", path, "members", len(st.Members))
	return &st
}

func saveSnapshot(path string, store *household.Store, logger *slog.Logger) {
	if path == "" {
		return
	}
	data, err := household.EncodeSnapshot(store.Snapshot())
	if err != nil {
		logger.Error("snapshot encode failed", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("snapshot write failed", "path", path, "error", err)
		return
	}
	logger.Info("snapshot saved", "path", path)
}
