// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/jamfsync/internal/api"
	"github.com/tomtom215/jamfsync/internal/audit"
	"github.com/tomtom215/jamfsync/internal/auth"
	"github.com/tomtom215/jamfsync/internal/authz"
	"github.com/tomtom215/jamfsync/internal/backup"
	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/database"
	"github.com/tomtom215/jamfsync/internal/events"
	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/rules"
	"github.com/tomtom215/jamfsync/internal/supervisor"
	"github.com/tomtom215/jamfsync/internal/supervisor/services"
	"github.com/tomtom215/jamfsync/internal/sync"
	"github.com/tomtom215/jamfsync/internal/wal"
	"github.com/tomtom215/jamfsync/internal/websocket"
)

const (
	// checkpointInterval is how often the DuckDB WAL is folded into the database.
	checkpointInterval = time.Hour

	auditRetentionInterval = 24 * time.Hour
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	logging.Info().
		Str("jamf_url", cfg.Jamf.URL).
		Strs("categories", cfg.Sync.Categories).
		Bool("auto_import", cfg.Sync.AutoImport).
		Int("rules", len(cfg.Rules)).
		Str("db_path", cfg.Database.Path).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Checkpoint(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Final checkpoint failed")
		}
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	jamfClient := jamf.NewCircuitBreakerClient(&cfg.Jamf)
	if err := jamfClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to reach Jamf (jobs will retry)")
	} else {
		logging.Info().Msg("Connected to Jamf successfully")
	}

	evaluator, err := rules.NewCollection(cfg.Rules)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to compile import rules")
	}

	engine := sync.NewEngine(db, jamfClient, evaluator, cfg)
	defer engine.Close()

	watchRules(engine)

	var sinks []sync.EventSink
	pipeline := startEvents(cfg)
	if pipeline != nil {
		defer pipeline.Close()
		sinks = append(sinks, pipeline.Sink())
	}

	var hub *websocket.Hub
	if cfg.Server.Enabled {
		hub = websocket.NewHub()
		sinks = append(sinks, hub)
	}
	engine.SetEventSinks(sinks...)

	auditor := newAuditLogger(db, cfg)
	defer func() {
		if err := auditor.Close(); err != nil {
			logging.Warn().Err(err).Msg("Audit logger close failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Sync.TaskTimeout + 10*time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	addJobs(tree, engine, db, cfg)
	if pipeline != nil {
		pipeline.AddJobs(tree, &cfg.Events.WAL)
	}
	if auditor != nil && cfg.Audit.RetentionDays > 0 {
		tree.AddJobService(services.NewJobService("audit-retention", auditRetentionInterval, auditor.Cleanup).WithRunOnStart())
	}
	var backups api.Backups
	if manager := startBackups(tree, db, &cfg.Backup); manager != nil {
		backups = manager
	}

	if cfg.Server.Enabled {
		authn, enforcer := startAuth(&cfg.Auth)
		if enforcer != nil {
			defer enforcer.Close()
		}
		handler := api.NewHandler(engine, db, jamfClient).
			WithAudit(auditor).
			WithAuth(authn, enforcer).
			WithBackups(backups).
			WithEventStream(hub, cfg.Server.CORSOrigins)
		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           api.NewRouter(handler, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.Timeout,
			WriteTimeout:      cfg.Server.Timeout,
			IdleTimeout:       60 * time.Second,
		}
		tree.AddAPIService(services.NewWebSocketHubService(hub))
		tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
		logging.Info().Str("addr", server.Addr).Msg("Trigger API service added")
	} else {
		logging.Info().Msg("Trigger API disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("jamfsync stopped gracefully")
}

// addJobs registers the periodic jobs: discover and sync-due for every
// enabled category, plus the database checkpoint.
func addJobs(tree *supervisor.SupervisorTree, engine *sync.Engine, db *database.DB, cfg *config.Config) {
	for _, category := range engine.Categories() {
		tree.AddJobService(services.NewJobService("discover/"+category, cfg.Sync.DiscoverInterval,
			func(ctx context.Context) (int, error) { return engine.Discover(ctx, category) }).WithRunOnStart())
		tree.AddJobService(services.NewJobService("sync-due/"+category, cfg.Sync.JobInterval,
			func(ctx context.Context) (int, error) { return engine.SyncAll(ctx, category) }))
		logging.Info().Str("category", category).Msg("Discover and sync-due jobs added")
	}

	tree.AddJobService(services.NewJobService("checkpoint", checkpointInterval,
		func(ctx context.Context) (int, error) { return -1, db.Checkpoint(ctx) }))
}

// eventPipeline delivers device events to NATS, through the WAL when it is
// enabled.
type eventPipeline struct {
	bus      *events.Bus
	log      *wal.BadgerWAL
	replayer *wal.Replayer
}

// startEvents connects to NATS and opens the WAL. It returns nil when events
// are disabled or NATS cannot be reached; a WAL failure only costs
// durability.
func startEvents(cfg *config.Config) *eventPipeline {
	if !cfg.Events.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	bus, err := events.Start(ctx, &cfg.Events)
	if err != nil {
		logging.Error().Err(err).Msg("Device events unavailable, continuing without publishing")
		return nil
	}
	p := &eventPipeline{bus: bus}

	if cfg.Events.WAL.Enabled {
		walLog, err := wal.Open(&cfg.Events.WAL)
		if err != nil {
			logging.Error().Err(err).Msg("Event WAL unavailable, publishing without durability")
		} else {
			p.log = walLog
			p.replayer = wal.NewReplayer(walLog, bus.Publisher())
		}
	}

	logging.Info().
		Str("stream", cfg.Events.Stream).
		Bool("embedded", cfg.Events.Embedded).
		Bool("wal", p.log != nil).
		Msg("Device event publishing enabled")
	return p
}

// Sink is what the engine publishes to.
func (p *eventPipeline) Sink() sync.EventSink {
	if p.log != nil {
		return wal.NewDurablePublisher(p.log, p.bus.Publisher())
	}
	return p.bus.Publisher()
}

// AddJobs registers WAL replay and compaction.
func (p *eventPipeline) AddJobs(tree *supervisor.SupervisorTree, cfg *config.WALConfig) {
	if p.log == nil {
		return
	}
	tree.AddJobService(services.NewJobService("event-replay", cfg.RetryInterval, p.replayer.Replay).WithRunOnStart())
	tree.AddJobService(services.NewJobService("wal-compaction", cfg.CompactInterval, p.log.Compact))
}

// Close closes the WAL before the NATS connection.
func (p *eventPipeline) Close() {
	if p.log != nil {
		if err := p.log.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event WAL close failed")
		}
	}
	p.bus.Close()
}

// newAuditLogger opens the audit trail in the main database. It returns nil
// when auditing is disabled; a nil *audit.Logger is safe to use.
func newAuditLogger(db *database.DB, cfg *config.Config) *audit.Logger {
	if !cfg.Audit.Enabled {
		logging.Info().Msg("Audit trail disabled")
		return nil
	}
	store := audit.NewDuckDBStore(db.Conn())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.CreateTable(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create audit table")
	}
	logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Audit trail enabled")
	return audit.NewLogger(store, &audit.Config{
		Enabled:       true,
		RetentionDays: cfg.Audit.RetentionDays,
		BufferSize:    cfg.Audit.BufferSize,
		LogToStdout:   cfg.Audit.LogToStdout,
	})
}

// watchRules reloads the import rules when the config file changes.
func watchRules(engine *sync.Engine) {
	path := config.FilePath()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		next, err := config.LoadWithKoanf()
		if err != nil {
			logging.Error().Err(err).Str("path", path).Msg("Config reload failed, keeping current rules")
			return
		}
		evaluator, err := rules.NewCollection(next.Rules)
		if err != nil {
			logging.Error().Err(err).Msg("Rule compile failed, keeping current rules")
			return
		}
		engine.SetRules(evaluator)
		logging.Info().Int("rules", len(next.Rules)).Msg("Import rules reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}

// startBackups schedules the backup job. It returns nil when backups are
// disabled or the backup directory cannot be created.
func startBackups(tree *supervisor.SupervisorTree, db *database.DB, cfg *config.BackupConfig) *backup.Manager {
	if !cfg.Enabled {
		return nil
	}
	manager, err := backup.NewManager(cfg, db)
	if err != nil {
		logging.Error().Err(err).Msg("Backups unavailable")
		return nil
	}
	tree.AddJobService(services.NewJobService("backup", cfg.Interval, manager.Run))
	logging.Info().Str("dir", cfg.Dir).Dur("interval", cfg.Interval).Int("retain", cfg.Retain).Msg("Backup job added")
	return manager
}

// startAuth builds the API authenticator and, outside proxy mode, the
// authorization enforcer.
func startAuth(cfg *config.AuthConfig) (auth.Authenticator, *authz.Enforcer) {
	authn, err := auth.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure API authentication")
	}
	if authn.Name() == string(auth.ModeProxy) {
		logging.Info().Msg("API authentication delegated to the reverse proxy")
		return authn, nil
	}

	enforcer, err := authz.NewEnforcer(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load authorization policy")
	}
	logging.Info().Str("mode", authn.Name()).Str("policy", cfg.PolicyPath).Msg("API authentication enabled")
	return authn, enforcer
}
