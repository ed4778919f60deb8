// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package supervisor runs the long-lived parts of jamfsync under suture v4.

The tree has two layers so a misbehaving job never takes the trigger API down
with it:

	RootSupervisor ("jamfsync")
	├── JobsSupervisor ("jobs-layer")
	│   ├── JobService "sync-due/Computer"
	│   ├── JobService "sync-due/MobileDevice"
	│   ├── JobService "discover/Computer"
	│   ├── JobService "discover/MobileDevice"
	│   ├── JobService "checkpoint"
	│   ├── JobService "audit-retention" (if AUDIT_ENABLED)
	│   ├── JobService "backup" (if BACKUP_ENABLED)
	│   ├── JobService "event-replay" (if EVENTS_ENABLED and WAL_ENABLED)
	│   └── JobService "wal-compaction" (if EVENTS_ENABLED and WAL_ENABLED)
	└── APISupervisor ("api-layer")
	    ├── WebSocketHubService (if HTTP_ENABLED)
	    └── HTTPServerService (if HTTP_ENABLED)

Each enabled category gets one sync-due job (every SYNC_JOB_INTERVAL) and one
discover job (every DISCOVER_INTERVAL). The engine refuses to run the same job
twice for one category, so a slow pass and the next tick never overlap.

Supervisor events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	for _, cat := range cfg.Sync.Categories {
	    tree.AddJobService(services.NewJobService("sync-due/"+cat, cfg.Sync.JobInterval,
	        func(ctx context.Context) (int, error) { return engine.SyncAll(ctx, cat) }))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
