// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package wal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	walWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jamfsync_wal_writes_total",
		Help: "Total number of device events written to the WAL",
	})

	walWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jamfsync_wal_write_failures_total",
		Help: "Total number of failed WAL writes",
	})

	walConfirmsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jamfsync_wal_confirms_total",
		Help: "Total number of WAL entries confirmed after a NATS acknowledgement",
	})

	walRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jamfsync_wal_retries_total",
		Help: "Total number of failed publish attempts recorded on WAL entries",
	})

	walReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamfsync_wal_replayed_total",
		Help: "WAL entries handled by replay by result",
	}, []string{"result"}) // published, failed, expired, max_retries

	walPendingEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jamfsync_wal_pending_entries",
		Help: "Current number of unacknowledged device events",
	})

	walDBSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jamfsync_wal_db_size_bytes",
		Help: "BadgerDB size in bytes",
	})

	walWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jamfsync_wal_write_latency_seconds",
		Help:    "WAL write latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	walEntriesCompacted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jamfsync_wal_entries_compacted_total",
		Help: "WAL entries removed by compaction by reason",
	}, []string{"reason"}) // confirmed, expired
)
