// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package events

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/logging"
)

// Bus owns the NATS side of event publishing: the optional embedded server,
// the management connection and the publisher.
type Bus struct {
	server    *EmbeddedServer
	conn      *natsgo.Conn
	publisher *Publisher
}

// Start brings up the server when embedded, ensures the stream and
// connects a publisher. On error everything started so far is stopped.
func Start(ctx context.Context, cfg *config.EventsConfig) (*Bus, error) {
	b := &Bus{}

	url := cfg.URL
	if cfg.Embedded {
		srv, err := NewEmbeddedServer(&ServerConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			StoreDir: cfg.StoreDir,
		})
		if err != nil {
			return nil, err
		}
		b.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Str("store_dir", cfg.StoreDir).Msg("Embedded NATS server started")
	}

	nc, err := natsgo.Connect(url,
		natsgo.Name("jamfsync"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := DefaultStreamConfig(cfg.Stream, cfg.SubjectPrefix)
	streamCfg.MaxAge = time.Duration(cfg.RetentionDays) * 24 * time.Hour
	stream, err := EnsureStream(ctx, js, &streamCfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	info := stream.CachedInfo()
	logging.Info().Str("stream", info.Config.Name).Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).Msg("JetStream stream ready")

	pub, err := NewNATSPublisher(DefaultPublisherConfig(url, cfg.SubjectPrefix), nil)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.publisher = pub
	return b, nil
}

// Publisher returns the device event publisher.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// Close stops the publisher, the connection and the embedded server, in
// that order.
func (b *Bus) Close() {
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event publisher close failed")
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
	}
}
