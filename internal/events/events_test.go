// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestDeviceEvent_Subject(t *testing.T) {
	tests := []struct {
		event *DeviceEvent
		want  string
	}{
		{NewDeviceEvent(DeviceSynced, "Computer", 1), "jamfsync.devices.computer.synced"},
		{NewDeviceEvent(DeviceQueued, "MobileDevice", 2), "jamfsync.devices.mobiledevice.queued"},
		{&DeviceEvent{Type: DeviceDeleted, Itemtype: "Phone"}, "jamfsync.devices.item.deleted"},
	}
	for _, tt := range tests {
		if got := tt.event.Subject("jamfsync.devices"); got != tt.want {
			t.Errorf("Subject() = %q, want %q", got, tt.want)
		}
	}
}

func TestDeviceEvent_Validate(t *testing.T) {
	ok := NewDeviceEvent(DeviceImported, "Computer", 7)
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if ok.SchemaVersion != SchemaVersion || ok.EventID == "" || ok.Timestamp.IsZero() {
		t.Errorf("NewDeviceEvent did not fill defaults: %+v", ok)
	}

	bad := []*DeviceEvent{
		{Type: DeviceSynced, Category: "Computer"},
		{EventID: "x", Type: "renamed", Category: "Computer"},
		{EventID: "x", Type: DeviceSynced},
	}
	for _, e := range bad {
		if _, err := Marshal(e); err == nil {
			t.Errorf("Marshal(%+v) should fail validation", e)
		}
	}
}

func TestPublisher_GoChannel(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := pubsub.Subscribe(ctx, "test.computer.synced")
	if err != nil {
		t.Fatal(err)
	}

	p := NewPublisher(pubsub, "test")
	event := NewDeviceEvent(DeviceSynced, "Computer", 42)
	event.Itemtype, event.ItemsID = "Computer", 7
	event.Tasks = map[string]string{"general": "OK", "security": "SKIPPED"}
	event.CorrelationID = "abc123"
	if err := p.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		if msg.UUID != event.EventID {
			t.Errorf("message uuid = %q, want event id", msg.UUID)
		}
		if msg.Metadata.Get("type") != "synced" || msg.Metadata.Get("correlation_id") != "abc123" {
			t.Errorf("metadata = %v", msg.Metadata)
		}
		got, err := Unmarshal(msg.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if got.JamfID != 42 || got.Tasks["security"] != "SKIPPED" {
			t.Errorf("payload = %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(ctx, NewDeviceEvent(DeviceSynced, "Computer", 1)); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish after Close = %v, want ErrPublisherClosed", err)
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("nats: no responders available for request")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisher_BreakerOpens(t *testing.T) {
	fp := &failingPublisher{}
	p := NewPublisher(fp, "test")

	var err error
	for i := 0; i < 6; i++ {
		err = p.Publish(context.Background(), NewDeviceEvent(DeviceQueued, "Computer", int64(i+1)))
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("sixth publish = %v, want open breaker", err)
	}
	if fp.calls != 5 {
		t.Errorf("underlying publisher called %d times, want 5", fp.calls)
	}
	if !strings.Contains(err.Error(), "publish queued event") {
		t.Errorf("error %q lacks context", err)
	}
}
