// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/tomtom215/jamfsync/internal/models"
)

func TestMarshalMobileDeviceCommand(t *testing.T) {
	body, err := MarshalMobileDeviceCommand(Command{
		Name:      "EnableLostMode",
		DeviceIDs: []int64{4, 7},
		Fields: map[string]string{
			"lost_mode_phone":   "555-0100",
			"lost_mode_message": "Return to IT",
		},
	})
	if err != nil {
		t.Fatalf("MarshalMobileDeviceCommand: %v", err)
	}

	s := string(body)
	want := `<mobile_device_command><general><command>EnableLostMode</command>` +
		`<lost_mode_message>Return to IT</lost_mode_message><lost_mode_phone>555-0100</lost_mode_phone></general>` +
		`<mobile_devices><mobile_device><id>4</id></mobile_device><mobile_device><id>7</id></mobile_device></mobile_devices>` +
		`</mobile_device_command>`
	if !strings.HasPrefix(s, xml.Header) {
		t.Errorf("missing XML header: %s", s)
	}
	if !strings.HasSuffix(s, want) {
		t.Errorf("body = %s\nwant suffix %s", s, want)
	}
}

func TestMarshalMobileDeviceCommand_RejectsFields(t *testing.T) {
	tests := []struct {
		command string
		field   string
	}{
		{"DeviceLock", "x>EraseDevice</x><command"},
		{"DeviceLock", "command"},
		{"EnableLostMode", "passcode"},
		{"BlankPush", "lost_mode_message"},
	}
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.field, func(t *testing.T) {
			body, err := MarshalMobileDeviceCommand(Command{
				Name:      tt.command,
				DeviceIDs: []int64{1},
				Fields:    map[string]string{tt.field: "y"},
			})
			if !errors.Is(err, ErrUnsupportedField) {
				t.Fatalf("error = %v, want ErrUnsupportedField", err)
			}
			if body != nil {
				t.Errorf("body = %s, want none", body)
			}
		})
	}
}

func TestCheckCommandFields(t *testing.T) {
	if err := CheckCommandFields(models.CategoryComputer, "DeviceLock", map[string]string{"passcode": "123456"}); err != nil {
		t.Errorf("computer lock passcode: %v", err)
	}
	if err := CheckCommandFields(models.CategoryComputer, "BlankPush", map[string]string{"passcode": "123456"}); !errors.Is(err, ErrUnsupportedField) {
		t.Errorf("blank push passcode = %v, want ErrUnsupportedField", err)
	}
	if err := CheckCommandFields(models.CategoryMobileDevice, "DeviceLock", nil); err != nil {
		t.Errorf("no fields: %v", err)
	}
}

func TestRequiredPrivilege(t *testing.T) {
	tests := []struct {
		category string
		command  string
		wantOK   bool
	}{
		{models.CategoryMobileDevice, "EnableLostMode", true},
		{models.CategoryMobileDevice, "UnmanageDevice", false},
		{models.CategoryComputer, "DeviceLock", true},
		{models.CategoryComputer, "EnableLostMode", false},
		{"Printer", "BlankPush", false},
	}
	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.command, func(t *testing.T) {
			priv, ok := RequiredPrivilege(tt.category, tt.command)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && priv == "" {
				t.Error("supported command without privilege")
			}
		})
	}
}

func TestClient_SendMobileDeviceCommand(t *testing.T) {
	f := newFakeJamf(t)
	var gotBody, gotType string
	f.mux.HandleFunc("/JSSResource/mobiledevicecommands/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody, gotType = string(b), r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `<?xml version="1.0"?><mobile_device_command><id>12</id></mobile_device_command>`)
	})

	err := f.client().SendCommand(context.Background(), models.CategoryMobileDevice, Command{Name: "BlankPush", DeviceIDs: []int64{3}})
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if gotType != "text/xml" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if !strings.Contains(gotBody, "<command>BlankPush</command>") || !strings.Contains(gotBody, "<id>3</id>") {
		t.Errorf("body = %s", gotBody)
	}
}

func TestClient_SendComputerCommand(t *testing.T) {
	f := newFakeJamf(t)
	var mu sync.Mutex
	var paths []string
	f.mux.HandleFunc("/JSSResource/computercommands/command/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	err := f.client().SendCommand(context.Background(), models.CategoryComputer, Command{
		Name:      "DeviceLock",
		DeviceIDs: []int64{1, 2},
		Fields:    map[string]string{"passcode": "123456"},
	})
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	want := []string{
		"/JSSResource/computercommands/command/DeviceLock/passcode/123456/id/1",
		"/JSSResource/computercommands/command/DeviceLock/passcode/123456/id/2",
	}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestClient_SendCommandRejectsUnknown(t *testing.T) {
	f := newFakeJamf(t)
	err := f.client().SendCommand(context.Background(), models.CategoryComputer, Command{Name: "SelfDestruct", DeviceIDs: []int64{1}})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}
