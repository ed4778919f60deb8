// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/models"
)

// fakeJamf is a minimal Jamf server. Handlers registered on mux serve the
// API; the token endpoints are pre-registered and counted.
type fakeJamf struct {
	server      *httptest.Server
	mux         *http.ServeMux
	tokenCalls  atomic.Int32
	tokenValue  atomic.Value
	lastRequest atomic.Value
}

func newFakeJamf(t *testing.T) *fakeJamf {
	t.Helper()
	f := &fakeJamf{mux: http.NewServeMux()}
	f.tokenValue.Store("token-1")

	f.mux.HandleFunc("/api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.Method != http.MethodPost || !ok || user != "api" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.tokenCalls.Add(1)
		expires := time.Now().Add(30 * time.Minute).UTC().Format(time.RFC3339)
		_, _ = io.WriteString(w, `{"token":"`+f.tokenValue.Load().(string)+`","expires":"`+expires+`"}`)
	})
	f.mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil ||
			r.PostForm.Get("grant_type") != "client_credentials" ||
			r.PostForm.Get("client_id") != "cid" || r.PostForm.Get("client_secret") != "csecret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.tokenCalls.Add(1)
		_, _ = io.WriteString(w, `{"access_token":"oauth-token","expires_in":1199,"token_type":"Bearer"}`)
	})

	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeJamf) config() *config.JamfConfig {
	return &config.JamfConfig{
		URL:                f.server.URL + "/",
		Username:           "api",
		Password:           "secret",
		Timeout:            5 * time.Second,
		PageSize:           2,
		RateLimit:          1000,
		RateLimitBurst:     100,
		RateLimitFaultCode: "TOO_MANY_REQUESTS",
	}
}

func (f *fakeJamf) client() *Client {
	return NewClient(f.config())
}

// requireBearer rejects requests without the expected token.
func requireBearer(t *testing.T, want string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+want {
			t.Errorf("Authorization = %q, want Bearer %s", got, want)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

const computerRecord = `{"computer":{
  "general":{"id":1,"name":"CConardMBA","udid":"55900BDC-347C-58B1-D249-F32244B11D30",
    "serial_number":"C02Q7KHTGFWF","remote_management":{"managed":true},"supervised":false,
    "last_inventory_update_utc":"2019-12-11T15:08:46.340+0000","report_date_epoch":1576076926340},
  "location":{"username":"cconard","email_address":"cconard@example.com"},
  "extension_attributes":[{"id":1,"name":"Battery","type":"String","value":"Normal"}]
}}`

func TestClient_GetDevice(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computers/id/1", requireBearer(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = io.WriteString(w, computerRecord)
	}))

	rec, err := f.client().GetDevice(context.Background(), models.CategoryComputer, 1)
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got := rec.String("general.name"); got != "CConardMBA" {
		t.Errorf("general.name = %q", got)
	}
	if !rec.Bool("general.remote_management.managed") {
		t.Error("expected managed")
	}
	if got := rec.Time("general.last_inventory_update_utc"); got.Year() != 2019 || got.Month() != time.December {
		t.Errorf("last inventory = %v", got)
	}
	if eas := rec.Records("extension_attributes"); len(eas) != 1 || eas[0].String("value") != "Normal" {
		t.Errorf("extension_attributes = %v", eas)
	}
}

func TestClient_GetDeviceNotFound(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/mobiledevices/id/9", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The server has not found anything matching the request URI", http.StatusNotFound)
	})

	_, err := f.client().GetDevice(context.Background(), models.CategoryMobileDevice, 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("expected *StatusError 404, got %v", err)
	}
}

func TestClient_UnknownCategory(t *testing.T) {
	f := newFakeJamf(t)
	if _, err := f.client().GetDevice(context.Background(), "Printer", 1); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		retryAfter    string
		wantRateLimit bool
		wantNotFound  bool
	}{
		{"429", http.StatusTooManyRequests, "", "7", true, false},
		{"500 with fault code", http.StatusInternalServerError, `{"httpStatus":500,"errors":[{"code":"TOO_MANY_REQUESTS"}]}`, "", true, false},
		{"500 without fault code", http.StatusInternalServerError, "boom", "", false, false},
		{"400", http.StatusBadRequest, "bad", "", false, true},
		{"503", http.StatusServiceUnavailable, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeJamf(t)
			f.mux.HandleFunc("/JSSResource/computers/id/1", func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := f.client().GetDevice(context.Background(), models.CategoryComputer, 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrRateLimited); got != tt.wantRateLimit {
				t.Errorf("errors.Is(ErrRateLimited) = %v, want %v (%v)", got, tt.wantRateLimit, err)
			}
			if got := errors.Is(err, ErrNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v (%v)", got, tt.wantNotFound, err)
			}
			if tt.retryAfter != "" {
				var rl *RateLimitError
				if !errors.As(err, &rl) || rl.RetryAfter != 7*time.Second {
					t.Errorf("RetryAfter not parsed: %v", err)
				}
			}
		})
	}
}

func TestClient_TokenSharedAcrossGoroutines(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computers/id/1", requireBearer(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, computerRecord)
	}))
	c := f.client()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetDevice(context.Background(), models.CategoryComputer, 1); err != nil {
				t.Errorf("GetDevice: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.tokenCalls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	f := newFakeJamf(t)
	var calls atomic.Int32
	f.mux.HandleFunc("/JSSResource/computers/id/1", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Rotate the server-side token; the first one is now stale.
			f.tokenValue.Store("token-2")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, computerRecord)
	})

	if _, err := f.client().GetDevice(context.Background(), models.CategoryComputer, 1); err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if n := f.tokenCalls.Load(); n != 2 {
		t.Errorf("token endpoint called %d times, want 2", n)
	}
}

func TestClient_ClientCredentials(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computers/id/1", requireBearer(t, "oauth-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, computerRecord)
	}))

	cfg := f.config()
	cfg.Username, cfg.Password = "", ""
	cfg.ClientID, cfg.ClientSecret = "cid", "csecret"

	if _, err := NewClient(cfg).GetDevice(context.Background(), models.CategoryComputer, 1); err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
}

func TestClient_BadCredentials(t *testing.T) {
	f := newFakeJamf(t)
	cfg := f.config()
	cfg.Password = "wrong"

	err := NewClient(cfg).Ping(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_ListDevicesPaginates(t *testing.T) {
	f := newFakeJamf(t)
	pages := map[string]string{
		"0": `{"totalCount":5,"results":[
			{"id":"1","name":"iPad 1","udid":"u1","serialNumber":"s1","modelIdentifier":"iPad8,1"},
			{"id":"2","name":"iPhone 2","udid":"u2","serialNumber":"s2","modelIdentifier":"iPhone12,1"}]}`,
		"1": `{"totalCount":5,"results":[
			{"id":"3","name":"TV","udid":"u3","serialNumber":"s3","modelIdentifier":"AppleTV6,2"},
			{"id":"4","name":"iPad 4","udid":"u4","serialNumber":"s4","modelIdentifier":"iPad7,5"}]}`,
		"2": `{"totalCount":5,"results":[
			{"id":"5","name":"iPhone 5","udid":"u5","serialNumber":"s5","modelIdentifier":"iPhone10,4"}]}`,
	}
	var requested []string
	var mu sync.Mutex
	f.mux.HandleFunc("/api/v2/mobile-devices", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page-size") != "2" || q.Get("sort") != "id:asc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		mu.Lock()
		requested = append(requested, q.Get("page"))
		mu.Unlock()
		_, _ = io.WriteString(w, pages[q.Get("page")])
	})

	devices, err := f.client().ListDevices(context.Background(), models.CategoryMobileDevice)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 5 {
		t.Fatalf("len(devices) = %d, want 5", len(devices))
	}
	if len(requested) != 3 {
		t.Errorf("requested pages %v, want 3 pages", requested)
	}
	if d := devices[1]; d.ID != 2 || d.ModelIdentifier != "iPhone12,1" || d.UDID != "u2" {
		t.Errorf("devices[1] = %+v", d)
	}
}

func TestClient_ListComputersRequestsSections(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/api/v1/computers-inventory", func(w http.ResponseWriter, r *http.Request) {
		sections := r.URL.Query()["section"]
		if strings.Join(sections, ",") != "GENERAL,HARDWARE" {
			t.Errorf("section = %v", sections)
		}
		_, _ = io.WriteString(w, `{"totalCount":1,"results":[{"id":"1","udid":"U-1",
			"general":{"name":"CConardMBA"},"hardware":{"serialNumber":"C02Q","modelIdentifier":"MacBookAir8,1"}}]}`)
	})

	devices, err := f.client().ListDevices(context.Background(), models.CategoryComputer)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 1 || devices[0].Name != "CConardMBA" || devices[0].Serial != "C02Q" {
		t.Errorf("devices = %+v", devices)
	}
}

func TestClient_ListDevicesEmpty(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/api/v2/mobile-devices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalCount":0,"results":[]}`)
	})

	devices, err := f.client().ListDevices(context.Background(), models.CategoryMobileDevice)
	if err != nil || len(devices) != 0 {
		t.Errorf("ListDevices = %v, %v; want empty", devices, err)
	}
}

func TestClient_ExtensionAttributes(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/computerextensionattributes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"computer_extension_attributes":[{"id":1,"name":"Battery"},{"id":2,"name":"FileVault"}]}`)
	})
	f.mux.HandleFunc("/JSSResource/computerextensionattributes/id/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"computer_extension_attribute":{"id":1,"name":"Battery","enabled":true,
			"description":"Battery condition","data_type":"String","input_type":{"type":"script"},
			"inventory_display":"Extension Attributes"}}`)
	})

	c := f.client()
	list, err := c.ListExtensionAttributes(context.Background(), models.CategoryComputer)
	if err != nil {
		t.Fatalf("ListExtensionAttributes: %v", err)
	}
	if len(list) != 2 || list[1].Name != "FileVault" {
		t.Errorf("list = %+v", list)
	}

	ea, err := c.GetExtensionAttribute(context.Background(), models.CategoryComputer, 1)
	if err != nil {
		t.Fatalf("GetExtensionAttribute: %v", err)
	}
	if ea.DataType != "String" || ea.Description != "Battery condition" || ea.InputType.Type != "script" {
		t.Errorf("ea = %+v", ea)
	}
}

func TestClient_GetAccountPrivileges(t *testing.T) {
	f := newFakeJamf(t)
	f.mux.HandleFunc("/JSSResource/accounts/username/helpdesk", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"account":{"id":3,"name":"helpdesk","privilege_set":"Custom",
			"privileges":{"jss_objects":["Read Mobile Devices"],"jss_actions":["Send Mobile Device Lost Mode Command"]}}}`)
	})

	p, err := f.client().GetAccountPrivileges(context.Background(), "helpdesk")
	if err != nil {
		t.Fatalf("GetAccountPrivileges: %v", err)
	}
	if !p.Has("Send Mobile Device Lost Mode Command") {
		t.Error("expected lost mode privilege")
	}
	if p.Has("Send Mobile Device Remote Wipe Command") {
		t.Error("unexpected wipe privilege")
	}
}
