// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package authz

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/jamfsync/internal/cache"
	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const policyReloadInterval = 30 * time.Second

// Enforcer wraps a Casbin enforcer with a decision cache.
type Enforcer struct {
	enforcer    *casbin.SyncedEnforcer
	decisions   *cache.Cache[bool]
	defaultRole string
	fromFile    bool
}

// NewEnforcer loads the built-in model and either the built-in policy or the
// file at cfg.PolicyPath.
func NewEnforcer(cfg *config.AuthConfig) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	fromFile := cfg.PolicyPath != ""
	if fromFile {
		if _, err := os.Stat(cfg.PolicyPath); err != nil {
			return nil, fmt.Errorf("policy file: %w", err)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if fromFile {
		enforcer.StartAutoLoadPolicy(policyReloadInterval)
	}

	ttl := cfg.DecisionCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Enforcer{
		enforcer:    enforcer,
		decisions:   cache.New[bool](ttl, ttl),
		defaultRole: cfg.DefaultRole,
		fromFile:    fromFile,
	}, nil
}

// loadPolicy adds the p and g lines of a policy CSV.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	key := subject + "|" + object + "|" + action
	if allowed, ok := e.decisions.Get(key); ok {
		metrics.RecordAuthzDecision(action, allowed, true)
		return allowed, nil
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforce: %w", err)
	}
	e.decisions.Set(key, allowed)
	metrics.RecordAuthzDecision(action, allowed, false)
	return allowed, nil
}

// EnforceWithRoles allows the request if any role does. A caller without
// roles is treated as the configured default role.
func (e *Enforcer) EnforceWithRoles(roles []string, object, action string) (bool, error) {
	if len(roles) == 0 && e.defaultRole != "" {
		roles = []string{e.defaultRole}
	}
	for _, role := range roles {
		allowed, err := e.Enforce(role, object, action)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

// Close stops the policy reloader and the cache sweeper.
func (e *Enforcer) Close() {
	if e.fromFile {
		e.enforcer.StopAutoLoadPolicy()
	}
	e.decisions.Close()
}

// ActionForMethod maps an HTTP method to a policy action.
func ActionForMethod(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
