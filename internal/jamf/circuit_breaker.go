// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/jamfsync/internal/config"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
)

// CircuitBreakerClient wraps Client with a circuit breaker so an unavailable
// Jamf server fails fast instead of stalling every sync run.
//
// The breaker uses real time for its interval and timeout; tests exercise
// the wrapped client directly or drive the breaker with failing requests.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates a Jamf client with circuit breaker.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(cfg *config.JamfConfig) *CircuitBreakerClient {
	return newCircuitBreakerClient(NewClient(cfg), "jamf-api")
}

func newCircuitBreakerClient(client *Client, cbName string) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: isBreakerSuccess,

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// execute wraps a Jamf API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil && !isBreakerSuccess(err) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, err
}

// isBreakerSuccess treats a missing resource or a cancelled caller as a
// healthy server.
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// castResult type-checks the circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// State returns the breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Ping verifies connectivity with circuit breaker protection.
func (cbc *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx)
	})
	return err
}

// GetDevice fetches a device record with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetDevice(ctx context.Context, category string, id int64) (Record, error) {
	return castResult[Record](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetDevice(ctx, category, id)
	}))
}

// ListDevices lists devices with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListDevices(ctx context.Context, category string) ([]DeviceSummary, error) {
	return castResult[[]DeviceSummary](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListDevices(ctx, category)
	}))
}

// ListExtensionAttributes lists definitions with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListExtensionAttributes(ctx context.Context, category string) ([]ExtensionAttributeSummary, error) {
	return castResult[[]ExtensionAttributeSummary](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListExtensionAttributes(ctx, category)
	}))
}

// GetExtensionAttribute fetches a definition with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetExtensionAttribute(ctx context.Context, category string, id int64) (*ExtensionAttribute, error) {
	return castResult[*ExtensionAttribute](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetExtensionAttribute(ctx, category, id)
	}))
}

// SendCommand sends an MDM command with circuit breaker protection.
func (cbc *CircuitBreakerClient) SendCommand(ctx context.Context, category string, cmd Command) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.SendCommand(ctx, category, cmd)
	})
	return err
}

// GetAccountPrivileges fetches account privileges with circuit breaker
// protection.
func (cbc *CircuitBreakerClient) GetAccountPrivileges(ctx context.Context, username string) (*Privileges, error) {
	return castResult[*Privileges](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetAccountPrivileges(ctx, username)
	}))
}
