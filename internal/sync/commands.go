// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/jamfsync/internal/jamf"
	"github.com/tomtom215/jamfsync/internal/logging"
	"github.com/tomtom215/jamfsync/internal/metrics"
	"github.com/tomtom215/jamfsync/internal/validation"
)

// ItemRef names a local item.
type ItemRef struct {
	Itemtype string `json:"itemtype" validate:"required,itemtype"`
	ID       int64  `json:"id" validate:"required,gt=0"`
}

// CommandRequest asks for an MDM command on linked local items. All items
// must be linked to devices of Category. Fields are limited to the ones the
// command takes.
type CommandRequest struct {
	Category string            `json:"category" validate:"required,category"`
	Command  string            `json:"command" validate:"required"`
	Items    []ItemRef         `json:"items" validate:"required,min=1,dive"`
	Fields   map[string]string `json:"fields,omitempty" validate:"omitempty,dive,keys,oneof=lost_mode_message lost_mode_phone lost_mode_footnote lost_mode_with_sound passcode,endkeys,max=1024"`
}

// SendCommand checks that username may send the command, resolves the items
// to Jamf ids and sends it. Account privileges are cached per user.
func (e *Engine) SendCommand(ctx context.Context, username string, req CommandRequest) error {
	if err := validation.ValidateStruct(&req); err != nil {
		return err
	}

	privilege, ok := jamf.RequiredPrivilege(req.Category, req.Command)
	if !ok {
		return fmt.Errorf("%w: %s for %s", ErrUnknownCommand, req.Command, req.Category)
	}
	if err := jamf.CheckCommandFields(req.Category, req.Command, req.Fields); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownCommand, err)
	}

	privs, err := e.accountPrivileges(ctx, username)
	if err != nil {
		return err
	}
	if !privs.Has(privilege) {
		metrics.CommandsSent.WithLabelValues(req.Category, req.Command, "denied").Inc()
		return fmt.Errorf("%w: %s lacks %q", ErrPermissionDenied, username, privilege)
	}

	ids := make([]int64, 0, len(req.Items))
	for _, ref := range req.Items {
		link, err := e.LookupLink(ctx, ref.Itemtype, ref.ID)
		if err != nil {
			return err
		}
		if link.Category != req.Category {
			return fmt.Errorf("%w: %s %d is a %s device", ErrUnsupportedItemtype, ref.Itemtype, ref.ID, link.Category)
		}
		ids = append(ids, link.JamfID)
	}

	cmd := jamf.Command{Name: req.Command, DeviceIDs: ids, Fields: req.Fields}
	if err := e.source.SendCommand(ctx, req.Category, cmd); err != nil {
		metrics.CommandsSent.WithLabelValues(req.Category, req.Command, "failed").Inc()
		return fmt.Errorf("send %s: %w", req.Command, err)
	}

	metrics.CommandsSent.WithLabelValues(req.Category, req.Command, "sent").Inc()
	logging.Ctx(ctx).Info().Str("user", username).Str("command", req.Command).
		Int("devices", len(ids)).Msg("MDM command sent")
	return nil
}

// accountPrivileges returns the cached privileges of username, fetching
// them from Jamf on a miss.
func (e *Engine) accountPrivileges(ctx context.Context, username string) (*jamf.Privileges, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: no user", ErrPermissionDenied)
	}
	if p, ok := e.privileges.Get(username); ok {
		return p, nil
	}

	p, err := e.source.GetAccountPrivileges(ctx, username)
	if errors.Is(err, jamf.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown Jamf account %s", ErrPermissionDenied, username)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch privileges of %s: %w", username, err)
	}
	e.privileges.Set(username, p)
	return p, nil
}
