// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// ExtensionAttributeSummary is an entry of the definition list.
type ExtensionAttributeSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ExtensionAttribute is a full extension attribute definition.
type ExtensionAttribute struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	DataType         string `json:"data_type"`
	Enabled          bool   `json:"enabled"`
	InventoryDisplay string `json:"inventory_display"`
	InputType        struct {
		Type string `json:"type"`
	} `json:"input_type"`
}

// ListExtensionAttributes returns the definition summaries of a category.
func (c *Client) ListExtensionAttributes(ctx context.Context, category string) ([]ExtensionAttributeSummary, error) {
	p, err := pathsFor(category)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	path := "/JSSResource/" + p.eaPath
	if err := c.doJSON(ctx, path, path, nil, &payload); err != nil {
		return nil, err
	}

	raw, ok := payload[p.eaList]
	if !ok {
		return nil, nil
	}
	var list []ExtensionAttributeSummary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p.eaList, err)
	}
	return list, nil
}

// GetExtensionAttribute returns one definition.
func (c *Client) GetExtensionAttribute(ctx context.Context, category string, id int64) (*ExtensionAttribute, error) {
	p, err := pathsFor(category)
	if err != nil {
		return nil, err
	}

	var payload map[string]*ExtensionAttribute
	path := fmt.Sprintf("/JSSResource/%s/id/%d", p.eaPath, id)
	if err := c.doJSON(ctx, path, "/JSSResource/"+p.eaPath+"/id/{id}", nil, &payload); err != nil {
		return nil, err
	}

	ea, ok := payload[p.eaRoot]
	if !ok || ea == nil {
		return nil, fmt.Errorf("jamf %s extension attribute %d: response has no %q object", category, id, p.eaRoot)
	}
	return ea, nil
}
