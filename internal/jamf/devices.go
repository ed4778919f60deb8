// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tomtom215/jamfsync/internal/models"
)

// categoryPaths holds the per-category API resource names.
type categoryPaths struct {
	classic   string // /JSSResource/{classic}/id/{id}
	root      string // root key of the Classic record payload
	inventory string // Jamf Pro API listing path
	eaPath    string // /JSSResource/{eaPath}
	eaList    string // root key of the definition list payload
	eaRoot    string // root key of the definition detail payload
}

var categories = map[string]categoryPaths{
	models.CategoryComputer: {
		classic:   "computers",
		root:      "computer",
		inventory: "/api/v1/computers-inventory",
		eaPath:    "computerextensionattributes",
		eaList:    "computer_extension_attributes",
		eaRoot:    "computer_extension_attribute",
	},
	models.CategoryMobileDevice: {
		classic:   "mobiledevices",
		root:      "mobile_device",
		inventory: "/api/v2/mobile-devices",
		eaPath:    "mobiledeviceextensionattributes",
		eaList:    "mobile_device_extension_attributes",
		eaRoot:    "mobile_device_extension_attribute",
	},
}

func pathsFor(category string) (categoryPaths, error) {
	p, ok := categories[category]
	if !ok {
		return categoryPaths{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return p, nil
}

// DeviceSummary is one entry of a device inventory listing.
type DeviceSummary struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	UDID            string `json:"udid"`
	Serial          string `json:"serial"`
	ModelIdentifier string `json:"model_identifier"`
}

// GetDevice fetches the full Classic record of one device. A missing device
// yields an error matching ErrNotFound.
func (c *Client) GetDevice(ctx context.Context, category string, id int64) (Record, error) {
	p, err := pathsFor(category)
	if err != nil {
		return nil, err
	}

	var payload map[string]Record
	path := fmt.Sprintf("/JSSResource/%s/id/%d", p.classic, id)
	if err := c.doJSON(ctx, path, "/JSSResource/"+p.classic+"/id/{id}", nil, &payload); err != nil {
		return nil, err
	}

	rec, ok := payload[p.root]
	if !ok || rec == nil {
		return nil, fmt.Errorf("jamf %s %d: response has no %q object", category, id, p.root)
	}
	return rec, nil
}

// page is one page of a Jamf Pro API listing.
type page[T any] struct {
	TotalCount int `json:"totalCount"`
	Results    []T `json:"results"`
}

// computerInventoryEntry is an entry of /api/v1/computers-inventory.
type computerInventoryEntry struct {
	ID      string `json:"id"`
	UDID    string `json:"udid"`
	General struct {
		Name string `json:"name"`
	} `json:"general"`
	Hardware struct {
		SerialNumber    string `json:"serialNumber"`
		ModelIdentifier string `json:"modelIdentifier"`
	} `json:"hardware"`
}

// mobileDeviceEntry is an entry of /api/v2/mobile-devices.
type mobileDeviceEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UDID            string `json:"udid"`
	SerialNumber    string `json:"serialNumber"`
	ModelIdentifier string `json:"modelIdentifier"`
}

// ListDevices returns every device of a category, following pagination
// until the reported total has been read.
func (c *Client) ListDevices(ctx context.Context, category string) ([]DeviceSummary, error) {
	p, err := pathsFor(category)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if category == models.CategoryComputer {
		query["section"] = []string{"GENERAL", "HARDWARE"}
		return paginate(ctx, c, p.inventory, query, func(e computerInventoryEntry) (DeviceSummary, error) {
			id, err := strconv.ParseInt(e.ID, 10, 64)
			return DeviceSummary{
				ID:              id,
				Name:            e.General.Name,
				UDID:            e.UDID,
				Serial:          e.Hardware.SerialNumber,
				ModelIdentifier: e.Hardware.ModelIdentifier,
			}, err
		})
	}
	return paginate(ctx, c, p.inventory, query, func(e mobileDeviceEntry) (DeviceSummary, error) {
		id, err := strconv.ParseInt(e.ID, 10, 64)
		return DeviceSummary{
			ID:              id,
			Name:            e.Name,
			UDID:            e.UDID,
			Serial:          e.SerialNumber,
			ModelIdentifier: e.ModelIdentifier,
		}, err
	})
}

// paginate walks a Jamf Pro API listing sorted by id.
func paginate[T any](
	ctx context.Context,
	c *Client,
	path string,
	query url.Values,
	convert func(T) (DeviceSummary, error),
) ([]DeviceSummary, error) {
	var out []DeviceSummary
	for pageNum := 0; ; pageNum++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(pageNum))
		q.Set("page-size", strconv.Itoa(c.pageSize))
		q.Set("sort", "id:asc")

		var pg page[T]
		if err := c.doJSON(ctx, path, path, q, &pg); err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", path, pageNum, err)
		}
		for _, e := range pg.Results {
			d, err := convert(e)
			if err != nil {
				return nil, fmt.Errorf("list %s: malformed device id: %w", path, err)
			}
			out = append(out, d)
		}

		if len(pg.Results) == 0 || len(out) >= pg.TotalCount {
			return out, nil
		}
	}
}
