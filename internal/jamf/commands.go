// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package jamf

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/tomtom215/jamfsync/internal/models"
)

// Command is an MDM command addressed to one or more devices of a category.
// Fields become extra <general> elements for mobile device commands (for
// example lost_mode_message); for computer commands only "passcode" is used.
// Each command accepts only the fields listed in commandFields.
type Command struct {
	Name      string            `json:"name" validate:"required"`
	DeviceIDs []int64           `json:"device_ids" validate:"required,min=1,dive,gt=0"`
	Fields    map[string]string `json:"fields,omitempty" validate:"omitempty,dive,keys,oneof=lost_mode_message lost_mode_phone lost_mode_footnote lost_mode_with_sound passcode,endkeys,max=1024"`
}

// ErrUnsupportedField is returned for a command field the command does not
// take.
var ErrUnsupportedField = errors.New("jamf: unsupported command field")

// commandPrivileges maps each supported command to the Jamf account
// privilege required to send it.
var commandPrivileges = map[string]map[string]string{
	models.CategoryMobileDevice: {
		"BlankPush":         "Send Blank Pushes to Mobile Devices",
		"UpdateInventory":   "Send Inventory Requests to Mobile Devices",
		"DeviceLock":        "Send Mobile Device Remote Lock Command",
		"ClearPasscode":     "Send Mobile Device Remove Passcode Command",
		"EraseDevice":       "Send Mobile Device Remote Wipe Command",
		"RestartDevice":     "Send Mobile Device Restart Device Command",
		"ShutDownDevice":    "Send Mobile Device Shut Down Command",
		"EnableLostMode":    "Send Mobile Device Lost Mode Command",
		"DisableLostMode":   "Send Mobile Device Lost Mode Command",
		"PlayLostModeSound": "Send Mobile Device Lost Mode Command",
		"UpdateLocation":    "Send Mobile Device Lost Mode Command",
	},
	models.CategoryComputer: {
		"BlankPush":      "Send Blank Pushes to Computers",
		"DeviceLock":     "Send Computer Remote Lock Command",
		"EraseDevice":    "Send Computer Remote Wipe Command",
		"UnmanageDevice": "Send Computer Unmanage Command",
	},
}

// commandFields lists the fields each command takes. Commands not listed
// take none.
var commandFields = map[string]map[string][]string{
	models.CategoryMobileDevice: {
		"EnableLostMode": {"lost_mode_message", "lost_mode_phone", "lost_mode_footnote", "lost_mode_with_sound"},
	},
	models.CategoryComputer: {
		"DeviceLock":  {"passcode"},
		"EraseDevice": {"passcode"},
	},
}

// CheckCommandFields rejects fields that command does not take for devices
// of category.
func CheckCommandFields(category, command string, fields map[string]string) error {
	allowed := commandFields[category][command]
	for name := range fields {
		found := false
		for _, a := range allowed {
			if a == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s %s does not take %q", ErrUnsupportedField, category, command, name)
		}
	}
	return nil
}

// RequiredPrivilege returns the privilege needed to send command to devices
// of category, and false when the command is not supported.
func RequiredPrivilege(category, command string) (string, bool) {
	priv, ok := commandPrivileges[category][command]
	return priv, ok
}

// xmlField is an arbitrary element inside <general>.
type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type mobileDeviceRef struct {
	ID int64 `xml:"id"`
}

// mobileDeviceCommand is the Classic API mobile device command document.
type mobileDeviceCommand struct {
	XMLName xml.Name `xml:"mobile_device_command"`
	General struct {
		Command string     `xml:"command"`
		Fields  []xmlField `xml:",any"`
	} `xml:"general"`
	Devices []mobileDeviceRef `xml:"mobile_devices>mobile_device"`
}

// MarshalMobileDeviceCommand renders cmd as a Classic API XML document.
// Extra fields are emitted in name order.
func MarshalMobileDeviceCommand(cmd Command) ([]byte, error) {
	if err := CheckCommandFields(models.CategoryMobileDevice, cmd.Name, cmd.Fields); err != nil {
		return nil, err
	}

	var doc mobileDeviceCommand
	doc.General.Command = cmd.Name

	names := make([]string, 0, len(cmd.Fields))
	for name := range cmd.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.General.Fields = append(doc.General.Fields, xmlField{XMLName: xml.Name{Local: name}, Value: cmd.Fields[name]})
	}
	for _, id := range cmd.DeviceIDs {
		doc.Devices = append(doc.Devices, mobileDeviceRef{ID: id})
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command %s: %w", cmd.Name, err)
	}
	return append([]byte(xml.Header), out...), nil
}

// SendCommand sends an MDM command. The server queues the command; a nil
// error means it was accepted, not that devices executed it.
func (c *Client) SendCommand(ctx context.Context, category string, cmd Command) error {
	if _, ok := RequiredPrivilege(category, cmd.Name); !ok {
		return fmt.Errorf("jamf: unsupported %s command %q", category, cmd.Name)
	}
	if len(cmd.DeviceIDs) == 0 {
		return fmt.Errorf("jamf: command %s has no target devices", cmd.Name)
	}
	if err := CheckCommandFields(category, cmd.Name, cmd.Fields); err != nil {
		return err
	}

	if category == models.CategoryMobileDevice {
		body, err := MarshalMobileDeviceCommand(cmd)
		if err != nil {
			return err
		}
		return c.do(ctx, requestConfig{
			method:      http.MethodPost,
			path:        "/JSSResource/mobiledevicecommands/command",
			body:        body,
			contentType: "text/xml",
		}, nil)
	}

	// Computer commands address one device per request in path form.
	for _, id := range cmd.DeviceIDs {
		path := "/JSSResource/computercommands/command/" + url.PathEscape(cmd.Name)
		if passcode := cmd.Fields["passcode"]; passcode != "" {
			path += "/passcode/" + url.PathEscape(passcode)
		}
		path += fmt.Sprintf("/id/%d", id)

		err := c.do(ctx, requestConfig{
			method:   http.MethodPost,
			path:     path,
			endpoint: "/JSSResource/computercommands/command/" + cmd.Name,
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}
