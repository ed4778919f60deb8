// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

/*
Package rules evaluates import rules against discovered devices.

The sync engine only depends on the Evaluator interface. Collection is the
configuration-driven implementation: an ordered list of rules, each with
criteria over input fields and actions that assign output fields.

	rules:
	  - name: skip unmanaged
	    criteria:
	      - {field: managed, condition: is, pattern: "false"}
	    actions:
	      - {field: _import, value: "false"}

Assigning "false" to the _import field drops the device. With
Options.Recursive the collection re-runs against its own output until no
action changes anything, so a rule may react to a field another rule set.
*/
package rules
