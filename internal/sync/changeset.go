// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

// Changeset accumulates the writes of a run until finalize.
//
//   - Item: native columns of the local item (database.ItemColumns)
//   - Extra: auxiliary fields stored per item
//   - Link: device link bookkeeping columns (database.LinkColumns)
type Changeset struct {
	Item  map[string]interface{}
	Extra map[string]string
	Link  map[string]interface{}
}

// NewChangeset returns an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{
		Item:  make(map[string]interface{}),
		Extra: make(map[string]string),
		Link:  make(map[string]interface{}),
	}
}

// SetItem records a native item column.
func (c *Changeset) SetItem(column string, value interface{}) {
	c.Item[column] = value
}

// SetExtra records an auxiliary field.
func (c *Changeset) SetExtra(field, value string) {
	c.Extra[field] = value
}

// SetLink records a device link bookkeeping column.
func (c *Changeset) SetLink(column string, value interface{}) {
	c.Link[column] = value
}

// Merge copies o into c; o wins on conflicts.
func (c *Changeset) Merge(o *Changeset) {
	for k, v := range o.Item {
		c.Item[k] = v
	}
	for k, v := range o.Extra {
		c.Extra[k] = v
	}
	for k, v := range o.Link {
		c.Link[k] = v
	}
}

// Empty reports whether nothing was recorded.
func (c *Changeset) Empty() bool {
	return len(c.Item) == 0 && len(c.Extra) == 0 && len(c.Link) == 0
}
