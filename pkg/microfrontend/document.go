// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"sort"
	"sync"
)

// AssetKind distinguishes the two asset records a document tracks.
type AssetKind string

const (
	AssetStylesheet AssetKind = "stylesheet"
	AssetScript     AssetKind = "script"
)

// AssetRecord is one attached asset: which extension attached it, what kind
// it is and where it was loaded from.
type AssetRecord struct {
	Identity string
	Kind     AssetKind
	Location string
}

// Document models the host-wide shared asset state: at most one stylesheet
// and one script record per extension identity, never duplicated. Only the
// loader writes to it.
type Document struct {
	mu          sync.Mutex
	stylesheets map[string]AssetRecord
	scripts     map[string]AssetRecord
}

func NewDocument() *Document {
	return &Document{
		stylesheets: map[string]AssetRecord{},
		scripts:     map[string]AssetRecord{},
	}
}

// AttachStylesheet records the identity's stylesheet. Returns false when one
// is already attached, the existing record wins.
func (d *Document) AttachStylesheet(identity string, location string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.stylesheets[identity]; ok {
		return false
	}

	d.stylesheets[identity] = AssetRecord{
		Identity: identity,
		Kind:     AssetStylesheet,
		Location: location,
	}
	return true
}

// AttachScript records the identity's script. Returns false when one is
// already attached, the existing record wins.
func (d *Document) AttachScript(identity string, location string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.scripts[identity]; ok {
		return false
	}

	d.scripts[identity] = AssetRecord{
		Identity: identity,
		Kind:     AssetScript,
		Location: location,
	}
	return true
}

// HasScript reports whether the identity's script is already attached. This
// is the idempotence check that prevents a bundle from executing twice.
func (d *Document) HasScript(identity string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.scripts[identity]
	return ok
}

// HasStylesheet reports whether the identity's stylesheet is attached.
func (d *Document) HasStylesheet(identity string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.stylesheets[identity]
	return ok
}

// Remove drops the identity's asset records so the next load fetches and
// executes afresh. Used when a bundle changes on disk in development mode.
func (d *Document) Remove(identity string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.stylesheets, identity)
	delete(d.scripts, identity)
}

// Records returns a stable snapshot of every attached asset.
func (d *Document) Records() []AssetRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := make([]AssetRecord, 0, len(d.stylesheets)+len(d.scripts))
	for _, record := range d.stylesheets {
		records = append(records, record)
	}
	for _, record := range d.scripts {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Identity != records[j].Identity {
			return records[i].Identity < records[j].Identity
		}
		return records[i].Kind < records[j].Kind
	})

	return records
}
