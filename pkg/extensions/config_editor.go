// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"sort"
	"strings"
)

// ConfigMode discriminates how an extension's configuration is edited.
type ConfigMode string

const (
	// ConfigModeGeneric edits free-form key/value pairs.
	ConfigModeGeneric ConfigMode = "generic"

	// ConfigModeProviders edits the structured identity provider list of
	// the federated login extension.
	ConfigModeProviders ConfigMode = "providers"
)

// ConfigModeFor returns the editing mode for an extension identity.
func ConfigModeFor(name string) ConfigMode {
	if name == OAuth2ExtensionName {
		return ConfigModeProviders
	}

	return ConfigModeGeneric
}

// ConfigSession is a local editing session over an extension's
// configuration. Exactly one of the two editors is active, selected by the
// extension's identity. Edits accumulate locally and nothing reaches the
// server until the session's values are saved through the Manager.
type ConfigSession struct {
	extensionName string
	mode          ConfigMode
	generic       *GenericConfigEditor
	providers     *ProviderConfigEditor
}

// NewConfigSession opens an editing session seeded from the extension's
// current configuration.
func NewConfigSession(extension *Extension) *ConfigSession {
	session := &ConfigSession{
		extensionName: extension.Name,
		mode:          ConfigModeFor(extension.Name),
	}

	switch session.mode {
	case ConfigModeProviders:
		session.providers = NewProviderConfigEditor(extension)
	default:
		session.generic = NewGenericConfigEditor(extension)
	}

	return session
}

// ExtensionName returns the identity of the extension being edited.
func (s *ConfigSession) ExtensionName() string {
	return s.extensionName
}

// Mode returns the active editing mode.
func (s *ConfigSession) Mode() ConfigMode {
	return s.mode
}

// Generic returns the generic editor, or nil when the session edits
// providers.
func (s *ConfigSession) Generic() *GenericConfigEditor {
	return s.generic
}

// Providers returns the provider editor, or nil when the session edits
// generic values.
func (s *ConfigSession) Providers() *ProviderConfigEditor {
	return s.providers
}

// Values flattens the session into the key/value map the management API
// stores. Structured provider state serializes at this boundary and nowhere
// else.
func (s *ConfigSession) Values() (map[string]string, error) {
	switch s.mode {
	case ConfigModeProviders:
		return s.providers.Values()
	default:
		return s.generic.Values(), nil
	}
}

// GenericConfigEditor edits an extension's free-form key/value
// configuration.
type GenericConfigEditor struct {
	values map[string]string
}

// NewGenericConfigEditor seeds an editor from the extension's current
// configuration map.
func NewGenericConfigEditor(extension *Extension) *GenericConfigEditor {
	values := make(map[string]string, len(extension.Config))
	for key, value := range extension.Config {
		values[key] = value
	}

	return &GenericConfigEditor{values: values}
}

// Set stores a value. Keys are trimmed, an effectively blank key is a silent
// no-op and an existing key is overwritten.
func (e *GenericConfigEditor) Set(key, value string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}

	e.values[key] = value
}

// Remove deletes a key. Removing an absent key is a no-op.
func (e *GenericConfigEditor) Remove(key string) {
	delete(e.values, strings.TrimSpace(key))
}

// Get returns the value stored under key.
func (e *GenericConfigEditor) Get(key string) (string, bool) {
	value, ok := e.values[key]
	return value, ok
}

// Keys returns every configured key in sorted order.
func (e *GenericConfigEditor) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for key := range e.values {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

// Values returns a copy of the session's current key/value state.
func (e *GenericConfigEditor) Values() map[string]string {
	values := make(map[string]string, len(e.values))
	for key, value := range e.values {
		values[key] = value
	}

	return values
}
