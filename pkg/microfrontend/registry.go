// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"sort"
	"sync"
)

// Registry is the process-wide directory of executed bundles, keyed by
// extension identity. Each extension writes only its own key. The registry
// holds whatever the bundle registered, callers validate hook shape through
// the Module interface before invoking anything.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{
		modules: map[string]Module{},
	}
}

// Register stores the module under the extension's identity. Re-registering
// the same identity replaces the previous module, which happens when a
// bundle is re-executed in development mode.
func (r *Registry) Register(identity string, module Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[identity] = module
}

// Lookup returns the module registered for the identity.
func (r *Registry) Lookup(identity string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, ok := r.modules[identity]
	return module, ok
}

// Identities returns the sorted identities with a registered module.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := make([]string, 0, len(r.modules))
	for identity := range r.modules {
		identities = append(identities, identity)
	}

	sort.Strings(identities)
	return identities
}
