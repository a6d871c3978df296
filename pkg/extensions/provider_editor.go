// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProviderNotFound = errors.New("identity provider not found")

// ProviderIssue is a single field-level validation finding.
type ProviderIssue struct {
	// Field is the JSON name of the offending field.
	Field string `json:"field"`
	// Message describes the validation issue.
	Message string `json:"message"`
}

// ProviderValidationError reports every field that failed validation, so a
// form can annotate all offending inputs at once.
type ProviderValidationError struct {
	Issues []ProviderIssue
}

func (e *ProviderValidationError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}

	return "invalid provider: " + strings.Join(messages, ", ")
}

// ProviderDraft carries the user-editable fields of a provider. The
// permanent id is never part of a draft: it is assigned at creation and
// survives every later edit.
type ProviderDraft struct {
	Type          ProviderType
	Name          string
	ClientID      string
	ClientSecret  string
	IssuerURL     string
	AllowedDomain string
	Tenant        string
	AllowedOrg    string
	BaseURL       string
}

// ProviderConfigEditor edits the identity provider list of the federated
// login extension. The structured list is decoded once when the session
// opens and re-encoded once when it saves. Any other keys present in the
// extension's config map pass through untouched.
type ProviderConfigEditor struct {
	providers []*ProviderConfig
	extra     map[string]string
}

// NewProviderConfigEditor seeds an editor from the extension's current
// configuration. A missing or malformed provider entry seeds an empty list,
// never an error.
func NewProviderConfigEditor(extension *Extension) *ProviderConfigEditor {
	editor := &ProviderConfigEditor{
		providers: []*ProviderConfig{},
		extra:     map[string]string{},
	}

	for key, value := range extension.Config {
		if key == ProvidersConfigKey {
			editor.providers = ParseProviders(value)
			continue
		}

		editor.extra[key] = value
	}

	return editor
}

// Providers returns the current provider list in stored order.
func (e *ProviderConfigEditor) Providers() []*ProviderConfig {
	providers := make([]*ProviderConfig, len(e.providers))
	copy(providers, e.providers)
	return providers
}

// Get returns the provider with the given id.
func (e *ProviderConfigEditor) Get(id string) (*ProviderConfig, bool) {
	for _, provider := range e.providers {
		if provider.ID == id {
			return provider, true
		}
	}

	return nil, false
}

// Add validates the draft and appends a new provider with a freshly
// generated permanent id. A failing draft leaves the session unchanged.
func (e *ProviderConfigEditor) Add(draft ProviderDraft) (*ProviderConfig, error) {
	if err := validateProviderDraft(draft); err != nil {
		return nil, err
	}

	existing := make([]string, 0, len(e.providers))
	for _, provider := range e.providers {
		existing = append(existing, provider.ID)
	}

	provider := draft.apply(&ProviderConfig{
		ID: NewProviderID(draft.Name, existing...),
	})

	e.providers = append(e.providers, provider)
	return provider, nil
}

// Update validates the draft and replaces the fields of the provider with
// the given id. The id itself never changes, external OAuth callback
// registrations depend on it. A failing draft leaves the session unchanged.
func (e *ProviderConfigEditor) Update(id string, draft ProviderDraft) (*ProviderConfig, error) {
	if err := validateProviderDraft(draft); err != nil {
		return nil, err
	}

	for i, provider := range e.providers {
		if provider.ID == id {
			updated := draft.apply(&ProviderConfig{ID: id})
			e.providers[i] = updated
			return updated, nil
		}
	}

	return nil, fmt.Errorf("'%s' %w", id, ErrProviderNotFound)
}

// Remove deletes the provider with the given id.
func (e *ProviderConfigEditor) Remove(id string) error {
	for i, provider := range e.providers {
		if provider.ID == id {
			e.providers = append(e.providers[:i], e.providers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("'%s' %w", id, ErrProviderNotFound)
}

// Values flattens the session back into the extension's key/value map. The
// provider list always serializes, an empty list stores as "[]" so the
// server receives an explicit value.
func (e *ProviderConfigEditor) Values() (map[string]string, error) {
	values := make(map[string]string, len(e.extra)+1)
	for key, value := range e.extra {
		values[key] = value
	}

	encoded, err := EncodeProviders(e.providers)
	if err != nil {
		return nil, fmt.Errorf("encoding provider list: %w", err)
	}

	values[ProvidersConfigKey] = encoded
	return values, nil
}

// apply copies the draft's fields onto target, blanking fields that do not
// apply to the draft's provider type so a type switch never leaves stale
// values behind.
func (d ProviderDraft) apply(target *ProviderConfig) *ProviderConfig {
	target.Type = d.Type
	target.Name = strings.TrimSpace(d.Name)
	target.ClientID = strings.TrimSpace(d.ClientID)
	target.ClientSecret = d.ClientSecret

	if d.Type == ProviderOIDC {
		target.IssuerURL = strings.TrimSpace(d.IssuerURL)
	}
	if d.Type == ProviderGoogle {
		target.AllowedDomain = strings.TrimSpace(d.AllowedDomain)
	}
	if d.Type == ProviderMicrosoft {
		target.Tenant = strings.TrimSpace(d.Tenant)
	}
	if d.Type == ProviderGitHub || d.Type == ProviderGitLab {
		target.AllowedOrg = strings.TrimSpace(d.AllowedOrg)
	}
	if d.Type == ProviderGitLab {
		target.BaseURL = strings.TrimSpace(d.BaseURL)
	}

	return target
}

func validateProviderDraft(draft ProviderDraft) error {
	var issues []ProviderIssue

	if draft.Type == "" {
		issues = append(issues, ProviderIssue{Field: "type", Message: "a provider type is required"})
	} else if !draft.Type.IsValid() {
		issues = append(issues, ProviderIssue{
			Field:   "type",
			Message: fmt.Sprintf("unsupported provider type '%s'", draft.Type),
		})
	}

	if strings.TrimSpace(draft.Name) == "" {
		issues = append(issues, ProviderIssue{Field: "name", Message: "a display name is required"})
	}

	if strings.TrimSpace(draft.ClientID) == "" {
		issues = append(issues, ProviderIssue{Field: "client_id", Message: "a client id is required"})
	}

	if draft.ClientSecret == "" {
		issues = append(issues, ProviderIssue{Field: "client_secret", Message: "a client secret is required"})
	}

	if draft.Type == ProviderOIDC && strings.TrimSpace(draft.IssuerURL) == "" {
		issues = append(issues, ProviderIssue{
			Field:   "issuer_url",
			Message: "an issuer URL is required for oidc providers",
		})
	}

	if len(issues) > 0 {
		return &ProviderValidationError{Issues: issues}
	}

	return nil
}
