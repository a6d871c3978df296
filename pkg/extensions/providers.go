// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"crypto/rand"
	"encoding/json"
	"log"
	"strings"
)

// OAuth2ExtensionName is the reserved identity of the federated login
// extension. Its configuration is a structured list of identity providers
// rather than free-form key/value pairs.
const OAuth2ExtensionName = "kubelens-oauth2"

// ProvidersConfigKey is the reserved key inside an extension's flat config
// map that holds the JSON encoded provider list.
const ProvidersConfigKey = "providers"

// ProviderType identifies the identity provider family.
type ProviderType string

const (
	ProviderGitHub    ProviderType = "github"
	ProviderGoogle    ProviderType = "google"
	ProviderGitLab    ProviderType = "gitlab"
	ProviderMicrosoft ProviderType = "microsoft"
	ProviderOIDC      ProviderType = "oidc"
)

// ProviderTypes lists every supported provider type, in display order.
var ProviderTypes = []ProviderType{
	ProviderGitHub,
	ProviderGoogle,
	ProviderGitLab,
	ProviderMicrosoft,
	ProviderOIDC,
}

// IsValid reports whether t is one of the supported provider types.
func (t ProviderType) IsValid() bool {
	for _, known := range ProviderTypes {
		if t == known {
			return true
		}
	}

	return false
}

// ProviderConfig is a single configured identity provider of the federated
// login extension.
type ProviderConfig struct {
	// ID is the permanent identifier of the provider. It is generated once
	// when the provider is created and never changes afterwards, external
	// systems register OAuth callback URLs against it.
	ID   string       `json:"id"`
	Type ProviderType `json:"type"`
	Name string       `json:"name"`

	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	// IssuerURL is required when Type is ProviderOIDC.
	IssuerURL string `json:"issuer_url,omitempty"`

	// AllowedDomain restricts google sign-ins to a hosted domain.
	AllowedDomain string `json:"allowed_domain,omitempty"`

	// Tenant restricts microsoft sign-ins to a directory tenant.
	Tenant string `json:"tenant,omitempty"`

	// AllowedOrg restricts github/gitlab sign-ins to an organization or
	// group.
	AllowedOrg string `json:"allowed_org,omitempty"`

	// BaseURL points gitlab sign-ins at a self-managed instance.
	BaseURL string `json:"base_url,omitempty"`
}

// ParseProviders decodes the provider list stored in an extension's config
// map. Absent or malformed payloads decode to an empty list: a broken stored
// value must never lock the user out of the editor.
func ParseProviders(raw string) []*ProviderConfig {
	if raw == "" {
		return []*ProviderConfig{}
	}

	var providers []*ProviderConfig
	if err := json.Unmarshal([]byte(raw), &providers); err != nil {
		log.Printf("discarding malformed provider list: %v", err)
		return []*ProviderConfig{}
	}

	if providers == nil {
		return []*ProviderConfig{}
	}

	return providers
}

// EncodeProviders encodes a provider list for storage in an extension's
// config map. An empty list encodes as "[]", not as an absent key, so the
// server always receives an explicit value.
func EncodeProviders(providers []*ProviderConfig) (string, error) {
	if providers == nil {
		providers = []*ProviderConfig{}
	}

	encoded, err := json.Marshal(providers)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

const (
	providerIDSuffixLength = 6
	providerSlugMaxLength  = 20
	idAlphabet             = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewProviderID builds the permanent identifier for a new provider: a slug
// of the display name plus a random six character suffix. Ids must be unique
// within the extension, the suffix is regenerated if it collides with one of
// the existing ids.
func NewProviderID(name string, existing ...string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		taken[id] = struct{}{}
	}

	slug := slugify(name)
	if slug == "" {
		slug = "provider"
	}

	for {
		id := slug + "-" + randomSuffix(providerIDSuffixLength)
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}

// slugify lowercases the name, replaces every run of characters outside
// [a-z0-9] with a single hyphen, trims leading and trailing hyphens and
// truncates to 20 characters.
func slugify(name string) string {
	var sb strings.Builder
	lastHyphen := false

	for _, r := range strings.ToLower(name) {
		isAllowed := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAllowed {
			sb.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			sb.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(sb.String(), "-")
	if len(slug) > providerSlugMaxLength {
		slug = strings.TrimRight(slug[:providerSlugMaxLength], "-")
	}

	return slug
}

func randomSuffix(length int) string {
	b := make([]byte, length)
	// rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)

	suffix := make([]byte, length)
	for i, v := range b {
		suffix[i] = idAlphabet[int(v)%len(idAlphabet)]
	}

	return string(suffix)
}
