// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func oauth2Extension(t *testing.T, providers ...*ProviderConfig) *Extension {
	t.Helper()

	encoded, err := EncodeProviders(providers)
	require.NoError(t, err)

	return &Extension{
		Name: OAuth2ExtensionName,
		Config: map[string]string{
			ProvidersConfigKey: encoded,
		},
	}
}

func Test_ProviderConfigEditor_Add(t *testing.T) {
	editor := NewProviderConfigEditor(oauth2Extension(t))

	created, err := editor.Add(ProviderDraft{
		Type:         ProviderGitHub,
		Name:         "Login with GitHub",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AllowedOrg:   "kubelens",
	})
	require.NoError(t, err)
	require.Regexp(t, `^login-with-github-[a-z0-9]{6}$`, created.ID)
	require.Equal(t, ProviderGitHub, created.Type)
	require.Equal(t, "kubelens", created.AllowedOrg)

	providers := editor.Providers()
	require.Len(t, providers, 1)
	require.Equal(t, created.ID, providers[0].ID)
}

func Test_ProviderConfigEditor_Add_Invalid(t *testing.T) {
	editor := NewProviderConfigEditor(oauth2Extension(t))

	_, err := editor.Add(ProviderDraft{Type: ProviderOIDC})
	require.Error(t, err)

	var validationErr *ProviderValidationError
	require.True(t, errors.As(err, &validationErr))

	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}

	require.Contains(t, fields, "name")
	require.Contains(t, fields, "client_id")
	require.Contains(t, fields, "client_secret")
	require.Contains(t, fields, "issuer_url")

	// Nothing is created when validation fails.
	require.Len(t, editor.Providers(), 0)
}

func Test_ProviderConfigEditor_Add_IssuerRequiredForOIDCOnly(t *testing.T) {
	editor := NewProviderConfigEditor(oauth2Extension(t))

	_, err := editor.Add(ProviderDraft{
		Type:         ProviderGoogle,
		Name:         "Google",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.NoError(t, err)

	_, err = editor.Add(ProviderDraft{
		Type:         ProviderOIDC,
		Name:         "Corp",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.Error(t, err)

	_, err = editor.Add(ProviderDraft{
		Type:         ProviderOIDC,
		Name:         "Corp",
		ClientID:     "id",
		ClientSecret: "secret",
		IssuerURL:    "https://id.corp.example.com",
	})
	require.NoError(t, err)
}

func Test_ProviderConfigEditor_Update_KeepsID(t *testing.T) {
	existing := &ProviderConfig{
		ID:           "corp-sso-abc123",
		Type:         ProviderGoogle,
		Name:         "Corp SSO",
		ClientID:     "id",
		ClientSecret: "secret",
	}

	editor := NewProviderConfigEditor(oauth2Extension(t, existing))

	updated, err := editor.Update("corp-sso-abc123", ProviderDraft{
		Type:         ProviderGoogle,
		Name:         "Corporate Single Sign On",
		ClientID:     "new-id",
		ClientSecret: "new-secret",
	})
	require.NoError(t, err)

	// The id is permanent, renaming the provider must not change it.
	require.Equal(t, "corp-sso-abc123", updated.ID)
	require.Equal(t, "Corporate Single Sign On", updated.Name)
	require.Equal(t, "new-id", updated.ClientID)
}

func Test_ProviderConfigEditor_Update_TypeSwitchClearsFields(t *testing.T) {
	existing := &ProviderConfig{
		ID:           "corp-sso-abc123",
		Type:         ProviderOIDC,
		Name:         "Corp SSO",
		ClientID:     "id",
		ClientSecret: "secret",
		IssuerURL:    "https://id.corp.example.com",
	}

	editor := NewProviderConfigEditor(oauth2Extension(t, existing))

	updated, err := editor.Update("corp-sso-abc123", ProviderDraft{
		Type:         ProviderGitHub,
		Name:         "Corp SSO",
		ClientID:     "id",
		ClientSecret: "secret",
		IssuerURL:    "https://id.corp.example.com",
	})
	require.NoError(t, err)
	require.Empty(t, updated.IssuerURL, "issuer only applies to oidc providers")
}

func Test_ProviderConfigEditor_Update_NotFound(t *testing.T) {
	editor := NewProviderConfigEditor(oauth2Extension(t))

	_, err := editor.Update("missing-abc123", ProviderDraft{
		Type:         ProviderGoogle,
		Name:         "Google",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.ErrorIs(t, err, ErrProviderNotFound)
}

func Test_ProviderConfigEditor_Remove(t *testing.T) {
	existing := &ProviderConfig{
		ID:           "corp-sso-abc123",
		Type:         ProviderGoogle,
		Name:         "Corp SSO",
		ClientID:     "id",
		ClientSecret: "secret",
	}

	editor := NewProviderConfigEditor(oauth2Extension(t, existing))

	require.NoError(t, editor.Remove("corp-sso-abc123"))
	require.Len(t, editor.Providers(), 0)
	require.ErrorIs(t, editor.Remove("corp-sso-abc123"), ErrProviderNotFound)
}

func Test_ProviderConfigEditor_Values(t *testing.T) {
	t.Run("empty list encodes explicitly", func(t *testing.T) {
		editor := NewProviderConfigEditor(&Extension{Name: OAuth2ExtensionName})

		values, err := editor.Values()
		require.NoError(t, err)
		require.Equal(t, "[]", values[ProvidersConfigKey])
	})

	t.Run("other keys pass through", func(t *testing.T) {
		extension := &Extension{
			Name: OAuth2ExtensionName,
			Config: map[string]string{
				ProvidersConfigKey: "[]",
				"session_ttl":      "24h",
			},
		}

		editor := NewProviderConfigEditor(extension)
		_, err := editor.Add(ProviderDraft{
			Type:         ProviderMicrosoft,
			Name:         "Entra",
			ClientID:     "id",
			ClientSecret: "secret",
			Tenant:       "contoso.onmicrosoft.com",
		})
		require.NoError(t, err)

		values, err := editor.Values()
		require.NoError(t, err)
		require.Equal(t, "24h", values["session_ttl"])

		decoded := ParseProviders(values[ProvidersConfigKey])
		require.Len(t, decoded, 1)
		require.Equal(t, "contoso.onmicrosoft.com", decoded[0].Tenant)
	})

	t.Run("malformed stored list resets to empty", func(t *testing.T) {
		extension := &Extension{
			Name: OAuth2ExtensionName,
			Config: map[string]string{
				ProvidersConfigKey: "{corrupt",
			},
		}

		editor := NewProviderConfigEditor(extension)
		require.Len(t, editor.Providers(), 0)

		values, err := editor.Values()
		require.NoError(t, err)
		require.Equal(t, "[]", values[ProvidersConfigKey])
	})
}

func Test_ProviderConfigEditor_Get(t *testing.T) {
	existing := &ProviderConfig{
		ID:           "corp-sso-abc123",
		Type:         ProviderGoogle,
		Name:         "Corp SSO",
		ClientID:     "id",
		ClientSecret: "secret",
	}

	editor := NewProviderConfigEditor(oauth2Extension(t, existing))

	found, ok := editor.Get("corp-sso-abc123")
	require.True(t, ok)
	require.Equal(t, "Corp SSO", found.Name)

	_, ok = editor.Get("missing")
	require.False(t, ok)
}

func Test_ValidateProviderDraft_TypeRequired(t *testing.T) {
	err := validateProviderDraft(ProviderDraft{
		Name:         "No Type",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.Error(t, err)

	var validationErr *ProviderValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "type", validationErr.Issues[0].Field)

	err = validateProviderDraft(ProviderDraft{
		Type:         ProviderType("facebook"),
		Name:         "Bad Type",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.Error(t, err)
}
