// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ConfigModeFor(t *testing.T) {
	require.Equal(t, ConfigModeProviders, ConfigModeFor(OAuth2ExtensionName))
	require.Equal(t, ConfigModeGeneric, ConfigModeFor("kubelens-metrics"))
	require.Equal(t, ConfigModeGeneric, ConfigModeFor(""))
}

func Test_ConfigSession_Generic(t *testing.T) {
	extension := &Extension{
		Name: "kubelens-metrics",
		Config: map[string]string{
			"endpoint": "http://prometheus:9090",
			"interval": "30s",
		},
	}

	session := NewConfigSession(extension)
	require.Equal(t, ConfigModeGeneric, session.Mode())
	require.NotNil(t, session.Generic())
	require.Nil(t, session.Providers())

	editor := session.Generic()
	editor.Set("interval", "10s")
	editor.Set("timeout", "5s")
	editor.Remove("endpoint")

	values, err := session.Values()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"interval": "10s",
		"timeout":  "5s",
	}, values)
}

func Test_ConfigSession_Providers(t *testing.T) {
	encoded, err := EncodeProviders([]*ProviderConfig{
		{
			ID:           "corp-sso-abc123",
			Type:         ProviderGoogle,
			Name:         "Corp SSO",
			ClientID:     "id",
			ClientSecret: "secret",
		},
	})
	require.NoError(t, err)

	extension := &Extension{
		Name: OAuth2ExtensionName,
		Config: map[string]string{
			ProvidersConfigKey: encoded,
			"session_ttl":      "24h",
		},
	}

	session := NewConfigSession(extension)
	require.Equal(t, ConfigModeProviders, session.Mode())
	require.Nil(t, session.Generic())
	require.NotNil(t, session.Providers())
	require.Len(t, session.Providers().Providers(), 1)

	// Keys other than the provider list pass through the session untouched.
	values, err := session.Values()
	require.NoError(t, err)
	require.Equal(t, "24h", values["session_ttl"])
	require.Equal(t, encoded, values[ProvidersConfigKey])
}

func Test_GenericConfigEditor(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{Name: "ext"})
		editor.Set("theme", "dark")

		value, ok := editor.Get("theme")
		require.True(t, ok)
		require.Equal(t, "dark", value)
	})

	t.Run("set overwrites existing value", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{
			Name:   "ext",
			Config: map[string]string{"theme": "light"},
		})
		editor.Set("theme", "dark")

		value, _ := editor.Get("theme")
		require.Equal(t, "dark", value)
	})

	t.Run("blank key is ignored", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{Name: "ext"})
		editor.Set("", "value")
		editor.Set("   ", "value")
		require.Empty(t, editor.Values())
	})

	t.Run("remove missing key is a no-op", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{Name: "ext"})
		editor.Remove("missing")
		require.Empty(t, editor.Values())
	})

	t.Run("keys are sorted", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{Name: "ext"})
		editor.Set("zebra", "1")
		editor.Set("alpha", "2")
		editor.Set("mango", "3")
		require.Equal(t, []string{"alpha", "mango", "zebra"}, editor.Keys())
	})

	t.Run("values returns a copy", func(t *testing.T) {
		editor := NewGenericConfigEditor(&Extension{
			Name:   "ext",
			Config: map[string]string{"theme": "light"},
		})

		values := editor.Values()
		values["theme"] = "mutated"

		current, _ := editor.Get("theme")
		require.Equal(t, "light", current)
	})

	t.Run("editing never mutates the source extension", func(t *testing.T) {
		extension := &Extension{
			Name:   "ext",
			Config: map[string]string{"theme": "light"},
		}

		editor := NewGenericConfigEditor(extension)
		editor.Set("theme", "dark")

		require.Equal(t, "light", extension.Config["theme"])
	})
}
