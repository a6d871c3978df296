// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
)

func newExtensionConfigCommand(options *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage an extension's configuration.",
		Long: heredoc.Doc(`
			Manage an extension's configuration.

			Values are edited locally and pushed to the server in one save. The
			federated login extension stores a structured identity provider
			list; edit it with 'kubelens extension provider' instead of raw
			keys.`),
	}

	configCmd.AddCommand(output.AddOutputParam(
		newExtensionConfigShowCommand(options),
		[]output.Format{output.NoneFormat, output.JsonFormat},
		output.NoneFormat,
	))
	configCmd.AddCommand(newExtensionConfigSetCommand(options))
	configCmd.AddCommand(newExtensionConfigUnsetCommand(options))

	return configCmd
}

func newExtensionConfigShowCommand(options *rootOptions) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an extension's configuration values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var catalog *extensions.Catalog
			if err := container.Resolve(&catalog); err != nil {
				return err
			}

			extension, err := catalog.Get(ctx, args[0])
			if err != nil {
				return err
			}

			session := extensions.NewConfigSession(extension)

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				values, err := session.Values()
				if err != nil {
					return err
				}

				return formatter.Format(values, cmd.OutOrStdout(), nil)
			}

			if session.Mode() == extensions.ConfigModeProviders {
				providers := session.Providers().Providers()
				if len(providers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No identity providers configured.")
					return nil
				}

				for _, provider := range providers {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, id %s)\n", provider.Name, provider.Type, provider.ID)
				}

				return nil
			}

			editor := session.Generic()
			keys := editor.Keys()
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No configuration values set.")
				return nil
			}

			for _, key := range keys {
				value, _ := editor.Get(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			}

			return nil
		},
	}

	return showCmd
}

func newExtensionConfigSetCommand(options *rootOptions) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set <name> <key> <value>",
		Short: "Set a configuration value and save it to the server.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, key, value := args[0], args[1], args[2]

			return editGenericConfig(ctx, options, name, func(editor *extensions.GenericConfigEditor) {
				editor.Set(key, value)
			})
		},
	}

	return setCmd
}

func newExtensionConfigUnsetCommand(options *rootOptions) *cobra.Command {
	unsetCmd := &cobra.Command{
		Use:   "unset <name> <key>",
		Short: "Remove a configuration value and save the change to the server.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, key := args[0], args[1]

			return editGenericConfig(ctx, options, name, func(editor *extensions.GenericConfigEditor) {
				editor.Remove(key)
			})
		},
	}

	return unsetCmd
}

// editGenericConfig opens a config session for the named extension, applies
// the edit and saves the session back to the server.
func editGenericConfig(
	ctx context.Context,
	options *rootOptions,
	name string,
	edit func(editor *extensions.GenericConfigEditor),
) error {
	container := newContainer(options)

	var catalog *extensions.Catalog
	if err := container.Resolve(&catalog); err != nil {
		return err
	}

	var manager *extensions.Manager
	if err := container.Resolve(&manager); err != nil {
		return err
	}

	var console input.Console
	if err := container.Resolve(&console); err != nil {
		return err
	}

	extension, err := catalog.Get(ctx, name)
	if err != nil {
		return err
	}

	session := extensions.NewConfigSession(extension)
	editor := session.Generic()
	if editor == nil {
		return fmt.Errorf(
			"'%s' stores identity providers, edit them with 'kubelens extension provider'",
			name,
		)
	}

	edit(editor)

	if err := manager.SaveConfig(ctx, name, editor.Values()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	console.Message(ctx, output.WithSuccessFormat("Saved configuration of '%s'.", name))
	return nil
}
