// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
)

func newExtensionCommand(options *rootOptions) *cobra.Command {
	extensionCmd := &cobra.Command{
		Use:   "extension",
		Short: "Manage extensions installed on the dashboard server.",
		Long: heredoc.Doc(`
			Manage extensions installed on the dashboard server.

			Extensions are listed, inspected and controlled through the server's
			management API. Lifecycle changes (enable, disable, uninstall) take
			effect on the server immediately.`),
	}

	extensionCmd.AddCommand(output.AddOutputParam(
		newExtensionListCommand(options),
		[]output.Format{output.TableFormat, output.JsonFormat},
		output.TableFormat,
	))
	extensionCmd.AddCommand(output.AddOutputParam(
		newExtensionShowCommand(options),
		[]output.Format{output.NoneFormat, output.JsonFormat},
		output.NoneFormat,
	))
	extensionCmd.AddCommand(newExtensionInstallCommand(options))
	extensionCmd.AddCommand(newExtensionEnableCommand(options))
	extensionCmd.AddCommand(newExtensionDisableCommand(options))
	extensionCmd.AddCommand(newExtensionUninstallCommand(options))
	extensionCmd.AddCommand(newExtensionConfigCommand(options))
	extensionCmd.AddCommand(newExtensionProviderCommand(options))
	extensionCmd.AddCommand(newExtensionRunCommand(options))
	extensionCmd.AddCommand(newExtensionDevCommand(options))

	return extensionCmd
}

// extensionRow is the table projection of an extension for list output.
type extensionRow struct {
	Name    string
	Version string
	Status  string
	Enabled string
	UI      string
	Notes   string
}

func newExtensionListCommand(options *rootOptions) *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the extensions installed on the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var catalog *extensions.Catalog
			if err := container.Resolve(&catalog); err != nil {
				return err
			}

			entries, err := catalog.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list extensions: %w", err)
			}

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(entries, cmd.OutOrStdout(), nil)
			}

			var client *extensions.ManagementClient
			if err := container.Resolve(&client); err != nil {
				return err
			}

			notes := compatibilityNotes(ctx, client, entries)
			rows := make([]extensionRow, 0, len(entries))
			for _, extension := range entries {
				rows = append(rows, extensionRow{
					Name:    extension.Name,
					Version: extension.Version,
					Status:  string(extension.Status),
					Enabled: boolLabel(extension.Enabled),
					UI:      boolLabel(extension.HasUI()),
					Notes:   notes[extension.Name],
				})
			}

			tableOptions := output.TableFormatterOptions{
				Columns: []output.Column{
					{Heading: "NAME", ValueTemplate: "{{.Name}}"},
					{Heading: "VERSION", ValueTemplate: "{{.Version}}"},
					{Heading: "STATUS", ValueTemplate: "{{.Status}}", Transformer: colorizeStatus},
					{Heading: "ENABLED", ValueTemplate: "{{.Enabled}}"},
					{Heading: "UI", ValueTemplate: "{{.UI}}"},
					{Heading: "NOTES", ValueTemplate: "{{.Notes}}"},
				},
			}

			return formatter.Format(rows, cmd.OutOrStdout(), tableOptions)
		},
	}

	return listCmd
}

func newExtensionShowCommand(options *rootOptions) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the details of an installed extension.",
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

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(extension, cmd.OutOrStdout(), nil)
			}

			for _, line := range describeExtension(extension) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			return nil
		},
	}

	return showCmd
}

// compatibilityNotes maps extension names to a human readable warning when
// the server's version does not satisfy their declared minimum. A server
// that cannot report its version degrades to no notes rather than an error.
func compatibilityNotes(
	ctx context.Context,
	client *extensions.ManagementClient,
	entries []*extensions.Extension,
) map[string]string {
	info, err := client.ServerVersion(ctx)
	if err != nil {
		log.Printf("Warning: could not read server version: %v", err)
		return map[string]string{}
	}

	report := extensions.CheckCompatibility(entries, info.Version)
	notes := make(map[string]string, len(report.Incompatible))
	for name, minVersion := range report.Incompatible {
		notes[name] = fmt.Sprintf("requires server >= %s", minVersion)
	}

	return notes
}

func describeExtension(extension *extensions.Extension) []string {
	lines := []string{
		fmt.Sprintf("Name        : %s", extension.Name),
		fmt.Sprintf("Version     : %s", extension.Version),
	}

	if extension.Author != "" {
		lines = append(lines, fmt.Sprintf("Author      : %s", extension.Author))
	}
	if extension.Description != "" {
		lines = append(lines, fmt.Sprintf("Description : %s", extension.Description))
	}

	lines = append(lines,
		fmt.Sprintf("Status      : %s", colorizeStatus(string(extension.Status))),
		fmt.Sprintf("Enabled     : %s", boolLabel(extension.Enabled)),
	)

	if extension.MinServerVersion != "" {
		lines = append(lines, fmt.Sprintf("Min server  : %s", extension.MinServerVersion))
	}
	if len(extension.Permissions) > 0 {
		lines = append(lines, fmt.Sprintf("Permissions : %s", strings.Join(extension.Permissions, ", ")))
	}

	if extension.HasUI() {
		lines = append(lines, fmt.Sprintf("UI assets   : %s", extension.UI.AssetsURL))
		if extension.UI.RootID != "" {
			lines = append(lines, fmt.Sprintf("UI root     : %s", extension.UI.RootID))
		}
	} else {
		lines = append(lines, "UI          : none (headless)")
	}

	lines = append(lines, describeConfig(extension)...)
	return lines
}

func describeConfig(extension *extensions.Extension) []string {
	if len(extension.Config) == 0 {
		return nil
	}

	session := extensions.NewConfigSession(extension)
	if session.Mode() == extensions.ConfigModeProviders {
		providers := session.Providers().Providers()
		lines := []string{fmt.Sprintf("Providers   : %d configured", len(providers))}
		for _, provider := range providers {
			lines = append(lines, fmt.Sprintf("  %s (%s, id %s)", provider.Name, provider.Type, provider.ID))
		}

		return lines
	}

	editor := session.Generic()
	lines := []string{"Config      :"}
	for _, key := range editor.Keys() {
		value, _ := editor.Get(key)
		lines = append(lines, fmt.Sprintf("  %s = %s", key, value))
	}

	return lines
}

func colorizeStatus(value string) string {
	switch extensions.Status(value) {
	case extensions.StatusRunning:
		return output.WithSuccessFormat(value)
	case extensions.StatusError:
		return output.WithErrorFormat(value)
	default:
		return output.WithGrayFormat(value)
	}
}

func boolLabel(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}
