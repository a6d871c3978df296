// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags every command inherits.
type rootOptions struct {
	endpoint string
	noPrompt bool
}

// NewRootCommand assembles the kubelens command tree.
func NewRootCommand() *cobra.Command {
	options := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "kubelens <command> [options]",
		Short: "Manage extensions of a Kubelens dashboard server.",
		Long: heredoc.Doc(`
			kubelens drives the extension runtime of a Kubelens dashboard server.

			It lists, inspects, installs, enables, disables and removes extensions,
			edits their configuration (including the identity providers of the
			federated login extension), and can load an extension's UI bundle into
			a local render surface for verification and development.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(
		&options.endpoint,
		"endpoint", "",
		"Management API endpoint. Defaults to KUBELENS_SERVER, then the stored server.endpoint setting.",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.noPrompt,
		"no-prompt", false,
		"Accept the default answer instead of prompting.",
	)

	rootCmd.AddCommand(newExtensionCommand(options))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(options))

	return rootCmd
}
