// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"

	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
)

func newExtensionEnableCommand(options *rootOptions) *cobra.Command {
	enableCmd := &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable an installed extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var manager *extensions.Manager
			if err := container.Resolve(&manager); err != nil {
				return err
			}

			var console input.Console
			if err := container.Resolve(&console); err != nil {
				return err
			}

			name := args[0]
			if err := manager.Enable(ctx, name); err != nil {
				return fmt.Errorf("failed to enable extension: %w", err)
			}

			console.Message(ctx, output.WithSuccessFormat("Enabled extension '%s'.", name))
			return nil
		},
	}

	return enableCmd
}

func newExtensionDisableCommand(options *rootOptions) *cobra.Command {
	disableCmd := &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable an installed extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var manager *extensions.Manager
			if err := container.Resolve(&manager); err != nil {
				return err
			}

			var console input.Console
			if err := container.Resolve(&console); err != nil {
				return err
			}

			name := args[0]
			if err := manager.Disable(ctx, name); err != nil {
				return fmt.Errorf("failed to disable extension: %w", err)
			}

			console.Message(ctx, output.WithSuccessFormat("Disabled extension '%s'.", name))
			return nil
		},
	}

	return disableCmd
}

type uninstallFlags struct {
	force bool
}

func newExtensionUninstallCommand(options *rootOptions) *cobra.Command {
	flags := &uninstallFlags{}
	uninstallCmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an extension from the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var manager *extensions.Manager
			if err := container.Resolve(&manager); err != nil {
				return err
			}

			var console input.Console
			if err := container.Resolve(&console); err != nil {
				return err
			}

			name := args[0]
			if !flags.force {
				confirmed, err := console.Confirm(ctx, input.ConsoleOptions{
					Message:      fmt.Sprintf("Uninstall extension '%s'? This removes it from the server.", name),
					DefaultValue: false,
				})
				if err != nil {
					return err
				}

				if !confirmed {
					console.Message(ctx, "Uninstall cancelled.")
					return nil
				}
			}

			if err := manager.Uninstall(ctx, name); err != nil {
				return fmt.Errorf("failed to uninstall extension: %w", err)
			}

			console.Message(ctx, output.WithSuccessFormat("Uninstalled extension '%s'.", name))
			return nil
		},
	}

	uninstallCmd.Flags().BoolVar(&flags.force, "force", false, "Skip the confirmation prompt")

	return uninstallCmd
}
