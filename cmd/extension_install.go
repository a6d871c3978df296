// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kubelens/kubelens/pkg/async"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/kubelens/kubelens/pkg/spin"
	"github.com/spf13/cobra"
)

func newExtensionInstallCommand(options *rootOptions) *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install <archive>",
		Short: "Upload and install an extension archive on the server.",
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

			archivePath := args[0]
			archiveName := filepath.Base(archivePath)

			spinner := spin.New(fmt.Sprintf("Uploading %s", archiveName))
			if err := spinner.Start(); err != nil {
				return err
			}

			result, err := async.RunWithProgress(
				func(percent int) {
					spinner.Message(fmt.Sprintf("Uploading %s (%d%%)", archiveName, percent))
				},
				func(progress *async.Progress[int]) (*extensions.UploadResult, error) {
					return manager.Install(ctx, archivePath, progress)
				},
			)
			if err != nil {
				_ = spinner.StopFail()
				return fmt.Errorf("failed to install extension: %w", err)
			}

			_ = spinner.Stop()

			message := result.Message
			if message == "" {
				message = fmt.Sprintf("Installed %s.", archiveName)
			}

			console.Message(ctx, output.WithSuccessFormat("%s", message))
			console.Message(ctx, "New extensions start disabled. Enable one with 'kubelens extension enable <name>'.")

			return nil
		},
	}

	return installCmd
}
