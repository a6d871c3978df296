// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"
	"log"

	"github.com/kubelens/kubelens/internal"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/spf13/cobra"
)

type versionFlags struct {
	server bool
}

func newVersionCommand(options *rootOptions) *cobra.Command {
	flags := &versionFlags{}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of the kubelens CLI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "kubelens version %s\n", internal.GetVersionNumber())

			if !flags.server {
				return nil
			}

			container := newContainer(options)

			var client *extensions.ManagementClient
			if err := container.Resolve(&client); err != nil {
				return err
			}

			info, err := client.ServerVersion(cmd.Context())
			if err != nil {
				log.Printf("Warning: could not read server version: %v", err)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "server version %s\n", info.Version)
			return nil
		},
	}

	versionCmd.Flags().BoolVar(&flags.server, "server", false, "Also print the dashboard server's version")

	return versionCmd
}
