// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kubelens/kubelens/pkg/config"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kubelens client configuration.",
		Long: heredoc.Doc(`
			Manage kubelens client configuration.

			Values are stored in config.json under the user's config directory.
			The server.endpoint path selects the management API endpoint used
			when the --endpoint flag and KUBELENS_SERVER are unset.`),
	}

	configCmd.AddCommand(output.AddOutputParam(
		newConfigListCommand(),
		[]output.Format{output.JsonFormat},
		output.JsonFormat,
	))
	configCmd.AddCommand(output.AddOutputParam(
		newConfigGetCommand(),
		[]output.Format{output.JsonFormat},
		output.JsonFormat,
	))
	configCmd.AddCommand(newConfigSetCommand())
	configCmd.AddCommand(newConfigUnsetCommand())

	return configCmd
}

func newConfigListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := userConfigManager()
			cfg, err := manager.Load()
			if err != nil {
				return err
			}

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			return formatter.Format(cfg.Raw(), cmd.OutOrStdout(), nil)
		},
	}

	return listCmd
}

func newConfigGetCommand() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Get a configuration value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := userConfigManager()
			cfg, err := manager.Load()
			if err != nil {
				return err
			}

			path := args[0]
			value, ok := cfg.Get(path)
			if !ok {
				return fmt.Errorf("no value stored at path '%s'", path)
			}

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			return formatter.Format(value, cmd.OutOrStdout(), nil)
		},
	}

	return getCmd
}

func newConfigSetCommand() *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a configuration value.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := userConfigManager()
			cfg, err := manager.Load()
			if err != nil {
				return err
			}

			path, value := args[0], args[1]
			if err := cfg.Set(path, value); err != nil {
				return fmt.Errorf("failed to set '%s': %w", path, err)
			}

			return manager.Save(cfg)
		},
	}

	return setCmd
}

func newConfigUnsetCommand() *cobra.Command {
	unsetCmd := &cobra.Command{
		Use:   "unset <path>",
		Short: "Remove a configuration value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := userConfigManager()
			cfg, err := manager.Load()
			if err != nil {
				return err
			}

			path := args[0]
			if err := cfg.Unset(path); err != nil {
				return fmt.Errorf("failed to unset '%s': %w", path, err)
			}

			return manager.Save(cfg)
		},
	}

	return unsetCmd
}

func userConfigManager() config.UserConfigManager {
	return config.NewUserConfigManager(config.NewFileConfigManager(config.NewManager()))
}
