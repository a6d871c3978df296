// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const cConfigFileName = "config.json"

// UserConfigManager loads and saves the per-user kubelens configuration
// stored under the user config directory.
type UserConfigManager interface {
	Save(Config) error
	Load() (Config, error)
}

type userConfigManager struct {
	manager FileConfigManager
}

// NewUserConfigManager creates a new UserConfigManager instance.
func NewUserConfigManager(fileConfigManager FileConfigManager) UserConfigManager {
	return &userConfigManager{
		manager: fileConfigManager,
	}
}

// Load reads the user configuration. A missing config file is not an error,
// an empty configuration is returned instead.
func (m *userConfigManager) Load() (Config, error) {
	configFilePath, err := userConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := m.manager.Load(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewEmptyConfig(), nil
		}

		return nil, fmt.Errorf("failed loading user configuration: %w", err)
	}

	return cfg, nil
}

// Save persists the user configuration.
func (m *userConfigManager) Save(c Config) error {
	configFilePath, err := userConfigFilePath()
	if err != nil {
		return err
	}

	if err := m.manager.Save(c, configFilePath); err != nil {
		return fmt.Errorf("failed saving user configuration: %w", err)
	}

	return nil
}

func userConfigFilePath() (string, error) {
	configDir, err := GetUserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed getting user config directory: %w", err)
	}

	return filepath.Join(configDir, cConfigFileName), nil
}
