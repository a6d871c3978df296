// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/messaging"
	"github.com/kubelens/kubelens/pkg/microfrontend"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
)

// devDebounce is how long a reload waits for an editor's burst of file
// events to settle.
const devDebounce = 200 * time.Millisecond

func newExtensionDevCommand(options *rootOptions) *cobra.Command {
	devCmd := &cobra.Command{
		Use:   "dev <dir>",
		Short: "Run a local bundle directory and reload it on change.",
		Long: heredoc.Doc(`
			Run a local bundle directory and reload it on change.

			The directory is treated as the asset base of a synthetic extension,
			so a bundle can be developed without a server. An optional
			bundle.env file sets NAME, ROOT_ID and ASSETS, plus CONFIG_* entries
			that become the extension's configuration. Saving any file under
			the asset base reloads the bundle.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var console input.Console
			if err := container.Resolve(&console); err != nil {
				return err
			}

			var service *messaging.Service
			if err := container.Resolve(&service); err != nil {
				return err
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			manifest, err := readDevManifest(dir)
			if err != nil {
				return err
			}

			loader, err := newLoaderFor(container, microfrontend.AssetSourceKindFile)
			if err != nil {
				return err
			}

			subscription, err := subscribeNotifications(ctx, service, console)
			if err != nil {
				return err
			}
			defer subscription.Close(ctx)

			extension := manifest.extension()

			instance := microfrontend.NewInstance(extension)
			if err := loader.Load(ctx, instance); err != nil {
				return fmt.Errorf("failed to load bundle: %w", err)
			}

			renderInstance(ctx, console, instance)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Add(manifest.assetsDir); err != nil {
				return fmt.Errorf("failed to watch '%s': %w", manifest.assetsDir, err)
			}

			console.Message(ctx, fmt.Sprintf(
				"Watching %s for changes. Press Ctrl+C to stop.", manifest.assetsDir))

			for {
				select {
				case <-ctx.Done():
					// The command context is already cancelled, the unmount
					// hook still deserves a live one.
					loader.Unload(context.Background(), instance)
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}

					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
						continue
					}

					drainEvents(watcher)
					console.Message(ctx, fmt.Sprintf("Change detected: %s", filepath.Base(event.Name)))

					loader.Unload(ctx, instance)
					loader.Invalidate(manifest.name)

					instance = microfrontend.NewInstance(extension)
					if err := loader.Load(ctx, instance); err != nil {
						console.Message(ctx, output.WithErrorFormat("reload failed: %v", err))
						continue
					}

					renderInstance(ctx, console, instance)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}

					log.Printf("watcher error: %v", err)
				}
			}
		},
	}

	return devCmd
}

// devManifest describes the synthetic extension a bundle directory runs as.
type devManifest struct {
	name      string
	rootID    string
	assetsDir string
	config    map[string]string
}

// readDevManifest loads bundle.env from the directory. A missing file yields
// the defaults, the directory's name becomes the extension identity.
func readDevManifest(dir string) (*devManifest, error) {
	manifest := &devManifest{
		name:      filepath.Base(dir),
		rootID:    "extension-root",
		assetsDir: dir,
		config:    map[string]string{},
	}

	envPath := filepath.Join(dir, "bundle.env")
	values, err := godotenv.Read(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return manifest, nil
		}

		return nil, fmt.Errorf("reading '%s': %w", envPath, err)
	}

	for key, value := range values {
		switch key {
		case "NAME":
			manifest.name = value
		case "ROOT_ID":
			manifest.rootID = value
		case "ASSETS":
			manifest.assetsDir = filepath.Join(dir, value)
		default:
			if configKey, ok := strings.CutPrefix(key, "CONFIG_"); ok {
				manifest.config[strings.ToLower(configKey)] = value
			}
		}
	}

	return manifest, nil
}

func (m *devManifest) extension() *extensions.Extension {
	return &extensions.Extension{
		Name:    m.name,
		Version: "dev",
		Enabled: true,
		Status:  extensions.StatusRunning,
		Config:  m.config,
		UI: &extensions.UIDescriptor{
			AssetsURL: m.assetsDir,
			RootID:    m.rootID,
		},
	}
}

// drainEvents absorbs the burst of events an editor save produces so one
// save triggers one reload.
func drainEvents(watcher *fsnotify.Watcher) {
	timer := time.NewTimer(devDebounce)
	defer timer.Stop()

	for {
		select {
		case <-watcher.Events:
		case <-timer.C:
			return
		}
	}
}
