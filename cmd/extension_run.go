// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/ioc"
	"github.com/kubelens/kubelens/pkg/messaging"
	"github.com/kubelens/kubelens/pkg/microfrontend"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/kubelens/kubelens/pkg/spin"
	"github.com/spf13/cobra"
)

func newExtensionRunCommand(options *rootOptions) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Load an extension's UI bundle into a local render surface.",
		Long: heredoc.Doc(`
			Load an extension's UI bundle into a local render surface.

			The bundle's assets are fetched from the extension's declared asset
			base, the bundle executes once and its mount hook renders into a
			container printed on the console. Notifications the bundle raises
			stream to the console while the surface is up.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container := newContainer(options)

			var catalog *extensions.Catalog
			if err := container.Resolve(&catalog); err != nil {
				return err
			}

			var console input.Console
			if err := container.Resolve(&console); err != nil {
				return err
			}

			var service *messaging.Service
			if err := container.Resolve(&service); err != nil {
				return err
			}

			extension, err := catalog.Get(ctx, args[0])
			if err != nil {
				return err
			}

			loader, err := newLoaderFor(container, microfrontend.AssetSourceKindURL)
			if err != nil {
				return err
			}

			subscription, err := subscribeNotifications(ctx, service, console)
			if err != nil {
				return err
			}
			defer subscription.Close(ctx)

			instance := microfrontend.NewInstance(extension)

			spinner := spin.New(fmt.Sprintf("Loading %s", extension.Name))
			if err := spinner.Run(func() error {
				return loader.Load(ctx, instance)
			}); err != nil {
				return fmt.Errorf("failed to load extension '%s': %w", extension.Name, err)
			}

			renderInstance(ctx, console, instance)
			loader.Unload(ctx, instance)

			return nil
		},
	}

	return runCmd
}

// newLoaderFor assembles a loader from the container's shared document,
// registry and engine, with assets fetched through the given source kind.
func newLoaderFor(
	container *ioc.NestedContainer,
	kind microfrontend.AssetSourceKind,
) (*microfrontend.Loader, error) {
	var document *microfrontend.Document
	if err := container.Resolve(&document); err != nil {
		return nil, err
	}

	var registry *microfrontend.Registry
	if err := container.Resolve(&registry); err != nil {
		return nil, err
	}

	var engine microfrontend.Engine
	if err := container.Resolve(&engine); err != nil {
		return nil, err
	}

	var notifier microfrontend.Notifier
	if err := container.Resolve(&notifier); err != nil {
		return nil, err
	}

	var transport policy.Transporter
	if err := container.Resolve(&transport); err != nil {
		return nil, err
	}

	source, err := microfrontend.NewAssetSource(kind, transport, container)
	if err != nil {
		return nil, err
	}

	return microfrontend.NewLoader(document, registry, engine, source, notifier, nil), nil
}

// renderInstance prints the outcome of a load on the console, including the
// container's content when the bundle mounted.
func renderInstance(ctx context.Context, console input.Console, instance *microfrontend.Instance) {
	switch instance.State() {
	case microfrontend.StateNoUI:
		console.Message(ctx, fmt.Sprintf("Extension '%s' declares no UI.", instance.Extension()))
	case microfrontend.StateSelfRendering:
		console.Message(ctx, "Bundle executed (self-rendering, no mount hook).")
	case microfrontend.StateMounted:
		console.Message(ctx, output.WithHighLightFormat("[%s]", instance.Container().ID()))
		for _, line := range instance.Container().Lines() {
			console.Message(ctx, "  "+line)
		}
	}
}
