// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"net/http"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/kubelens/kubelens/pkg/config"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/ioc"
	"github.com/kubelens/kubelens/pkg/messaging"
	"github.com/kubelens/kubelens/pkg/microfrontend"
	"github.com/kubelens/kubelens/pkg/microfrontend/bundle"
	"github.com/mattn/go-isatty"
)

// defaultEndpoint is where a locally running dashboard server listens.
const defaultEndpoint = "http://localhost:9000"

// newContainer registers every service the command tree resolves. Asset
// source kinds beyond url and file stay resolvable through the container's
// named registrations.
func newContainer(options *rootOptions) *ioc.NestedContainer {
	container := ioc.NewNestedContainer(nil)

	ioc.RegisterInstance[*rootOptions](container, options)
	ioc.RegisterInstance[policy.Transporter](container, http.DefaultClient)

	container.RegisterSingleton(config.NewManager)
	container.RegisterSingleton(config.NewFileConfigManager)
	container.RegisterSingleton(config.NewUserConfigManager)

	container.RegisterSingleton(func() input.Console {
		return input.NewConsole(
			options.noPrompt,
			isatty.IsTerminal(os.Stdout.Fd()),
			input.ConsoleHandles{
				Stdin:  os.Stdin,
				Stdout: os.Stdout,
				Stderr: os.Stderr,
			},
		)
	})

	container.RegisterSingleton(
		func(userConfig config.UserConfigManager, transport policy.Transporter) *extensions.ManagementClient {
			return extensions.NewManagementClient(resolveEndpoint(options, userConfig), transport)
		},
	)
	container.RegisterSingleton(extensions.NewCatalog)
	container.RegisterSingleton(extensions.NewManager)

	container.RegisterSingleton(messaging.NewService)
	container.RegisterSingleton(func(service *messaging.Service) microfrontend.Notifier {
		return newBusNotifier(service)
	})

	container.RegisterSingleton(microfrontend.NewDocument)
	container.RegisterSingleton(microfrontend.NewRegistry)
	container.RegisterSingleton(func() microfrontend.Engine {
		return bundle.NewEngine(nil)
	})

	return container
}

// resolveEndpoint picks the management endpoint: the --endpoint flag wins,
// then the KUBELENS_SERVER environment variable, then the stored
// server.endpoint setting.
func resolveEndpoint(options *rootOptions, userConfig config.UserConfigManager) string {
	if options.endpoint != "" {
		return options.endpoint
	}

	if endpoint := os.Getenv("KUBELENS_SERVER"); endpoint != "" {
		return endpoint
	}

	if cfg, err := userConfig.Load(); err == nil {
		if endpoint, ok := cfg.GetString("server.endpoint"); ok && endpoint != "" {
			return endpoint
		}
	}

	return defaultEndpoint
}
