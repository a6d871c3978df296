// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kubelens/kubelens/pkg/extensions"
	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type providerFlags struct {
	extension string
}

// providerDraftFlags mirrors the editable fields of an identity provider.
// Type-specific fields are ignored for types they do not apply to.
type providerDraftFlags struct {
	providerType  string
	name          string
	clientID      string
	clientSecret  string
	issuerURL     string
	allowedDomain string
	tenant        string
	allowedOrg    string
	baseURL       string
}

func newExtensionProviderCommand(options *rootOptions) *cobra.Command {
	flags := &providerFlags{}
	providerCmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage the identity providers of the federated login extension.",
		Long: heredoc.Doc(`
			Manage the identity providers of the federated login extension.

			Providers keep a permanent id from the moment they are created.
			External OAuth applications register their callback URLs against
			that id, so updates never change it.`),
	}

	providerCmd.PersistentFlags().StringVar(
		&flags.extension,
		"extension",
		extensions.OAuth2ExtensionName,
		"Extension whose provider list is edited",
	)

	providerCmd.AddCommand(output.AddOutputParam(
		newProviderListCommand(options, flags),
		[]output.Format{output.TableFormat, output.JsonFormat},
		output.TableFormat,
	))
	providerCmd.AddCommand(newProviderAddCommand(options, flags))
	providerCmd.AddCommand(newProviderUpdateCommand(options, flags))
	providerCmd.AddCommand(newProviderRemoveCommand(options, flags))

	return providerCmd
}

// providerRow is the table projection of a provider for list output.
type providerRow struct {
	ID       string
	Type     string
	Name     string
	ClientID string
}

func newProviderListCommand(options *rootOptions, flags *providerFlags) *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the configured identity providers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, _, _, err := openProviderSession(ctx, options, flags.extension)
			if err != nil {
				return err
			}

			providers := session.Providers().Providers()

			formatter, err := output.GetFormatter(cmd)
			if err != nil {
				return err
			}

			if formatter.Kind() == output.JsonFormat {
				return formatter.Format(providers, cmd.OutOrStdout(), nil)
			}

			rows := make([]providerRow, 0, len(providers))
			for _, provider := range providers {
				rows = append(rows, providerRow{
					ID:       provider.ID,
					Type:     string(provider.Type),
					Name:     provider.Name,
					ClientID: provider.ClientID,
				})
			}

			tableOptions := output.TableFormatterOptions{
				Columns: []output.Column{
					{Heading: "ID", ValueTemplate: "{{.ID}}"},
					{Heading: "TYPE", ValueTemplate: "{{.Type}}"},
					{Heading: "NAME", ValueTemplate: "{{.Name}}"},
					{Heading: "CLIENT ID", ValueTemplate: "{{.ClientID}}"},
				},
			}

			return formatter.Format(rows, cmd.OutOrStdout(), tableOptions)
		},
	}

	return listCmd
}

func newProviderAddCommand(options *rootOptions, flags *providerFlags) *cobra.Command {
	draftFlags := &providerDraftFlags{}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an identity provider.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, manager, console, err := openProviderSession(ctx, options, flags.extension)
			if err != nil {
				return err
			}

			if draftFlags.clientSecret == "" {
				secret, err := console.Prompt(ctx, input.ConsoleOptions{
					Message:    "Client secret",
					IsPassword: true,
				})
				if err != nil {
					return err
				}

				draftFlags.clientSecret = secret
			}

			editor := session.Providers()
			provider, err := editor.Add(draftFlags.toDraft())
			if err != nil {
				return describeProviderError(ctx, console, err)
			}

			if err := saveProviderSession(ctx, manager, session); err != nil {
				return err
			}

			console.Message(ctx, output.WithSuccessFormat(
				"Added provider '%s' with id '%s'.", provider.Name, provider.ID))
			return nil
		},
	}

	bindProviderDraftFlags(addCmd.Flags(), draftFlags)

	return addCmd
}

func newProviderUpdateCommand(options *rootOptions, flags *providerFlags) *cobra.Command {
	draftFlags := &providerDraftFlags{}
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an identity provider, keeping its id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			session, manager, console, err := openProviderSession(ctx, options, flags.extension)
			if err != nil {
				return err
			}

			editor := session.Providers()
			existing, ok := editor.Get(id)
			if !ok {
				return fmt.Errorf("'%s' %w", id, extensions.ErrProviderNotFound)
			}

			draft := draftFromProvider(existing)
			draftFlags.applyChanged(cmd, &draft)

			updated, err := editor.Update(id, draft)
			if err != nil {
				return describeProviderError(ctx, console, err)
			}

			if err := saveProviderSession(ctx, manager, session); err != nil {
				return err
			}

			console.Message(ctx, output.WithSuccessFormat("Updated provider '%s'.", updated.ID))
			return nil
		},
	}

	bindProviderDraftFlags(updateCmd.Flags(), draftFlags)

	return updateCmd
}

func newProviderRemoveCommand(options *rootOptions, flags *providerFlags) *cobra.Command {
	removeCmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an identity provider.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			session, manager, console, err := openProviderSession(ctx, options, flags.extension)
			if err != nil {
				return err
			}

			if err := session.Providers().Remove(id); err != nil {
				return err
			}

			if err := saveProviderSession(ctx, manager, session); err != nil {
				return err
			}

			console.Message(ctx, output.WithSuccessFormat("Removed provider '%s'.", id))
			return nil
		},
	}

	return removeCmd
}

func bindProviderDraftFlags(flags *pflag.FlagSet, draft *providerDraftFlags) {
	flags.StringVar(&draft.providerType, "type", "",
		"Provider type (github, google, gitlab, microsoft, oidc)")
	flags.StringVar(&draft.name, "name", "", "Display name shown on the login page")
	flags.StringVar(&draft.clientID, "client-id", "", "OAuth client id")
	flags.StringVar(&draft.clientSecret, "client-secret", "",
		"OAuth client secret (prompted when omitted)")
	flags.StringVar(&draft.issuerURL, "issuer-url", "", "Issuer URL (oidc only)")
	flags.StringVar(&draft.allowedDomain, "allowed-domain", "", "Hosted domain restriction (google only)")
	flags.StringVar(&draft.tenant, "tenant", "", "Tenant restriction (microsoft only)")
	flags.StringVar(&draft.allowedOrg, "allowed-org", "", "Organization restriction (github and gitlab)")
	flags.StringVar(&draft.baseURL, "base-url", "", "Base URL of a self-hosted instance (gitlab only)")
}

func (f *providerDraftFlags) toDraft() extensions.ProviderDraft {
	return extensions.ProviderDraft{
		Type:          extensions.ProviderType(f.providerType),
		Name:          f.name,
		ClientID:      f.clientID,
		ClientSecret:  f.clientSecret,
		IssuerURL:     f.issuerURL,
		AllowedDomain: f.allowedDomain,
		Tenant:        f.tenant,
		AllowedOrg:    f.allowedOrg,
		BaseURL:       f.baseURL,
	}
}

// applyChanged overrides only the draft fields whose flags were set on the
// command line, so an update keeps every field it does not mention.
func (f *providerDraftFlags) applyChanged(cmd *cobra.Command, draft *extensions.ProviderDraft) {
	if cmd.Flags().Changed("type") {
		draft.Type = extensions.ProviderType(f.providerType)
	}
	if cmd.Flags().Changed("name") {
		draft.Name = f.name
	}
	if cmd.Flags().Changed("client-id") {
		draft.ClientID = f.clientID
	}
	if cmd.Flags().Changed("client-secret") {
		draft.ClientSecret = f.clientSecret
	}
	if cmd.Flags().Changed("issuer-url") {
		draft.IssuerURL = f.issuerURL
	}
	if cmd.Flags().Changed("allowed-domain") {
		draft.AllowedDomain = f.allowedDomain
	}
	if cmd.Flags().Changed("tenant") {
		draft.Tenant = f.tenant
	}
	if cmd.Flags().Changed("allowed-org") {
		draft.AllowedOrg = f.allowedOrg
	}
	if cmd.Flags().Changed("base-url") {
		draft.BaseURL = f.baseURL
	}
}

func draftFromProvider(provider *extensions.ProviderConfig) extensions.ProviderDraft {
	return extensions.ProviderDraft{
		Type:          provider.Type,
		Name:          provider.Name,
		ClientID:      provider.ClientID,
		ClientSecret:  provider.ClientSecret,
		IssuerURL:     provider.IssuerURL,
		AllowedDomain: provider.AllowedDomain,
		Tenant:        provider.Tenant,
		AllowedOrg:    provider.AllowedOrg,
		BaseURL:       provider.BaseURL,
	}
}

// openProviderSession resolves the services provider commands share and
// opens an editing session for the named extension. Extensions that store
// free-form key/value config are rejected here.
func openProviderSession(
	ctx context.Context,
	options *rootOptions,
	name string,
) (*extensions.ConfigSession, *extensions.Manager, input.Console, error) {
	container := newContainer(options)

	var catalog *extensions.Catalog
	if err := container.Resolve(&catalog); err != nil {
		return nil, nil, nil, err
	}

	var manager *extensions.Manager
	if err := container.Resolve(&manager); err != nil {
		return nil, nil, nil, err
	}

	var console input.Console
	if err := container.Resolve(&console); err != nil {
		return nil, nil, nil, err
	}

	extension, err := catalog.Get(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}

	session := extensions.NewConfigSession(extension)
	if session.Providers() == nil {
		return nil, nil, nil, fmt.Errorf(
			"'%s' does not store identity providers, edit it with 'kubelens extension config'",
			name,
		)
	}

	return session, manager, console, nil
}

func saveProviderSession(
	ctx context.Context,
	manager *extensions.Manager,
	session *extensions.ConfigSession,
) error {
	values, err := session.Values()
	if err != nil {
		return err
	}

	if err := manager.SaveConfig(ctx, session.ExtensionName(), values); err != nil {
		return fmt.Errorf("failed to save provider configuration: %w", err)
	}

	return nil
}

// describeProviderError prints each field-level issue of a validation error
// before returning a terse failure, so every offending flag is visible at
// once.
func describeProviderError(ctx context.Context, console input.Console, err error) error {
	var validationErr *extensions.ProviderValidationError
	if !errors.As(err, &validationErr) {
		return err
	}

	for _, issue := range validationErr.Issues {
		console.Message(ctx, output.WithErrorFormat("  %s: %s", issue.Field, issue.Message))
	}

	return errors.New("provider validation failed")
}
