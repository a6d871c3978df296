// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/kubelens/kubelens/pkg/ioc"
)

// AssetSourceKind selects how bundle assets are fetched.
type AssetSourceKind string

const (
	// AssetSourceKindURL serves assets over HTTP from the extension's
	// declared assets_url.
	AssetSourceKindURL AssetSourceKind = "url"

	// AssetSourceKindFile serves assets from a local directory, used by
	// development mode.
	AssetSourceKindFile AssetSourceKind = "file"
)

var ErrAssetSourceKindInvalid = errors.New("asset source kind is not supported")

// AssetSource locates and fetches bundle assets relative to an extension's
// asset base.
type AssetSource interface {
	// Resolve joins the asset base with an asset name into the location
	// Fetch understands. The location is also what error messages name.
	Resolve(base string, name string) string

	// Fetch returns the asset's contents.
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// NewAssetSource creates the asset source for the given kind. Unknown kinds
// fall back to a named container registration so hosts can plug in their
// own.
func NewAssetSource(kind AssetSourceKind, transport policy.Transporter, serviceLocator ioc.ServiceLocator) (AssetSource, error) {
	switch kind {
	case AssetSourceKindURL:
		return NewURLAssetSource(transport), nil
	case AssetSourceKindFile:
		return NewFileAssetSource(), nil
	default:
		var source AssetSource
		if err := serviceLocator.ResolveNamed(string(kind), &source); err != nil {
			return nil, fmt.Errorf("%w: '%s', %w", ErrAssetSourceKindInvalid, kind, err)
		}

		return source, nil
	}
}

type urlAssetSource struct {
	pipeline runtime.Pipeline
}

// NewURLAssetSource creates an AssetSource fetching over HTTP. Asset loads
// are single-shot, a failed fetch is reported to the user instead of being
// replayed.
func NewURLAssetSource(transport policy.Transporter) AssetSource {
	pipeline := runtime.NewPipeline("kubelens-assets", "1.0.0", runtime.PipelineOptions{}, &policy.ClientOptions{
		Transport: transport,
		Retry: policy.RetryOptions{
			MaxRetries: -1,
		},
	})

	return &urlAssetSource{pipeline: pipeline}
}

func (s *urlAssetSource) Resolve(base string, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + name
}

func (s *urlAssetSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := runtime.NewRequest(ctx, http.MethodGet, location)
	if err != nil {
		return nil, fmt.Errorf("creating asset request for '%s': %w", location, err)
	}

	res, err := s.pipeline.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for asset '%s': %w", location, err)
	}

	defer res.Body.Close()

	if !runtime.HasStatusCode(res, http.StatusOK) {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("asset '%s' returned status %d", location, res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading asset '%s': %w", location, err)
	}

	return data, nil
}

type fileAssetSource struct{}

// NewFileAssetSource creates an AssetSource reading from the local
// filesystem, the asset base is a directory path.
func NewFileAssetSource() AssetSource {
	return &fileAssetSource{}
}

func (s *fileAssetSource) Resolve(base string, name string) string {
	return filepath.Join(base, name)
}

func (s *fileAssetSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("reading asset '%s': %w", location, err)
	}

	return data, nil
}
