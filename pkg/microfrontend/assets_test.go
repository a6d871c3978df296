// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/kubelens/kubelens/pkg/ioc"
	"github.com/kubelens/kubelens/test/mocks/mockhttp"
	"github.com/stretchr/testify/require"
)

func Test_NewAssetSource(t *testing.T) {
	container := ioc.NewNestedContainer(nil)

	t.Run("url kind", func(t *testing.T) {
		source, err := NewAssetSource(AssetSourceKindURL, mockhttp.NewMockHttpClient(), container)
		require.NoError(t, err)
		require.IsType(t, &urlAssetSource{}, source)
	})

	t.Run("file kind", func(t *testing.T) {
		source, err := NewAssetSource(AssetSourceKindFile, nil, container)
		require.NoError(t, err)
		require.IsType(t, &fileAssetSource{}, source)
	})

	t.Run("registered custom kind", func(t *testing.T) {
		custom := &fakeSource{assets: map[string][]byte{}}
		ioc.RegisterNamedInstance[AssetSource](container, "recorded", custom)

		source, err := NewAssetSource(AssetSourceKind("recorded"), nil, container)
		require.NoError(t, err)
		require.Same(t, custom, source.(*fakeSource))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewAssetSource(AssetSourceKind("carrier-pigeon"), nil, container)
		require.ErrorIs(t, err, ErrAssetSourceKindInvalid)
		require.ErrorContains(t, err, "carrier-pigeon")
	})
}

func Test_URLAssetSource_Resolve(t *testing.T) {
	source := NewURLAssetSource(mockhttp.NewMockHttpClient())

	require.Equal(t,
		"https://assets.kubelens.dev/metrics/index.js",
		source.Resolve("https://assets.kubelens.dev/metrics", "index.js"),
	)
	require.Equal(t,
		"https://assets.kubelens.dev/metrics/index.js",
		source.Resolve("https://assets.kubelens.dev/metrics/", "index.js"),
	)
}

func Test_URLAssetSource_Fetch(t *testing.T) {
	location := "https://assets.kubelens.dev/metrics/index.js"

	t.Run("success", func(t *testing.T) {
		mockHttp := mockhttp.NewMockHttpClient()
		mockHttp.When(func(req *http.Request) bool {
			return req.Method == http.MethodGet && req.URL.String() == location
		}).Respond(http.StatusOK, "bundle contents")

		source := NewURLAssetSource(mockHttp)
		data, err := source.Fetch(context.Background(), location)

		require.NoError(t, err)
		require.Equal(t, "bundle contents", string(data))
	})

	t.Run("non 200 names location and status", func(t *testing.T) {
		mockHttp := mockhttp.NewMockHttpClient()
		mockHttp.When(func(req *http.Request) bool {
			return req.URL.String() == location
		}).Respond(http.StatusNotFound, "not here")

		source := NewURLAssetSource(mockHttp)
		_, err := source.Fetch(context.Background(), location)

		require.Error(t, err)
		require.ErrorContains(t, err, location)
		require.ErrorContains(t, err, "404")
	})

	t.Run("transport error is not retried", func(t *testing.T) {
		mockHttp := mockhttp.NewMockHttpClient()
		mockHttp.When(func(req *http.Request) bool {
			return true
		}).SetError(context.DeadlineExceeded)

		source := NewURLAssetSource(mockHttp)
		_, err := source.Fetch(context.Background(), location)

		require.Error(t, err)
		require.Len(t, mockHttp.Requests(), 1)
	})
}

func Test_FileAssetSource(t *testing.T) {
	source := NewFileAssetSource()
	dir := t.TempDir()

	location := source.Resolve(dir, "index.js")
	require.Equal(t, filepath.Join(dir, "index.js"), location)

	require.NoError(t, os.WriteFile(location, []byte("local bundle"), 0600))

	data, err := source.Fetch(context.Background(), location)
	require.NoError(t, err)
	require.Equal(t, "local bundle", string(data))

	_, err = source.Fetch(context.Background(), source.Resolve(dir, "missing.js"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
