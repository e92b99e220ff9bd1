package tree_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downloadURL = "https://my-crates-server.com/api/v1/crates/{crate}/{version}/download"

func TestConfig(t *testing.T) {
	t.Parallel()

	t.Run("simple config should only contain dl", func(t *testing.T) {
		t.Parallel()

		cfg, err := tree.NewConfig(downloadURL, tree.ConfigOptions{})
		require.NoError(t, err)

		expected := "{\n  \"dl\": \"" + downloadURL + "\"\n}"
		assert.Equal(t, expected, cfg.String())

		_, ok := cfg.API()
		assert.False(t, ok)
		assert.Empty(t, cfg.AllowedRegistries())
	})

	t.Run("full config should contain everything", func(t *testing.T) {
		t.Parallel()

		cfg, err := tree.NewConfig(downloadURL, tree.ConfigOptions{
			API:               "https://my-crates-server.com/",
			AllowedRegistries: []string{"https://my-intranet:8080/index"},
			AllowCratesIO:     true,
		})
		require.NoError(t, err)

		expected := `{
			"dl": "https://my-crates-server.com/api/v1/crates/{crate}/{version}/download",
			"api": "https://my-crates-server.com/",
			"allowed-registries": [
				"https://my-intranet:8080/index",
				"https://github.com/rust-lang/crates.io-index"
			]
		}`
		assert.JSONEq(t, expected, cfg.String())

		api, ok := cfg.API()
		assert.True(t, ok)
		assert.Equal(t, "https://my-crates-server.com/", api)
		assert.Equal(t, downloadURL, cfg.Download())
	})

	t.Run("config should be parsable", func(t *testing.T) {
		t.Parallel()

		cfg, err := tree.NewConfig(downloadURL, tree.ConfigOptions{
			AllowCratesIO: true,
		})
		require.NoError(t, err)

		parsed := &tree.Config{}
		require.NoError(t, json.Unmarshal([]byte(cfg.String()), parsed))
		assert.Equal(t, cfg, parsed)
	})

	t.Run("file URLs should be valid", func(t *testing.T) {
		t.Parallel()

		cfg, err := tree.NewConfig("file:///srv/crates/{crate}/{version}", tree.ConfigOptions{})
		require.NoError(t, err)
		assert.Equal(t, "file:///srv/crates/{crate}/{version}", cfg.Download())
	})

	t.Run("stored config should be loaded unchanged", func(t *testing.T) {
		t.Parallel()

		data := `{"dl":"/crates/{crate}","api":"my-server","allowed-registries":["::nope"]}`
		parsed := &tree.Config{}
		require.NoError(t, json.Unmarshal([]byte(data), parsed))
		assert.Equal(t, "/crates/{crate}", parsed.Download())
		api, ok := parsed.API()
		require.True(t, ok)
		assert.Equal(t, "my-server", api)
		assert.Equal(t, []string{"::nope"}, parsed.AllowedRegistries())
	})
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		download string
		opts     tree.ConfigOptions
	}{
		{
			desc:     "relative download URL should fail",
			download: "/crates/{crate}",
		},
		{
			desc:     "URL without host should fail",
			download: "https:///crates/{crate}",
		},
		{
			desc:     "empty download URL should fail",
			download: "",
		},
		{
			desc:     "invalid API URL should fail",
			download: downloadURL,
			opts:     tree.ConfigOptions{API: "my-server"},
		},
		{
			desc:     "invalid registry should fail",
			download: downloadURL,
			opts:     tree.ConfigOptions{AllowedRegistries: []string{"::nope"}},
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			_, err := tree.NewConfig(tc.download, tc.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tree.ErrConfigInvalid), "unexpected error: %v", err)
		})
	}

	t.Run("missing dl should fail", func(t *testing.T) {
		t.Parallel()

		err := json.Unmarshal([]byte(`{"api":"https://example.com"}`), &tree.Config{})
		require.ErrorIs(t, err, tree.ErrConfigInvalid)
	})
}
