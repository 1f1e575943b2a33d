package szurubooru

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointSnapshotRoundTrip(t *testing.T) {
	endpoint, err := ResolveEndpoint(
		"https://example.com/booru",
		Credentials{Username: "alice", Token: uuid.NewString()},
		"https://api.example.com/v1",
	)
	require.NoError(t, err)

	for _, path := range []string{"endpoint.json", "state/endpoint.yaml", "endpoint.YML"} {
		t.Run(path, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, SaveEndpoint(fs, path, endpoint))

			exists, err := afero.Exists(fs, path)
			require.NoError(t, err)
			assert.True(t, exists)

			loaded, err := LoadEndpoint(fs, path)
			require.NoError(t, err)
			assert.Equal(t, endpoint, loaded)
		})
	}
}

func TestLoadEndpointRejectsInvalidSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "bad.json", []byte(`{"urlScheme":"ftp","urlNetLocation":"x","apiScheme":"https","apiNetLocation":"x"}`), 0o600))
	_, err := LoadEndpoint(fs, "bad.json")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, afero.WriteFile(fs, "garbage.yaml", []byte("url_scheme: [unterminated"), 0o600))
	_, err = LoadEndpoint(fs, "garbage.yaml")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "snapshot", cfgErr.Field)

	_, err = LoadEndpoint(fs, "missing.yaml")
	assert.Error(t, err)
}

func TestLoadEndpointDefaultsHeaders(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "endpoint.yaml", []byte(
		"url_scheme: https\nurl_net_location: booru.example.com\napi_scheme: https\napi_net_location: booru.example.com\napi_path_prefix: /api\n",
	), 0o600))

	endpoint, err := LoadEndpoint(fs, "endpoint.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, endpoint.Headers)
	assert.Equal(t, "https://booru.example.com/api/info", endpoint.APIURL([]string{"info"}, nil))
}
