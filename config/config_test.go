package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{URL: "https://booru.example.com", Timeout: time.Second},
		Search: SearchConfig{PageSize: 20, MaxPages: 10, Concurrency: 4},
		Filter: FilterConfig{"unsafe": `safety == "unsafe"`},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.Server.URL = "" }, wantErr: "url"},
		{name: "ftp url", mutate: func(c *Config) { c.Server.URL = "ftp://booru.example.com" }, wantErr: "http or https"},
		{name: "url without host", mutate: func(c *Config) { c.Server.URL = "http://" }, wantErr: "host"},
		{name: "negative timeout", mutate: func(c *Config) { c.Server.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "page size too large", mutate: func(c *Config) { c.Search.PageSize = 500 }, wantErr: "page_size"},
		{name: "negative max pages", mutate: func(c *Config) { c.Search.MaxPages = -1 }, wantErr: "max_pages"},
		{name: "concurrency too large", mutate: func(c *Config) { c.Search.Concurrency = 64 }, wantErr: "concurrency"},
		{name: "empty filter", mutate: func(c *Config) { c.Filter["blank"] = "" }, wantErr: "filter"},
		{name: "invalid level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "level"},
		{name: "invalid format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNamesConfigKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Search.PageSize = 500
	cfg.Logging.Format = "xml"

	err := validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size: must be no greater than 100")
	assert.Contains(t, err.Error(), "format: must be a valid value")
	assert.NotContains(t, err.Error(), "PageSize")
	assert.NotContains(t, err.Error(), "Format")
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	token := uuid.NewString()
	require.NoError(t, afero.WriteFile(fs, "/etc/szuru/config.yaml", []byte(`
server:
  url: https://booru.example.com/
  username: alice
  token: `+token+`
  timeout: 5s
search:
  page_size: 50
  concurrency: 8
filter:
  unsafe: safety == "unsafe"
  sunny: hasTag("sun")
safety:
  dry_run: false
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := LoadFS(fs, "/etc/szuru/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "https://booru.example.com/", cfg.Server.URL)
	assert.Equal(t, "/api", cfg.Server.APIURI)
	assert.Equal(t, "alice", cfg.Server.Username)
	assert.Equal(t, token, cfg.Server.Token)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 50, cfg.Search.PageSize)
	assert.Equal(t, 10000, cfg.Search.MaxPages)
	assert.Equal(t, 8, cfg.Search.Concurrency)
	assert.Equal(t, FilterConfig{"unsafe": `safety == "unsafe"`, "sunny": `hasTag("sun")`}, cfg.Filter)
	assert.False(t, cfg.Safety.DryRun)
	assert.True(t, cfg.Safety.ConfirmDelete)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	endpoint, err := cfg.Server.ResolveEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "Token "+base64.StdEncoding.EncodeToString([]byte("alice:"+token)), endpoint.Headers["Authorization"])
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	t.Setenv("SZURU_SERVER_URL", "http://localhost:9000")
	t.Setenv("SZURU_SERVER_USERNAME", "bob")
	t.Setenv("SZURU_SERVER_PASSWORD", "hunter2")
	t.Setenv("SZURU_SEARCH_PAGE_SIZE", "25")
	t.Setenv("SZURU_LOGGING_LEVEL", "warn")

	cfg, err := LoadFS(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Server.URL)
	assert.Equal(t, "bob", cfg.Server.Username)
	assert.Equal(t, "hunter2", cfg.Server.Password)
	assert.Equal(t, 25, cfg.Search.PageSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Safety.DryRun)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)

	creds := cfg.Server.Credentials()
	assert.Equal(t, "bob", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Empty(t, creds.Token)
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFS(fs, "/missing/config.yaml")
	assert.ErrorContains(t, err, "error reading config")

	require.NoError(t, afero.WriteFile(fs, "/bad/config.yaml", []byte("logging:\n  level: loud\n"), 0o644))
	_, err = LoadFS(fs, "/bad/config.yaml")
	assert.ErrorContains(t, err, "invalid configuration")
}
