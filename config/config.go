package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/s0up4200/szuru/szurubooru"
)

// EnvPrefix prefixes every environment override, e.g. SZURU_SERVER_TOKEN
const EnvPrefix = "SZURU"

// Load loads the configuration from file and environment
func Load(configPath string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), configPath)
}

// LoadFS loads the configuration through fs. Without an explicit path a
// missing config file is not an error, so the environment alone can
// configure the client.
func LoadFS(fs afero.Fs, configPath string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "szuru"))
		}
		v.AddConfigPath("/etc/szuru/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key gets a default
// so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("server.api_uri", szurubooru.DefaultAPIURI)
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")
	v.SetDefault("server.token", "")
	v.SetDefault("server.timeout", szurubooru.DefaultTimeout)
	v.SetDefault("server.endpoint_file", "")

	v.SetDefault("search.page_size", szurubooru.DefaultPageSize)
	v.SetDefault("search.max_pages", szurubooru.DefaultMaxPages)
	v.SetDefault("search.eager_load", false)
	v.SetDefault("search.concurrency", 5)

	// Safety defaults
	v.SetDefault("safety.dry_run", true)
	v.SetDefault("safety.confirm_delete", true)
	v.SetDefault("safety.show_details", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	return validation.Errors{
		"server": validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.URL, validation.Required, validation.By(httpURL)),
			validation.Field(&cfg.Server.Timeout, validation.Min(time.Duration(0))),
		),
		"search": validation.ValidateStruct(&cfg.Search,
			validation.Field(&cfg.Search.PageSize, validation.Min(1), validation.Max(100)),
			validation.Field(&cfg.Search.MaxPages, validation.Min(0)),
			validation.Field(&cfg.Search.Concurrency, validation.Min(1), validation.Max(20)),
		),
		"filter": validation.Validate(cfg.Filter, validation.Each(validation.Required)),
		"logging": validation.ValidateStruct(&cfg.Logging,
			validation.Field(&cfg.Logging.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
			validation.Field(&cfg.Logging.Format, validation.Required, validation.In("console", "json")),
		),
	}.Filter()
}

func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// Credentials returns the authentication settings of the server section
func (s ServerConfig) Credentials() szurubooru.Credentials {
	return szurubooru.Credentials{
		Username: s.Username,
		Password: s.Password,
		Token:    s.Token,
	}
}

// ResolveEndpoint validates the server section into an Endpoint
func (s ServerConfig) ResolveEndpoint() (*szurubooru.Endpoint, error) {
	return szurubooru.ResolveEndpoint(s.URL, s.Credentials(), s.APIURI)
}
