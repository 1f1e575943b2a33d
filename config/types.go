package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	Search  SearchConfig  `mapstructure:"search" json:"search"`
	Filter  FilterConfig  `mapstructure:"filter" json:"filter"`
	Safety  SafetyConfig  `mapstructure:"safety" json:"safety"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
}

// ServerConfig holds szurubooru connection details. Token takes
// precedence over Password.
type ServerConfig struct {
	URL          string        `mapstructure:"url" json:"url"`
	APIURI       string        `mapstructure:"api_uri" json:"api_uri"`
	Username     string        `mapstructure:"username" json:"username"`
	Password     string        `mapstructure:"password" json:"password"`
	Token        string        `mapstructure:"token" json:"token"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"`
	EndpointFile string        `mapstructure:"endpoint_file" json:"endpoint_file"`
}

// SearchConfig controls pagination and batch concurrency
type SearchConfig struct {
	PageSize    int  `mapstructure:"page_size" json:"page_size"`
	MaxPages    int  `mapstructure:"max_pages" json:"max_pages"`
	EagerLoad   bool `mapstructure:"eager_load" json:"eager_load"`
	Concurrency int  `mapstructure:"concurrency" json:"concurrency"`
}

// FilterConfig contains named filter expressions
type FilterConfig map[string]string

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun        bool `mapstructure:"dry_run" json:"dry_run"`
	ConfirmDelete bool `mapstructure:"confirm_delete" json:"confirm_delete"`
	ShowDetails   bool `mapstructure:"show_details" json:"show_details"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
	Color  bool   `mapstructure:"color" json:"color"`
}
