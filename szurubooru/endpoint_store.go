package szurubooru

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SaveEndpoint writes a snapshot of e to path. Files ending in .json are
// written as JSON, everything else as YAML. The snapshot contains the
// Authorization header, so it is written with owner-only permissions.
func SaveEndpoint(fs afero.Fs, path string, e *Endpoint) error {
	if e == nil {
		return fmt.Errorf("%w: nil endpoint", ErrInvalidConfig)
	}

	var (
		data []byte
		err  error
	)
	if isJSONPath(path) {
		data, err = json.MarshalIndent(e, "", "  ")
	} else {
		data, err = yaml.Marshal(e)
	}
	if err != nil {
		return fmt.Errorf("failed to encode endpoint: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write endpoint snapshot: %w", err)
	}
	return nil
}

// LoadEndpoint restores an endpoint written by SaveEndpoint.
func LoadEndpoint(fs afero.Fs, path string) (*Endpoint, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoint snapshot: %w", err)
	}

	var e Endpoint
	if isJSONPath(path) {
		err = json.Unmarshal(data, &e)
	} else {
		err = yaml.Unmarshal(data, &e)
	}
	if err != nil {
		return nil, &ConfigError{Field: "snapshot", Reason: "cannot decode " + path, Err: err}
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	if e.Headers == nil {
		e.Headers = map[string]string{"Accept": "application/json"}
	}
	return &e, nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
