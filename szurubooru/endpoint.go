package szurubooru

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultAPIURI is used when no API location is configured.
const DefaultAPIURI = "/api"

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Credentials holds the explicit authentication settings for an endpoint.
// Token takes precedence over Password.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Endpoint is the resolved location of a szurubooru instance together with
// the headers every request must carry. It is immutable once resolved.
type Endpoint struct {
	URLScheme      string            `json:"urlScheme" yaml:"url_scheme"`
	URLNetLocation string            `json:"urlNetLocation" yaml:"url_net_location"`
	URLPathPrefix  string            `json:"urlPathPrefix" yaml:"url_path_prefix"`
	APIScheme      string            `json:"apiScheme" yaml:"api_scheme"`
	APINetLocation string            `json:"apiNetLocation" yaml:"api_net_location"`
	APIPathPrefix  string            `json:"apiPathPrefix" yaml:"api_path_prefix"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Username       string            `json:"username,omitempty" yaml:"username,omitempty"`
}

// ResolveEndpoint validates baseURL, apiURI and the credentials and computes
// the request headers. An empty apiURI means DefaultAPIURI.
func ResolveEndpoint(baseURL string, creds Credentials, apiURI string) (*Endpoint, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ConfigError{Field: "url", Reason: "cannot parse URL", Err: err}
	}
	if err := checkScheme("url", base.Scheme); err != nil {
		return nil, err
	}
	if base.Host == "" {
		return nil, &ConfigError{Field: "url", Reason: "missing host"}
	}

	if apiURI == "" {
		apiURI = DefaultAPIURI
	}
	api, err := url.Parse(apiURI)
	if err != nil {
		return nil, &ConfigError{Field: "api_uri", Reason: "cannot parse URL", Err: err}
	}

	apiScheme := api.Scheme
	if apiScheme == "" {
		apiScheme = base.Scheme
	}
	if err := checkScheme("api_uri", apiScheme); err != nil {
		return nil, err
	}
	apiHost := api.Host
	if apiHost == "" {
		apiHost = base.Host
	}

	pathPrefix := strings.TrimSuffix(base.Path, "/")
	apiPath := api.Path
	if apiPath != "" && !strings.HasPrefix(apiPath, "/") {
		// Relative API paths only nest under the UI when both share a host.
		if apiHost == base.Host {
			apiPath = pathPrefix + "/" + apiPath
		} else {
			apiPath = "/" + apiPath
		}
	}
	apiPath = strings.TrimSuffix(apiPath, "/")

	username := creds.Username
	if username == "" && api.User != nil {
		username = api.User.Username()
	}
	if username == "" && base.User != nil {
		username = base.User.Username()
	}

	password := creds.Password
	if password == "" && api.User != nil {
		password, _ = api.User.Password()
	}
	if password == "" && base.User != nil {
		password, _ = base.User.Password()
	}

	headers := map[string]string{"Accept": "application/json"}
	switch {
	case creds.Token != "":
		if username == "" {
			return nil, &ConfigError{Field: "token", Reason: "token provided without a username"}
		}
		if !tokenPattern.MatchString(creds.Token) {
			return nil, &ConfigError{Field: "token", Reason: "malformed token"}
		}
		headers["Authorization"] = "Token " + encodeCredentials(username, creds.Token)
	case password != "":
		if username == "" {
			return nil, &ConfigError{Field: "password", Reason: "password provided without a username"}
		}
		headers["Authorization"] = "Basic " + encodeCredentials(username, password)
	case username != "":
		return nil, &ConfigError{Field: "username", Reason: "username provided without a password or token"}
	}

	return &Endpoint{
		URLScheme:      base.Scheme,
		URLNetLocation: base.Host,
		URLPathPrefix:  pathPrefix,
		APIScheme:      apiScheme,
		APINetLocation: apiHost,
		APIPathPrefix:  apiPath,
		Headers:        headers,
		Username:       username,
	}, nil
}

func checkScheme(field, scheme string) error {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return nil
	case "":
		return &ConfigError{Field: field, Reason: "missing URL scheme"}
	default:
		return &ConfigError{Field: field, Reason: fmt.Sprintf("unsupported URL scheme %q", scheme)}
	}
}

func encodeCredentials(username, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + secret))
}

// validate checks a loaded or hand-built endpoint.
func (e *Endpoint) validate() error {
	if err := checkScheme("url", e.URLScheme); err != nil {
		return err
	}
	if err := checkScheme("api_uri", e.APIScheme); err != nil {
		return err
	}
	if e.URLNetLocation == "" || e.APINetLocation == "" {
		return &ConfigError{Field: "url", Reason: "missing host"}
	}
	return nil
}

// APIURL builds the absolute API URL for the given path segments.
func (e *Endpoint) APIURL(parts []string, query url.Values) string {
	var sb strings.Builder
	sb.WriteString(e.APIScheme)
	sb.WriteString("://")
	sb.WriteString(e.APINetLocation)
	sb.WriteString(e.APIPathPrefix)
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(part))
	}
	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query.Encode())
	}
	return sb.String()
}

// DataURL resolves a content or thumbnail URL returned by the server.
// With overrideBase the path is placed under the UI path prefix, otherwise
// it is resolved against the API root.
func (e *Endpoint) DataURL(relative string, overrideBase bool) (string, error) {
	rel, err := url.Parse(relative)
	if err != nil {
		return "", fmt.Errorf("invalid data URL %q: %w", relative, err)
	}

	if overrideBase {
		u := url.URL{
			Scheme:   e.URLScheme,
			Host:     e.URLNetLocation,
			Path:     e.URLPathPrefix + "/" + strings.TrimPrefix(rel.Path, "/"),
			RawQuery: rel.RawQuery,
		}
		return u.String(), nil
	}

	root := &url.URL{
		Scheme: e.APIScheme,
		Host:   e.APINetLocation,
		Path:   e.APIPathPrefix + "/",
	}
	return root.ResolveReference(rel).String(), nil
}

func (e *Endpoint) String() string {
	if e.Username == "" {
		return fmt.Sprintf("szurubooru API at %s", e.URLNetLocation)
	}
	return fmt.Sprintf("szurubooru API for %s at %s", e.Username, e.URLNetLocation)
}
