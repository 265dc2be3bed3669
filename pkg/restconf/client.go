// Package restconf is the REST helper for seeding and cleaning configuration
// behind the UI under test: session-key login and stanza CRUD against the
// management endpoint. It exists so tests can arrange fixtures without
// driving the browser for every precondition.
package restconf

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Stanza holds one configuration stanza's settings.
type Stanza map[string]interface{}

// Client talks to the management REST endpoint. Requests authenticate with
// the session key once Login has run, falling back to basic auth before
// that.
type Client struct {
	baseURL    string
	username   string
	password   string
	sessionKey string
	client     *http.Client
	log        *zap.Logger
}

// New creates a client for the management endpoint at baseURL. The endpoint
// typically serves a self-signed certificate, so verification is off the way
// the UI test environment runs it.
func New(baseURL, username, password string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //#nosec G402 -- test instance with a self-signed cert
			},
		},
		log: log.Named("restconf"),
	}
}

// BaseURL returns the management endpoint URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login acquires a session key for subsequent requests.
func (c *Client) Login() error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	resp, err := c.client.PostForm(c.baseURL+"/services/auth/login?output_mode=json", form)
	if err != nil {
		return fmt.Errorf("login to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login to %s: status %d: %s", c.baseURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		SessionKey string `json:"sessionKey"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parse login response: %w", err)
	}
	if parsed.SessionKey == "" {
		return fmt.Errorf("login to %s: no session key in response", c.baseURL)
	}

	c.sessionKey = parsed.SessionKey
	c.log.Info("session key acquired")
	return nil
}

// GetConfig fetches every stanza under path, keyed by stanza name. Filters,
// when given, keep only stanzas whose name contains any filter substring.
func (c *Client) GetConfig(path string, filters ...string) (map[string]Stanza, error) {
	resp, err := c.do(http.MethodGet, c.configURL(path), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Entry []struct {
			Name    string                 `json:"name"`
			Content map[string]interface{} `json:"content"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("parse config response: %w", err)
	}

	config := make(map[string]Stanza)
	for _, entry := range parsed.Entry {
		if entry.Name == "" {
			continue
		}
		if len(filters) > 0 && !matchesAny(entry.Name, filters) {
			continue
		}
		stanza := make(Stanza)
		for param, value := range entry.Content {
			// eai: parameters are server-side bookkeeping, not settings.
			if strings.HasPrefix(param, "eai:") {
				continue
			}
			stanza[param] = value
		}
		config[entry.Name] = stanza
	}
	return config, nil
}

// GetStanza fetches a single stanza by name.
func (c *Client) GetStanza(path, name string) (Stanza, error) {
	config, err := c.GetConfig(path, name)
	if err != nil {
		return nil, err
	}
	stanza, ok := config[name]
	if !ok {
		return nil, fmt.Errorf("stanza %q not found under %s", name, path)
	}
	return stanza, nil
}

// CreateStanza creates a stanza with the given settings.
func (c *Client) CreateStanza(path string, data url.Values) error {
	_, err := c.do(http.MethodPost, c.baseURL+path, data)
	return err
}

// UpdateStanza updates the named stanza's settings.
func (c *Client) UpdateStanza(path, name string, data url.Values) error {
	_, err := c.do(http.MethodPost, c.stanzaURL(path, name), data)
	return err
}

// DeleteStanza removes the named stanza.
func (c *Client) DeleteStanza(path, name string) error {
	c.log.Debug("deleting stanza", zap.String("path", path), zap.String("stanza", name))
	_, err := c.do(http.MethodDelete, c.stanzaURL(path, name), nil)
	return err
}

// DeleteAll removes every stanza under path matching the filters (all
// stanzas when no filter is given). It keeps going on per-stanza failures
// and reports the first error afterwards.
func (c *Client) DeleteAll(path string, filters ...string) error {
	config, err := c.GetConfig(path, filters...)
	if err != nil {
		return err
	}
	var firstErr error
	for name := range config {
		if err := c.DeleteStanza(path, name); err != nil {
			c.log.Warn("stanza delete failed", zap.String("stanza", name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// do issues one request with auth and the JSON output mode, returning the
// response body on a 2xx status.
func (c *Client) do(method, rawURL string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		form.Set("output_mode", "json")
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, rawURL, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.sessionKey != "" {
		req.Header.Set("Authorization", "Splunk "+c.sessionKey)
	} else {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, rawURL, err)
	}
	c.log.Debug("rest call",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// configURL builds the collection URL with the full-listing parameters.
func (c *Client) configURL(path string) string {
	return c.baseURL + path + "?count=0&output_mode=json"
}

// stanzaURL builds the URL addressing one stanza. Stanza names can carry
// scheme-like prefixes ("type://name"), so the name is query-escaped whole.
func (c *Client) stanzaURL(path, name string) string {
	return c.baseURL + path + "/" + url.QueryEscape(name)
}

func matchesAny(name string, filters []string) bool {
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}
