// Package webdriver implements core.Session over the W3C WebDriver wire
// protocol, against a remote end such as chromedriver, geckodriver or a
// Selenium grid.
package webdriver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Options configures the browser session requested from the remote end.
type Options struct {
	Browser      string // browserName capability, defaults to chrome
	Headless     bool
	WindowWidth  int // initial window size, applied when both are set
	WindowHeight int
	Args         []string // extra browser command-line switches
}

func (o Options) capabilities() map[string]interface{} {
	browser := o.Browser
	if browser == "" {
		browser = "chrome"
	}

	caps := map[string]interface{}{
		"browserName": browser,
	}

	args := append([]string{}, o.Args...)
	switch browser {
	case "firefox":
		if o.Headless {
			args = append(args, "-headless")
		}
		if o.WindowWidth > 0 && o.WindowHeight > 0 {
			args = append(args,
				"-width", strconv.Itoa(o.WindowWidth),
				"-height", strconv.Itoa(o.WindowHeight))
		}
		if len(args) > 0 {
			caps["moz:firefoxOptions"] = map[string]interface{}{"args": args}
		}
	default:
		if o.Headless {
			args = append(args, "--headless=new")
		}
		if o.WindowWidth > 0 && o.WindowHeight > 0 {
			args = append(args, fmt.Sprintf("--window-size=%d,%d", o.WindowWidth, o.WindowHeight))
		}
		if len(args) > 0 {
			caps["goog:chromeOptions"] = map[string]interface{}{"args": args}
		}
	}

	return caps
}

// Client handles HTTP communication with the WebDriver remote end.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	browser   core.BrowserInfo
	log       *zap.Logger
}

// NewClient creates a client for the given remote end URL.
func NewClient(serverURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute, // long timeout for session start/screenshot
		},
		log: log.Named("webdriver"),
	}
}

// Connect creates a new session with capabilities built from opts.
func (c *Client) Connect(opts Options) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": opts.capabilities(),
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	var value struct {
		SessionID    string                 `json:"sessionId"`
		Capabilities map[string]interface{} `json:"capabilities"`
	}
	if len(resp.Value) > 0 {
		if err := json.Unmarshal(resp.Value, &value); err != nil {
			return fmt.Errorf("parse session response: %w", err)
		}
	}

	c.sessionID = value.SessionID
	if c.sessionID == "" {
		// Legacy remote ends put the session ID at the top level.
		c.sessionID = resp.SessionID
	}
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	c.browser = core.BrowserInfo{
		Name:      opts.Browser,
		RemoteURL: c.serverURL,
		Headless:  opts.Headless,
	}
	if c.browser.Name == "" {
		c.browser.Name = "chrome"
	}
	if value.Capabilities != nil {
		if name, ok := value.Capabilities["browserName"].(string); ok && name != "" {
			c.browser.Name = name
		}
		if v, ok := value.Capabilities["browserVersion"].(string); ok {
			c.browser.Version = v
		}
		if p, ok := value.Capabilities["platformName"].(string); ok {
			c.browser.Platform = p
		}
	}

	c.log.Info("session created",
		zap.String("session_id", c.sessionID),
		zap.String("browser", c.browser.Name),
		zap.String("version", c.browser.Version))
	return nil
}

// Close ends the session. Safe to call when no session is open.
func (c *Client) Close() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Browser returns static information about the automated browser.
func (c *Client) Browser() core.BrowserInfo {
	return c.browser
}

// Status reports whether the remote end is ready to accept new sessions.
func (c *Client) Status() (bool, error) {
	resp, err := c.get("/status")
	if err != nil {
		return false, err
	}

	var status struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Value, &status); err != nil {
		return false, fmt.Errorf("parse status response: %w", err)
	}
	return status.Ready, nil
}

// SetImplicitWait sets the remote end's implicit element-find timeout.
// The wait facade does its own polling, so the harness sets this to zero.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	_, err := c.post(c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// Element Operations

// FindElement resolves a single element. A miss surfaces ErrElementNotFound
// annotated with the locator.
func (c *Client) FindElement(loc core.Locator) (core.Element, error) {
	resp, err := c.post(c.sessionPath()+"/element", findPayload(loc))
	if err != nil {
		return nil, describeLocator(err, loc)
	}

	id := extractElementID(resp.Value)
	if id == "" {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return &Element{id: id, client: c}, nil
}

// FindElements resolves all matching elements. No match is an empty slice,
// never an error.
func (c *Client) FindElements(loc core.Locator) ([]core.Element, error) {
	resp, err := c.post(c.sessionPath()+"/elements", findPayload(loc))
	if err != nil {
		return nil, describeLocator(err, loc)
	}
	return c.elementList(resp.Value), nil
}

// ExecuteScript runs a script in the page and returns its JSON result.
// Element arguments are serialized as W3C element references.
func (c *Client) ExecuteScript(script string, args ...interface{}) (json.RawMessage, error) {
	converted := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			converted[i] = map[string]interface{}{w3cElementKey: el.id}
			continue
		}
		converted[i] = a
	}

	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": script,
		"args":   converted,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Hover moves the mouse pointer onto the element using W3C actions with
// element origin.
func (c *Client) Hover(el core.Element) error {
	handle, ok := el.(*Element)
	if !ok {
		return fmt.Errorf("hover: element does not belong to this session")
	}

	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "mouse1",
			"parameters": map[string]interface{}{"pointerType": "mouse"},
			"actions": []map[string]interface{}{
				{
					"type":     "pointerMove",
					"duration": 100,
					"x":        0,
					"y":        0,
					"origin":   map[string]interface{}{w3cElementKey: handle.id},
				},
			},
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Navigation

// Navigate loads the given URL.
func (c *Client) Navigate(url string) error {
	_, err := c.post(c.sessionPath()+"/url", map[string]interface{}{
		"url": url,
	})
	return err
}

// URL returns the current page URL.
func (c *Client) URL() (string, error) {
	resp, err := c.get(c.sessionPath() + "/url")
	if err != nil {
		return "", err
	}
	return stringValue(resp.Value)
}

// Title returns the current page title.
func (c *Client) Title() (string, error) {
	resp, err := c.get(c.sessionPath() + "/title")
	if err != nil {
		return "", err
	}
	return stringValue(resp.Value)
}

// Screenshot returns a screenshot of the page as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}

	encoded, err := stringValue(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source HTML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	return stringValue(resp.Value)
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (*wireResponse, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (*wireResponse, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (*wireResponse, error) {
	return c.request("DELETE", path, nil)
}

// wireResponse is the common envelope of every WebDriver reply.
type wireResponse struct {
	Value json.RawMessage `json:"value"`
	// Top-level session ID sent by legacy remote ends.
	SessionID string `json:"sessionId,omitempty"`
}

func (c *Client) request(method, path string, body interface{}) (*wireResponse, error) {
	start := time.Now()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.serverURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	var result wireResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	// WebDriver errors arrive as {"value": {"error": ..., "message": ...}},
	// usually with a 4xx/5xx status but on some remote ends with 200.
	if len(result.Value) > 0 && result.Value[0] == '{' {
		var werr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(result.Value, &werr) == nil && werr.Error != "" {
			return nil, mapWireError(werr.Error, werr.Message)
		}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	return &result, nil
}

// mapWireError translates W3C error codes onto the core taxonomy. Codes
// without a mapping surface as plain errors with the wire text.
func mapWireError(code, message string) error {
	var base *core.DriverError
	switch code {
	case "no such element":
		base = core.ErrElementNotFound
	case "stale element reference":
		base = core.ErrStaleElement
	case "element not interactable", "element click intercepted":
		base = core.ErrNotClickable
	case "timeout", "script timeout":
		base = core.ErrTimeout
	case "invalid session id", "no such window":
		base = core.ErrSessionClosed
	default:
		return fmt.Errorf("%s: %s", code, message)
	}
	if message == "" {
		return base
	}
	return base.WithMessage(message)
}

func findPayload(loc core.Locator) map[string]interface{} {
	strategy := loc.Strategy
	if strategy == "" {
		strategy = core.StrategyCSS
	}
	return map[string]interface{}{
		"using": string(strategy),
		"value": loc.Selector,
	}
}

// describeLocator annotates driver errors with the locator being resolved.
func describeLocator(err error, loc core.Locator) error {
	var derr *core.DriverError
	if errors.As(err, &derr) {
		return derr.WithLocator(loc)
	}
	return err
}

func extractElementID(value json.RawMessage) string {
	var elem map[string]interface{}
	if json.Unmarshal(value, &elem) != nil {
		return ""
	}
	// W3C format
	if id, ok := elem[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := elem["ELEMENT"].(string); ok {
		return id
	}
	return ""
}

func (c *Client) elementList(value json.RawMessage) []core.Element {
	var raw []json.RawMessage
	if json.Unmarshal(value, &raw) != nil {
		return []core.Element{}
	}

	elements := make([]core.Element, 0, len(raw))
	for _, v := range raw {
		if id := extractElementID(v); id != "" {
			elements = append(elements, &Element{id: id, client: c})
		}
	}
	return elements
}

func stringValue(value json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return s, nil
}

func boolValue(value json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(value, &b); err != nil {
		return false, fmt.Errorf("parse response: %w", err)
	}
	return b, nil
}
