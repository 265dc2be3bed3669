package webdriver

import (
	"encoding/json"
	"fmt"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Element is a handle to one DOM element held by the remote end. Handles go
// stale when the document re-renders; calls then fail with ErrStaleElement.
type Element struct {
	id     string
	client *Client
}

// ID returns the element ID assigned by the remote end.
func (e *Element) ID() string {
	return e.id
}

// Click clicks the element.
func (e *Element) Click() error {
	_, err := e.client.post(e.client.elementPath(e.id)+"/click", nil)
	return err
}

// Clear clears the element's value.
func (e *Element) Clear() error {
	_, err := e.client.post(e.client.elementPath(e.id)+"/clear", nil)
	return err
}

// SendKeys types text into the element.
func (e *Element) SendKeys(text string) error {
	_, err := e.client.post(e.client.elementPath(e.id)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// Text returns the element's rendered text.
func (e *Element) Text() (string, error) {
	resp, err := e.client.get(e.client.elementPath(e.id) + "/text")
	if err != nil {
		return "", err
	}
	return stringValue(resp.Value)
}

// Attribute returns an attribute value, empty when the attribute is absent.
func (e *Element) Attribute(name string) (string, error) {
	resp, err := e.client.get(e.client.elementPath(e.id) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	return stringValue(resp.Value)
}

// IsDisplayed checks if the element is visible.
func (e *Element) IsDisplayed() (bool, error) {
	resp, err := e.client.get(e.client.elementPath(e.id) + "/displayed")
	if err != nil {
		return false, err
	}
	return boolValue(resp.Value)
}

// IsEnabled checks if the element is enabled.
func (e *Element) IsEnabled() (bool, error) {
	resp, err := e.client.get(e.client.elementPath(e.id) + "/enabled")
	if err != nil {
		return false, err
	}
	return boolValue(resp.Value)
}

// Rect returns the element's position and size.
func (e *Element) Rect() (core.Bounds, error) {
	resp, err := e.client.get(e.client.elementPath(e.id) + "/rect")
	if err != nil {
		return core.Bounds{}, err
	}

	var rect struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(resp.Value, &rect); err != nil {
		return core.Bounds{}, fmt.Errorf("parse rect response: %w", err)
	}
	return core.Bounds{
		X:      int(rect.X),
		Y:      int(rect.Y),
		Width:  int(rect.Width),
		Height: int(rect.Height),
	}, nil
}

// FindElement resolves a single element inside this element's subtree.
func (e *Element) FindElement(loc core.Locator) (core.Element, error) {
	resp, err := e.client.post(e.client.elementPath(e.id)+"/element", findPayload(loc))
	if err != nil {
		return nil, describeLocator(err, loc)
	}

	id := extractElementID(resp.Value)
	if id == "" {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return &Element{id: id, client: e.client}, nil
}

// FindElements resolves all matching elements inside this element's subtree.
func (e *Element) FindElements(loc core.Locator) ([]core.Element, error) {
	resp, err := e.client.post(e.client.elementPath(e.id)+"/elements", findPayload(loc))
	if err != nil {
		return nil, describeLocator(err, loc)
	}
	return e.client.elementList(resp.Value), nil
}
