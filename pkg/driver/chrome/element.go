package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// webdriverEnter is the WebDriver keyboard code for Enter; the DevTools
// key dispatcher expects a carriage return instead.
const webdriverEnter = ""

// Element is a handle to one DOM node, valid until the node is detached.
type Element struct {
	id      cdp.NodeID
	session *Session
}

var _ core.Element = (*Element)(nil)

// Click scrolls the element into view and clicks its center with real mouse
// events.
func (e *Element) Click() error {
	return e.session.mapErr(e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.id).Do(ctx); err != nil {
			return nodeErr(err)
		}
		x, y, err := e.center(ctx)
		if err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	})))
}

// hover moves the pointer onto the element's center.
func (e *Element) hover() error {
	return e.session.mapErr(e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.id).Do(ctx); err != nil {
			return nodeErr(err)
		}
		x, y, err := e.center(ctx)
		if err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})))
}

// center returns the midpoint of the element's content box. An element
// without a box has no layout and cannot receive pointer events.
func (e *Element) center(ctx context.Context) (float64, float64, error) {
	box, err := dom.GetBoxModel().WithNodeID(e.id).Do(ctx)
	if err != nil {
		return 0, 0, nodeErr(err)
	}
	if len(box.Content) < 8 {
		return 0, 0, core.ErrNotClickable.WithMessage("element has no box model")
	}
	x := (box.Content[0] + box.Content[2]) / 2
	y := (box.Content[1] + box.Content[5]) / 2
	return x, y, nil
}

// Clear empties the element's value and fires the framework-visible events.
func (e *Element) Clear() error {
	return e.call(
		`this.value = '';
		 this.dispatchEvent(new Event('input', {bubbles: true}));
		 this.dispatchEvent(new Event('change', {bubbles: true}));`,
		nil)
}

// SendKeys focuses the element and types the text through the keyboard
// dispatcher.
func (e *Element) SendKeys(text string) error {
	keys := strings.ReplaceAll(text, webdriverEnter, "\r")
	return e.session.mapErr(e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.Focus().WithNodeID(e.id).Do(ctx); err != nil {
			return nodeErr(err)
		}
		return chromedp.KeyEvent(keys).Do(ctx)
	})))
}

// Text returns the element's rendered text.
func (e *Element) Text() (string, error) {
	var text string
	if err := e.call(`return this.innerText;`, &text); err != nil {
		return "", err
	}
	return text, nil
}

// Attribute returns the named attribute, falling back to the DOM property
// so live values ("value", "checked") behave like the wire protocol.
func (e *Element) Attribute(name string) (string, error) {
	var value string
	err := e.call(
		`var v = this.getAttribute(arguments[0]);
		 if (v === null && arguments[0] in this) { v = String(this[arguments[0]]); }
		 return v;`,
		&value, name)
	if err != nil {
		return "", err
	}
	return value, nil
}

// IsDisplayed reports whether the element takes up layout space and is not
// hidden by style.
func (e *Element) IsDisplayed() (bool, error) {
	var displayed bool
	err := e.call(
		`var r = this.getBoundingClientRect();
		 var s = window.getComputedStyle(this);
		 return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';`,
		&displayed)
	return displayed, err
}

// IsEnabled reports whether the element accepts input.
func (e *Element) IsEnabled() (bool, error) {
	var enabled bool
	err := e.call(`return !this.disabled;`, &enabled)
	return enabled, err
}

// Rect returns the element's bounding box in CSS pixels.
func (e *Element) Rect() (core.Bounds, error) {
	var bounds core.Bounds
	err := e.call(
		`var r = this.getBoundingClientRect();
		 return {x: Math.round(r.x), y: Math.round(r.y),
		         width: Math.round(r.width), height: Math.round(r.height)};`,
		&bounds)
	return bounds, err
}

// FindElement resolves a single element scoped to this one.
func (e *Element) FindElement(loc core.Locator) (core.Element, error) {
	ids, err := e.scopedQuery(loc, false)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return &Element{id: ids[0], session: e.session}, nil
}

// FindElements resolves all matching elements scoped to this one.
func (e *Element) FindElements(loc core.Locator) ([]core.Element, error) {
	ids, err := e.scopedQuery(loc, true)
	if err != nil {
		return nil, err
	}
	elements := make([]core.Element, len(ids))
	for i, id := range ids {
		elements[i] = &Element{id: id, session: e.session}
	}
	return elements, nil
}

func (e *Element) scopedQuery(loc core.Locator, all bool) ([]cdp.NodeID, error) {
	switch loc.Strategy {
	case core.StrategyCSS, core.StrategyTagName, "":
		return e.scopedCSS(loc.Selector, all)
	case core.StrategyXPath:
		return e.scopedXPath(loc.Selector, all)
	case core.StrategyLinkText:
		return e.scopedXPath(fmt.Sprintf(`.//a[normalize-space(.)=%q]`, loc.Selector), all)
	case core.StrategyPartialLinkText:
		return e.scopedXPath(fmt.Sprintf(`.//a[contains(normalize-space(.),%q)]`, loc.Selector), all)
	}
	return nil, core.ErrInvalidConfig.WithMessage(
		fmt.Sprintf("unsupported location strategy %q", loc.Strategy))
}

func (e *Element) scopedCSS(selector string, all bool) ([]cdp.NodeID, error) {
	var ids []cdp.NodeID
	err := e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		if all {
			found, err := dom.QuerySelectorAll(e.id, selector).Do(ctx)
			if err != nil {
				return nodeErr(err)
			}
			ids = found
			return nil
		}
		id, err := dom.QuerySelector(e.id, selector).Do(ctx)
		if err != nil {
			return nodeErr(err)
		}
		if id != 0 {
			ids = []cdp.NodeID{id}
		}
		return nil
	}))
	return ids, e.session.mapErr(err)
}

// scopedXPath evaluates the expression relative to this node. XPath has no
// DevTools query command, so matches come back as remote objects and are
// adopted into node IDs one by one.
func (e *Element) scopedXPath(expr string, all bool) ([]cdp.NodeID, error) {
	var ids []cdp.NodeID
	err := e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var count int
		if all {
			if err := e.callIn(ctx,
				`var r = document.evaluate(arguments[0], this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
				 return r.snapshotLength;`,
				&count, expr); err != nil {
				return err
			}
		} else {
			count = 1
		}

		for i := 0; i < count; i++ {
			obj, err := e.callObjectIn(ctx,
				`var r = document.evaluate(arguments[0], this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
				 return r.snapshotItem(arguments[1]);`,
				expr, i)
			if err != nil {
				return err
			}
			if obj == nil || obj.ObjectID == "" {
				// single lookup with no match
				return nil
			}
			id, err := dom.RequestNode(obj.ObjectID).Do(ctx)
			if err != nil {
				return nodeErr(err)
			}
			ids = append(ids, id)
		}
		return nil
	}))
	return ids, e.session.mapErr(err)
}

// call runs a script body with `this` bound to the element, decoding a
// by-value result into out when non-nil.
func (e *Element) call(script string, out interface{}, args ...interface{}) error {
	return e.session.mapErr(e.session.run(chromedp.ActionFunc(func(ctx context.Context) error {
		return e.callIn(ctx, script, out, args...)
	})))
}

func (e *Element) callIn(ctx context.Context, script string, out interface{}, args ...interface{}) error {
	res, err := e.invoke(ctx, script, true, args...)
	if err != nil {
		return err
	}
	if out != nil && res != nil && res.Value != nil {
		return json.Unmarshal([]byte(res.Value), out)
	}
	return nil
}

func (e *Element) callObjectIn(ctx context.Context, script string, args ...interface{}) (*runtime.RemoteObject, error) {
	return e.invoke(ctx, script, false, args...)
}

func (e *Element) invoke(ctx context.Context, script string, byValue bool, args ...interface{}) (*runtime.RemoteObject, error) {
	this, err := dom.ResolveNode().WithNodeID(e.id).Do(ctx)
	if err != nil {
		return nil, nodeErr(err)
	}

	literals := make([]string, len(args))
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal script argument %d: %w", i, err)
		}
		literals[i] = string(data)
	}
	decl := fmt.Sprintf(
		"function() { return (function() { %s }).apply(this, [%s]); }",
		script, strings.Join(literals, ","))

	res, exc, err := runtime.CallFunctionOn(decl).
		WithObjectID(this.ObjectID).
		WithReturnByValue(byValue).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, fmt.Errorf("script error: %s", exc.Error())
	}
	return res, nil
}
