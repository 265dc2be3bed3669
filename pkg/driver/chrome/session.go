// Package chrome implements core.Session over a locally launched Chrome
// driven through the DevTools protocol. It is the no-grid alternative to the
// webdriver backend: same capability surface, no remote end to stand up.
package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// opTimeout caps a single protocol round trip, matching the webdriver
// client's HTTP timeout.
const opTimeout = 2 * time.Minute

// Options configures the launched browser.
type Options struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
	ExecPath     string   // browser binary, empty uses chromedp's default lookup
	Args         []string // extra command-line flags, "key=value" or bare
	StartTimeout time.Duration
}

// Session is one DevTools-driven browser. It owns the launched process and
// tears it down on Close.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	browser     core.BrowserInfo
	log         *zap.Logger
}

var _ core.Session = (*Session)(nil)

// New launches a browser and waits for it to come up.
func New(opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("chrome")

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			allocOpts = append(allocOpts, chromedp.Flag(key, value))
		} else {
			allocOpts = append(allocOpts, chromedp.Flag(key, true))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		browser: core.BrowserInfo{
			Name:     "chrome",
			Platform: goruntime.GOOS,
			Headless: opts.Headless,
		},
		log: log,
	}

	startTimeout := opts.StartTimeout
	if startTimeout == 0 {
		startTimeout = 30 * time.Second
	}
	startCtx, cancelStart := context.WithTimeout(ctx, startTimeout)
	defer cancelStart()

	err := chromedp.Run(startCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, product, _, _, _, err := browser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		if _, version, ok := strings.Cut(product, "/"); ok {
			s.browser.Version = version
		}
		return nil
	}))
	if err != nil {
		cancel()
		cancelAlloc()
		return nil, core.ErrServerUnreachable.WithCause(err)
	}

	log.Info("browser launched",
		zap.String("version", s.browser.Version),
		zap.Bool("headless", opts.Headless))
	return s, nil
}

// run executes actions against the browser with the operation timeout.
func (s *Session) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// FindElement resolves a single element. Fails with ErrElementNotFound when
// nothing matches.
func (s *Session) FindElement(loc core.Locator) (core.Element, error) {
	ids, err := s.query(loc)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return &Element{id: ids[0], session: s}, nil
}

// FindElements resolves all matching elements. No match is an empty slice.
func (s *Session) FindElements(loc core.Locator) ([]core.Element, error) {
	ids, err := s.query(loc)
	if err != nil {
		return nil, err
	}
	elements := make([]core.Element, len(ids))
	for i, id := range ids {
		elements[i] = &Element{id: id, session: s}
	}
	return elements, nil
}

func (s *Session) query(loc core.Locator) ([]cdp.NodeID, error) {
	sel, opt, err := translate(loc)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := s.run(chromedp.Nodes(sel, &nodes, opt, chromedp.AtLeast(0))); err != nil {
		return nil, s.mapErr(err)
	}
	ids := make([]cdp.NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.NodeID
	}
	return ids, nil
}

// translate maps a locator onto a chromedp query. Link-text strategies
// become XPath since DevTools has no native equivalent.
func translate(loc core.Locator) (string, chromedp.QueryOption, error) {
	switch loc.Strategy {
	case core.StrategyCSS, core.StrategyTagName, "":
		return loc.Selector, chromedp.ByQueryAll, nil
	case core.StrategyXPath:
		return loc.Selector, chromedp.BySearch, nil
	case core.StrategyLinkText:
		return fmt.Sprintf(`//a[normalize-space(.)=%q]`, loc.Selector), chromedp.BySearch, nil
	case core.StrategyPartialLinkText:
		return fmt.Sprintf(`//a[contains(normalize-space(.),%q)]`, loc.Selector), chromedp.BySearch, nil
	}
	return "", nil, core.ErrInvalidConfig.WithMessage(
		fmt.Sprintf("unsupported location strategy %q", loc.Strategy))
}

// ExecuteScript runs a WebDriver-style script body ("return ...;" with
// positional arguments) in the page. Element arguments are passed as live
// DOM references; everything else is inlined as JSON.
func (s *Session) ExecuteScript(script string, args ...interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	err := s.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var callArgs []*runtime.CallArgument
		literals := make([]string, len(args))
		refs := make([]string, len(args))
		for i, a := range args {
			if el, ok := a.(*Element); ok {
				obj, err := dom.ResolveNode().WithNodeID(el.id).Do(ctx)
				if err != nil {
					return nodeErr(err)
				}
				callArgs = append(callArgs, &runtime.CallArgument{ObjectID: obj.ObjectID})
				literals[i] = "null"
				refs[i] = "true"
				continue
			}
			data, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal script argument %d: %w", i, err)
			}
			literals[i] = string(data)
			refs[i] = "false"
		}

		doc, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		this, err := dom.ResolveNode().WithNodeID(doc.NodeID).Do(ctx)
		if err != nil {
			return err
		}

		res, exc, err := runtime.CallFunctionOn(scriptDecl(script, literals, refs)).
			WithObjectID(this.ObjectID).
			WithArguments(callArgs).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script error: %s", exc.Error())
		}
		if res != nil && res.Value != nil {
			result = json.RawMessage(res.Value)
		}
		return nil
	}))
	return result, s.mapErr(err)
}

// scriptDecl wraps a script body in a function that merges inlined JSON
// literals with the element references arriving as real call arguments,
// preserving positional arguments[i] semantics for the body.
func scriptDecl(script string, literals, refs []string) string {
	return fmt.Sprintf(
		"function() {"+
			" var vals = [%s]; var refs = [%s]; var args = []; var k = 0;"+
			" for (var i = 0; i < vals.length; i++) { args.push(refs[i] ? arguments[k++] : vals[i]); }"+
			" return (function() { %s }).apply(null, args); }",
		strings.Join(literals, ","), strings.Join(refs, ","), script)
}

// Hover moves the pointer onto the element's center.
func (s *Session) Hover(el core.Element) error {
	handle, ok := el.(*Element)
	if !ok {
		return fmt.Errorf("hover: element does not belong to this session")
	}
	return handle.hover()
}

// Navigate loads the given URL and waits for the load event.
func (s *Session) Navigate(url string) error {
	s.log.Debug("navigate", zap.String("url", url))
	return s.mapErr(s.run(chromedp.Navigate(url)))
}

// URL returns the current page URL.
func (s *Session) URL() (string, error) {
	var url string
	if err := s.run(chromedp.Location(&url)); err != nil {
		return "", s.mapErr(err)
	}
	return url, nil
}

// Title returns the current page title.
func (s *Session) Title() (string, error) {
	var title string
	if err := s.run(chromedp.Title(&title)); err != nil {
		return "", s.mapErr(err)
	}
	return title, nil
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := s.run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, s.mapErr(err)
	}
	return buf, nil
}

// Browser returns static information about the launched browser.
func (s *Session) Browser() core.BrowserInfo {
	return s.browser
}

// Close tears down the browser process. Safe to call more than once.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.cancelAlloc()
	return err
}

// mapErr translates transport-level failures onto the error taxonomy.
func (s *Session) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return core.ErrTimeout.WithCause(err)
	case errors.Is(err, context.Canceled):
		return core.ErrSessionClosed.WithCause(err)
	default:
		return nodeErr(err)
	}
}

// nodeErr maps the DevTools "node gone" replies onto stale-element. The
// protocol reports removed node IDs with a handful of phrasings.
func nodeErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "node with given id") ||
		strings.Contains(msg, "No node found") ||
		strings.Contains(msg, "Node with given id does not belong") {
		return core.ErrStaleElement.WithCause(err)
	}
	return err
}
