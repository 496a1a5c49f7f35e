// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
)

// Session is one isolated browser tab implementing schemas.FormSession on the
// Chrome DevTools Protocol. All element resolution runs against the top level
// document; SwitchToDefaultContent clears any narrower scope a future page
// object may have selected.
type Session struct {
	id    string
	log   *zap.Logger
	cfg   config.BrowserConfig
	pacer *pacing.Pacer

	// ctx is the chromedp tab context all protocol traffic runs on.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	scope    *cdp.Node // optional frame/document scope, nil = default content
	isClosed bool
}

var _ schemas.FormSession = (*Session)(nil)

// newSession materializes a tab under the given allocator context.
func newSession(allocatorCtx context.Context, log *zap.Logger, cfg config.BrowserConfig, pacer *pacing.Pacer) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(allocatorCtx)

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		pacer:  pacer,
		ctx:    tabCtx,
		cancel: cancel,
	}
	s.log = log.Named("session").With(zap.String("session_id", s.id))

	// An empty run forces the tab into existence so failures surface here
	// rather than on the first operation.
	startCtx, cancelStart := context.WithTimeout(tabCtx, cfg.NavTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	s.log.Debug("Session tab opened.")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// run executes chromedp actions on the tab with the given timeout, honoring
// cancellation of the caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

// Navigate loads the URL and waits for the page load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.log.Debug("Navigating.", zap.String("url", url))
	if err := s.run(ctx, s.cfg.NavTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// SwitchToDefaultContent resets element resolution to the top level document.
func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	s.mu.Lock()
	s.scope = nil
	s.mu.Unlock()
	return nil
}

// Find locates the first element matching the selector, (nil, nil) when no
// element matches.
func (s *Session) Find(ctx context.Context, by schemas.By, sel string) (schemas.Element, error) {
	nodes, err := s.query(ctx, by, sel, nil, true)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &element{s: s, node: nodes[0]}, nil
}

// FindAll locates every element matching the selector, in document order.
func (s *Session) FindAll(ctx context.Context, by schemas.By, sel string) ([]schemas.Element, error) {
	nodes, err := s.query(ctx, by, sel, nil, false)
	if err != nil {
		return nil, err
	}
	return wrapNodes(s, nodes), nil
}

// WaitVisible blocks until an element matching the selector is visible.
func (s *Session) WaitVisible(ctx context.Context, by schemas.By, sel string) error {
	q, opt, err := translate(by, sel)
	if err != nil {
		return err
	}
	if err := s.run(ctx, s.cfg.NavTimeout, chromedp.WaitVisible(q, opt)); err != nil {
		return fmt.Errorf("wait for %s %q failed: %w", by, sel, err)
	}
	return nil
}

// Close releases the tab.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	s.cancel()
	s.log.Debug("Session closed.")
	return nil
}

// translate converts a location strategy into a chromedp selector and query
// option.
func translate(by schemas.By, sel string) (string, chromedp.QueryOption, error) {
	switch by {
	case schemas.ByID:
		return "#" + sel, chromedp.ByQueryAll, nil
	case schemas.ByClass:
		return "." + sel, chromedp.ByQueryAll, nil
	case schemas.ByTag:
		return sel, chromedp.ByQueryAll, nil
	case schemas.ByXPath:
		return sel, chromedp.BySearch, nil
	default:
		return "", nil, fmt.Errorf("unsupported location strategy %q", by)
	}
}

// query resolves nodes for a selector, optionally scoped to a parent node.
// Absence is not an error; the caller gets an empty slice.
func (s *Session) query(ctx context.Context, by schemas.By, sel string, parent *cdp.Node, firstOnly bool) ([]*cdp.Node, error) {
	q, opt, err := translate(by, sel)
	if err != nil {
		return nil, err
	}

	opts := []chromedp.QueryOption{opt, chromedp.AtLeast(0)}
	if parent != nil {
		if by == schemas.ByXPath {
			return nil, fmt.Errorf("xpath queries cannot be scoped to an element")
		}
		opts = append(opts, chromedp.FromNode(parent))
	}

	var nodes []*cdp.Node
	if err := s.run(ctx, s.cfg.OpTimeout, chromedp.Nodes(q, &nodes, opts...)); err != nil {
		return nil, classify(fmt.Errorf("query %s %q failed: %w", by, sel, err))
	}
	if firstOnly && len(nodes) > 1 {
		nodes = nodes[:1]
	}
	return nodes, nil
}

func wrapNodes(s *Session, nodes []*cdp.Node) []schemas.Element {
	if len(nodes) == 0 {
		return nil
	}
	els := make([]schemas.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{s: s, node: n})
	}
	return els
}

// -- element --

// element is a handle to a located DOM node. The attribute snapshot is the
// one taken when the node was resolved; interactions hit the live page and
// may come back ErrStaleElement if the node has since been detached.
type element struct {
	s    *Session
	node *cdp.Node
}

var _ schemas.Element = (*element)(nil)

// Click scrolls the node into view and dispatches a mouse click on it.
func (e *element) Click(ctx context.Context) error {
	if err := e.s.run(ctx, e.s.cfg.OpTimeout, chromedp.MouseClickNode(e.node)); err != nil {
		return classify(fmt.Errorf("click on node %d failed: %w", e.node.NodeID, err))
	}
	return nil
}

// SendKeys focuses the node and types the text one rune at a time with the
// pacer's keystroke cadence.
func (e *element) SendKeys(ctx context.Context, text string) error {
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(c context.Context) error {
			return dom.Focus().WithNodeID(e.node.NodeID).Do(c)
		}),
	}
	for _, r := range text {
		key := string(r)
		actions = append(actions,
			chromedp.KeyEvent(key),
			chromedp.ActionFunc(func(c context.Context) error {
				return e.s.pacer.Pause(c, e.s.pacer.KeyDelay())
			}),
		)
	}

	if err := e.s.run(ctx, e.s.cfg.OpTimeout, actions...); err != nil {
		return classify(fmt.Errorf("send keys to node %d failed: %w", e.node.NodeID, err))
	}
	return nil
}

// Attr returns the attribute value from the snapshot, "" when unset.
func (e *element) Attr(name string) string {
	return e.node.AttributeValue(name)
}

// HasClass reports whether the snapshot class list contains name.
func (e *element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.node.AttributeValue("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Text returns the node's visible text content.
func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.s.run(ctx, e.s.cfg.OpTimeout,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", classify(fmt.Errorf("read text of node %d failed: %w", e.node.NodeID, err))
	}
	return text, nil
}

// Find locates the first matching element within this node's subtree.
func (e *element) Find(ctx context.Context, by schemas.By, sel string) (schemas.Element, error) {
	nodes, err := e.s.query(ctx, by, sel, e.node, true)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &element{s: e.s, node: nodes[0]}, nil
}

// FindAll locates all matching elements within this node's subtree.
func (e *element) FindAll(ctx context.Context, by schemas.By, sel string) ([]schemas.Element, error) {
	nodes, err := e.s.query(ctx, by, sel, e.node, false)
	if err != nil {
		return nil, err
	}
	return wrapNodes(e.s, nodes), nil
}
