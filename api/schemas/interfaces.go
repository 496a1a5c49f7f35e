package schemas

import (
	"context"
	"errors"
)

// -- Driver Interfaces --

// ErrStaleElement is returned by element interactions when the underlying DOM
// node was detached between location and use. It is part of the driver
// contract so page objects can classify it without knowing the driver.
var ErrStaleElement = errors.New("stale element reference")

// By names the element location strategies the driver supports.
type By string

const (
	ByID    By = "id"    // locate by element id
	ByClass By = "class" // locate by CSS class name
	ByTag   By = "tag"   // locate by tag name
	ByXPath By = "xpath" // locate by XPath expression
)

// FormSession is the capability set a page object needs from the underlying
// browser driver: locate elements, switch document context, navigate. It is
// implemented for the Chrome DevTools Protocol in internal/browser; tests may
// substitute a fake.
type FormSession interface {
	// ID returns the unique identifier of this session.
	ID() string
	// Navigate loads the given URL and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// SwitchToDefaultContent resets element resolution to the top level
	// document, leaving any frame scope a previous operation selected.
	SwitchToDefaultContent(ctx context.Context) error
	// Find locates the first element matching the selector. An absent element
	// is not an error: the session returns (nil, nil) so callers can
	// null-guard optional controls.
	Find(ctx context.Context, by By, sel string) (Element, error)
	// FindAll locates every element matching the selector, in document order.
	FindAll(ctx context.Context, by By, sel string) ([]Element, error)
	// WaitVisible blocks until an element matching the selector is visible.
	WaitVisible(ctx context.Context, by By, sel string) error
	// Close releases the tab and its resources.
	Close(ctx context.Context) error
}

// Element is a handle to a located DOM node. Attribute reads are served from
// the snapshot taken when the element was located; interactions go back to
// the live page and can fail with a stale reference if the node has been
// detached since.
type Element interface {
	// Click dispatches a mouse click on the element.
	Click(ctx context.Context) error
	// SendKeys focuses the element and types the text into it.
	SendKeys(ctx context.Context, text string) error
	// Attr returns the value of the named attribute, or "" if unset.
	Attr(name string) string
	// HasClass reports whether the element's class attribute contains name.
	HasClass(name string) bool
	// Text returns the element's visible text content.
	Text(ctx context.Context) (string, error)
	// Find locates the first matching element within this element's subtree,
	// (nil, nil) when absent.
	Find(ctx context.Context, by By, sel string) (Element, error)
	// FindAll locates all matching elements within this element's subtree.
	FindAll(ctx context.Context, by By, sel string) ([]Element, error)
}

// -- Store Interface --

// RunStore is the persistence boundary for scenario run history. The
// PostgreSQL implementation lives in internal/store; the interface keeps the
// CLI and runner independent of it.
type RunStore interface {
	// SaveRun persists a completed run and all of its step results.
	SaveRun(ctx context.Context, report *RunReport) error
	// GetRun retrieves a previously persisted run by its id.
	GetRun(ctx context.Context, runID string) (*RunReport, error)
}
