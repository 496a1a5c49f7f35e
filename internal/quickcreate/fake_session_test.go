// File: internal/quickcreate/fake_session_test.go
package quickcreate

import (
	"context"
	"strings"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// fakeElement is an in-memory DOM node that records every interaction, so
// tests can assert exact click counts and typed values.
type fakeElement struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*fakeElement

	clicks   int
	typed    []string
	clickErr error
}

func el(tag string, attrs map[string]string, children ...*fakeElement) *fakeElement {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &fakeElement{tag: tag, attrs: attrs, children: children}
}

func (f *fakeElement) matches(by schemas.By, sel string) bool {
	switch by {
	case schemas.ByID:
		return f.attrs["id"] == sel
	case schemas.ByClass:
		return f.hasClass(sel)
	case schemas.ByTag:
		return f.tag == sel
	default:
		return false
	}
}

func (f *fakeElement) hasClass(name string) bool {
	for _, c := range strings.Fields(f.attrs["class"]) {
		if c == name {
			return true
		}
	}
	return false
}

// descendants returns the subtree below f in document order.
func (f *fakeElement) descendants() []*fakeElement {
	var out []*fakeElement
	for _, c := range f.children {
		out = append(out, c)
		out = append(out, c.descendants()...)
	}
	return out
}

func (f *fakeElement) search(by schemas.By, sel string) []*fakeElement {
	var out []*fakeElement
	for _, d := range f.descendants() {
		if d.matches(by, sel) {
			out = append(out, d)
		}
	}
	return out
}

// totalClicks sums the click counts over f and its whole subtree.
func (f *fakeElement) totalClicks() int {
	n := f.clicks
	for _, c := range f.children {
		n += c.totalClicks()
	}
	return n
}

// byID fetches a node for assertions, nil when absent.
func (f *fakeElement) byID(id string) *fakeElement {
	if f.attrs["id"] == id {
		return f
	}
	for _, c := range f.children {
		if hit := c.byID(id); hit != nil {
			return hit
		}
	}
	return nil
}

// -- schemas.Element --

func (f *fakeElement) Click(ctx context.Context) error {
	f.clicks++
	return f.clickErr
}

func (f *fakeElement) SendKeys(ctx context.Context, text string) error {
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeElement) Attr(name string) string { return f.attrs[name] }

func (f *fakeElement) HasClass(name string) bool { return f.hasClass(name) }

func (f *fakeElement) Text(ctx context.Context) (string, error) { return f.text, nil }

func (f *fakeElement) Find(ctx context.Context, by schemas.By, sel string) (schemas.Element, error) {
	if hits := f.search(by, sel); len(hits) > 0 {
		return hits[0], nil
	}
	return nil, nil
}

func (f *fakeElement) FindAll(ctx context.Context, by schemas.By, sel string) ([]schemas.Element, error) {
	hits := f.search(by, sel)
	out := make([]schemas.Element, 0, len(hits))
	for _, h := range hits {
		out = append(out, h)
	}
	return out, nil
}

// -- schemas.FormSession --

// fakeSession serves one fake document and records session level calls.
type fakeSession struct {
	root      *fakeElement
	switches  int
	navigated []string
	waits     []string
	closed    bool
}

func newFakeSession(root *fakeElement) *fakeSession { return &fakeSession{root: root} }

func (s *fakeSession) ID() string { return "fake-session" }

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *fakeSession) SwitchToDefaultContent(ctx context.Context) error {
	s.switches++
	return nil
}

func (s *fakeSession) Find(ctx context.Context, by schemas.By, sel string) (schemas.Element, error) {
	if s.root.matches(by, sel) {
		return s.root, nil
	}
	if hits := s.root.search(by, sel); len(hits) > 0 {
		return hits[0], nil
	}
	return nil, nil
}

func (s *fakeSession) FindAll(ctx context.Context, by schemas.By, sel string) ([]schemas.Element, error) {
	var out []schemas.Element
	if s.root.matches(by, sel) {
		out = append(out, s.root)
	}
	for _, h := range s.root.search(by, sel) {
		out = append(out, h)
	}
	return out, nil
}

func (s *fakeSession) WaitVisible(ctx context.Context, by schemas.By, sel string) error {
	s.waits = append(s.waits, sel)
	return nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}
