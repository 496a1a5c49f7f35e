// File: internal/quickcreate/fixtures_test.go
// Fake DOM builders reproducing the markup conventions of the CRM client's
// quick create form, shared by the page object unit tests.
package quickcreate

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/command"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
)

// pageFixture bundles a page object over a fake session with the command
// results it produced.
type pageFixture struct {
	page    *Page
	session *fakeSession
	doc     *fakeElement
	results []schemas.CommandResult
}

func newTestPage(t *testing.T, doc *fakeElement, opts ...Options) *pageFixture {
	return newTestPageWithPacing(t, doc, config.PacingConfig{Enabled: false}, opts...)
}

func newTestPageWithPacing(t *testing.T, doc *fakeElement, pc config.PacingConfig, opts ...Options) *pageFixture {
	t.Helper()

	f := &pageFixture{doc: doc, session: newFakeSession(doc)}
	log := zaptest.NewLogger(t)
	exec := command.New(config.CommandConfig{}, log,
		command.WithObserver(func(r schemas.CommandResult) { f.results = append(f.results, r) }))

	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}
	f.page = New(f.session, exec, pacing.New(pc), o, log)
	return f
}

// lastResult returns the most recent command result the envelope reported.
func (f *pageFixture) lastResult(t *testing.T) schemas.CommandResult {
	t.Helper()
	if len(f.results) == 0 {
		t.Fatal("no command result was recorded")
	}
	return f.results[len(f.results)-1]
}

// -- Markup builders --

// formButtons renders the quick create cancel and save buttons.
func formButtons() []*fakeElement {
	return []*fakeElement{
		el("button", map[string]string{"id": elements.ID(elements.QuickCreateCancel)}),
		el("button", map[string]string{"id": elements.ID(elements.QuickCreateSave)}),
	}
}

// lookupField renders a lookup control plus its selection menu: one menu item
// per title, each holding an icon link and the titled link that selects it.
func lookupField(id string, titles ...string) *fakeElement {
	items := make([]*fakeElement, 0, len(titles))
	for _, title := range titles {
		items = append(items, el("li", map[string]string{"role": elements.MenuItemRole},
			el("a", map[string]string{"class": "ms-crm-Lookup-Item-Icon"}),
			el("a", map[string]string{"title": title}),
		))
	}
	return el("div", nil,
		el("div", map[string]string{"id": id, "class": elements.Class(elements.LookupMarker)}),
		el("div", map[string]string{"id": elements.LookupMenuID(id)},
			el("ul", nil, items...),
		),
	)
}

// checkboxField renders a boolean control; the client emits checked="checked"
// on selected boxes.
func checkboxField(id string, checked bool) *fakeElement {
	attrs := map[string]string{"type": "checkbox"}
	if checked {
		attrs["checked"] = "checked"
	}
	return el("div", map[string]string{"id": id}, el("input", attrs))
}

// textField renders an inline text control. withEdit selects which affordance
// the control carries; multiline swaps the input for a textarea.
func textField(id string, withEdit, multiline bool) *fakeElement {
	affordanceClass := elements.Class(elements.InlineEdit)
	if !withEdit {
		affordanceClass = elements.Class(elements.InlineValue)
	}
	value := el("input", map[string]string{"id": id + "_i", "type": "text"})
	if multiline {
		value = el("textarea", map[string]string{"id": id + "_ta"})
	}
	return el("div", map[string]string{"id": id},
		el("div", map[string]string{"class": affordanceClass}),
		value,
	)
}

// optionSetField renders a picklist control; options are (text, value) pairs.
func optionSetField(name string, options ...[2]string) *fakeElement {
	opts := make([]*fakeElement, 0, len(options))
	for _, o := range options {
		opt := el("option", map[string]string{"value": o[1]})
		opt.text = o[0]
		opts = append(opts, opt)
	}
	return el("div", map[string]string{"id": name}, el("select", nil, opts...))
}

// compositeField renders a composite control with its fly-out editor: one
// link control and one input per sub-field, and the confirm button.
func compositeField(id string, subIDs ...string) *fakeElement {
	var flyoutKids []*fakeElement
	for _, sub := range subIDs {
		flyoutKids = append(flyoutKids,
			el("div", map[string]string{"id": elements.CompositeLinkID(sub)}),
			el("input", map[string]string{"id": id + "_" + sub + "_i"}),
		)
	}
	flyoutKids = append(flyoutKids,
		el("button", map[string]string{"id": elements.CompositeConfirmID(id)}))

	return el("div", nil,
		el("div", map[string]string{"id": id, "class": elements.Class(elements.InlineValue)}),
		el("div", map[string]string{"id": elements.CompositeFlyoutID(id)}, flyoutKids...),
	)
}
