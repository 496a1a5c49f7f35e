// File: internal/quickcreate/lookup_test.go
package quickcreate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
)

// dialogLinks returns, per dialog list item, its link children in order.
func dialogLinks(doc *fakeElement, field string) [][]*fakeElement {
	menu := doc.byID(elements.LookupMenuID(field))
	if menu == nil {
		return nil
	}
	var out [][]*fakeElement
	for _, li := range menu.search(schemas.ByTag, elements.DialogItemTag) {
		out = append(out, li.search(schemas.ByTag, elements.DialogLinkTag))
	}
	return out
}

func TestSelectLookupMissingFieldFailsWithoutClick(t *testing.T) {
	t.Parallel()
	doc := el("body", nil)
	f := newTestPage(t, doc)
	ctx := context.Background()

	ok, err := f.page.SelectLookupByIndex(ctx, "parentcustomerid", 0)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.Contains(t, err.Error(), "parentcustomerid")

	ok, err = f.page.SelectLookupByValue(ctx, "parentcustomerid", "Alpha")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFieldNotFound)

	ok, err = f.page.SelectLookup(ctx, "parentcustomerid")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFieldNotFound)

	assert.Equal(t, 0, doc.totalClicks())
}

func TestSelectLookupRejectsNonLookupField(t *testing.T) {
	t.Parallel()
	// The control exists but does not carry the lookup marker class.
	doc := el("body", nil,
		el("div", map[string]string{"id": "revenue", "class": "ms-crm-Inline-Edit"}))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookup(context.Background(), "revenue")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotLookup)
	assert.Contains(t, err.Error(), "revenue")
	assert.Equal(t, 0, doc.totalClicks())
}

func TestSelectLookupMissingMenuFails(t *testing.T) {
	t.Parallel()
	doc := el("body", nil,
		el("div", map[string]string{"id": "parentcustomerid", "class": elements.Class(elements.LookupMarker)}))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookup(context.Background(), "parentcustomerid")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.Contains(t, err.Error(), "lookup menu")
}

func TestSelectLookupByIndexClicksExactEntry(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC", "Gamma Corp"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookupByIndex(context.Background(), "parentcustomerid", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	links := dialogLinks(doc, "parentcustomerid")
	require.Len(t, links, 3)
	assert.Equal(t, 0, links[0][1].clicks)
	assert.Equal(t, 1, links[1][1].clicks, "the titled link of entry 1 is the click target")
	assert.Equal(t, 0, links[2][1].clicks)
	assert.Equal(t, 1, doc.byID(elements.LookupMenuID("parentcustomerid")).clicks, "the menu trigger opens the dialog")
}

func TestSelectLookupByIndexOutOfRange(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC", "Gamma Corp"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookupByIndex(context.Background(), "parentcustomerid", 5)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrItemIndex)
	assert.Contains(t, err.Error(), "does not have 6 items")

	ok, err = f.page.SelectLookupByIndex(context.Background(), "parentcustomerid", -1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrItemIndex)

	for _, links := range dialogLinks(doc, "parentcustomerid") {
		assert.Equal(t, 0, links[1].clicks, "no entry may be clicked on a failed index selection")
	}
}

func TestSelectLookupByValueClicksMatchingEntry(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC", "Gamma Corp"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookupByValue(context.Background(), "parentcustomerid", "Beta LLC")
	require.NoError(t, err)
	assert.True(t, ok)

	links := dialogLinks(doc, "parentcustomerid")
	assert.Equal(t, 0, links[0][1].clicks)
	assert.Equal(t, 1, links[1][1].clicks)
	assert.Equal(t, 0, links[2][1].clicks)
}

func TestSelectLookupByValueNoMatch(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookupByValue(context.Background(), "parentcustomerid", "Delta GmbH")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Contains(t, err.Error(), "Delta GmbH")

	for _, links := range dialogLinks(doc, "parentcustomerid") {
		assert.Equal(t, 0, links[1].clicks)
	}
}

func TestSelectLookupDefaultClicksLastEntry(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC", "Gamma Corp"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookup(context.Background(), "parentcustomerid")
	require.NoError(t, err)
	assert.True(t, ok)

	links := dialogLinks(doc, "parentcustomerid")
	assert.Equal(t, 0, links[0][1].clicks)
	assert.Equal(t, 0, links[1][1].clicks)
	assert.Equal(t, 1, links[2][1].clicks)
}

func TestSelectLookupDefaultSwallowsStaleClick(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC"))
	links := dialogLinks(doc, "parentcustomerid")
	links[1][1].clickErr = fmt.Errorf("%w: node detached mid-click", schemas.ErrStaleElement)

	f := newTestPage(t, doc)
	ok, err := f.page.SelectLookup(context.Background(), "parentcustomerid")
	require.NoError(t, err, "a stale click on the select-last path is tolerated")
	assert.True(t, ok)
	assert.True(t, f.lastResult(t).Success)
}

func TestSelectLookupByValueStalePropagates(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid", "Alpha Industries", "Beta LLC"))
	links := dialogLinks(doc, "parentcustomerid")
	links[0][1].clickErr = fmt.Errorf("%w: node detached mid-click", schemas.ErrStaleElement)

	f := newTestPage(t, doc)
	ok, err := f.page.SelectLookupByValue(context.Background(), "parentcustomerid", "Alpha Industries")
	assert.False(t, ok)
	assert.ErrorIs(t, err, schemas.ErrStaleElement, "staleness outside the select-last path surfaces")
}

func TestSelectLookupDefaultOnEmptyDialog(t *testing.T) {
	t.Parallel()
	doc := el("body", nil, lookupField("parentcustomerid"))
	f := newTestPage(t, doc)

	ok, err := f.page.SelectLookup(context.Background(), "parentcustomerid")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrItemIndex)
	assert.Contains(t, err.Error(), "does not have 1 items")
}

func TestOpenDialogKeepsOnlyWellFormedMenuItems(t *testing.T) {
	t.Parallel()
	// A separator without a role, a malformed item with a single link, and one
	// well formed entry. Only the last participates in selection.
	menu := el("div", map[string]string{"id": elements.LookupMenuID("ownerid")},
		el("ul", nil,
			el("li", map[string]string{"class": "ms-crm-MenuSeparator"},
				el("a", nil), el("a", map[string]string{"title": "Separator"})),
			el("li", map[string]string{"role": elements.MenuItemRole},
				el("a", map[string]string{"title": "Lonely"})),
			el("li", map[string]string{"role": elements.MenuItemRole},
				el("a", nil), el("a", map[string]string{"title": "Keeper"})),
		),
	)
	doc := el("body", nil,
		el("div", map[string]string{"id": "ownerid", "class": elements.Class(elements.LookupMarker)}),
		menu,
	)
	f := newTestPage(t, doc)

	// Index 1 does not exist because only one entry survives the filter.
	ok, err := f.page.SelectLookupByIndex(context.Background(), "ownerid", 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrItemIndex)
	assert.Contains(t, err.Error(), "does not have 2 items")

	// The surviving entry is selectable by its title.
	ok, err = f.page.SelectLookupByValue(context.Background(), "ownerid", "Keeper")
	require.NoError(t, err)
	assert.True(t, ok)
}
