// File: internal/quickcreate/lookup.go
package quickcreate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
)

// dialogItem is one selectable entry of an open lookup dialog. The collection
// is ordered because both by-index and select-last depend on enumeration
// order; titles serve the by-value variant. It lives for a single selection
// and is never retained.
type dialogItem struct {
	title string
	el    schemas.Element
}

// SelectLookupByIndex opens the field's selection dialog and clicks the entry
// at the given position. The dialog holding fewer than index+1 entries is a
// precondition failure; nothing is clicked then.
func (p *Page) SelectLookupByIndex(ctx context.Context, field string, index int) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Select Lookup %s [%d]", field, index), func(ctx context.Context) error {
		items, err := p.openDialog(ctx, field)
		if err != nil {
			return err
		}
		if index < 0 || len(items) < index+1 {
			return fmt.Errorf("%w: dialog for %s does not have %d items", ErrItemIndex, field, index+1)
		}
		return items[index].el.Click(ctx)
	})
	return res.Success, res.Err
}

// SelectLookupByValue opens the field's selection dialog and clicks the entry
// whose title equals value exactly.
func (p *Page) SelectLookupByValue(ctx context.Context, field, value string) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Select Lookup %s = %s", field, value), func(ctx context.Context) error {
		items, err := p.openDialog(ctx, field)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.title == value {
				return item.el.Click(ctx)
			}
		}
		return fmt.Errorf("%w: dialog for %s has no item titled %q", ErrItemNotFound, field, value)
	})
	return res.Success, res.Err
}

// SelectLookup opens the field's selection dialog and clicks its last entry.
// The dialog often re-renders under the click on this path, so a stale
// element failure here is expected and swallowed; this is the only operation
// that tolerates staleness.
func (p *Page) SelectLookup(ctx context.Context, field string) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Select Lookup %s", field), func(ctx context.Context) error {
		items, err := p.openDialog(ctx, field)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: dialog for %s does not have %d items", ErrItemIndex, field, 1)
		}
		if err := items[len(items)-1].el.Click(ctx); err != nil {
			if errors.Is(err, schemas.ErrStaleElement) {
				p.log.Debug("Ignoring stale element on default lookup selection.",
					zap.String("field", field))
				return nil
			}
			return err
		}
		return nil
	})
	return res.Success, res.Err
}

// openDialog verifies the field renders as a lookup, opens its selection
// dialog and enumerates the selectable entries. An entry is kept when its
// list item carries the menu item role and contains at least two links; the
// second link names it (title attribute) and is the click target.
func (p *Page) openDialog(ctx context.Context, field string) ([]dialogItem, error) {
	control, err := p.findControl(ctx, field)
	if err != nil {
		return nil, err
	}
	if !control.HasClass(elements.Class(elements.LookupMarker)) {
		return nil, fmt.Errorf("%w: field %s is not a lookup", ErrNotLookup, field)
	}

	menu, err := p.session.Find(ctx, schemas.ByID, elements.LookupMenuID(field))
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, fmt.Errorf("%w: lookup menu for field %s does not exist", ErrFieldNotFound, field)
	}
	if err := menu.Click(ctx); err != nil {
		return nil, err
	}

	rows, err := menu.FindAll(ctx, schemas.ByTag, elements.DialogItemTag)
	if err != nil {
		return nil, err
	}

	var items []dialogItem
	for _, row := range rows {
		if row.Attr("role") != elements.MenuItemRole {
			continue
		}
		links, err := row.FindAll(ctx, schemas.ByTag, elements.DialogLinkTag)
		if err != nil {
			return nil, err
		}
		if len(links) < 2 {
			continue
		}
		items = append(items, dialogItem{title: links[1].Attr("title"), el: links[1]})
	}

	p.log.Debug("Lookup dialog enumerated.",
		zap.String("field", field),
		zap.Int("items", len(items)))
	return items, nil
}
