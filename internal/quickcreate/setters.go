// File: internal/quickcreate/setters.go
package quickcreate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
)

// SetCheckbox drives a boolean field towards the requested state. Only the
// checked to unchecked transition is performed; asking for checked on an
// unchecked box does nothing.
func (p *Page) SetCheckbox(ctx context.Context, field string, check bool) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Set Checkbox %s", field), func(ctx context.Context) error {
		control, err := p.findControl(ctx, field)
		if err != nil {
			return err
		}
		input, err := control.Find(ctx, schemas.ByTag, elements.InputTag)
		if err != nil {
			return err
		}
		if input == nil {
			return fmt.Errorf("%w: field %s has no input", ErrFieldNotFound, field)
		}
		if !check && isChecked(input) {
			return input.Click(ctx)
		}
		return nil
	})
	return res.Success, res.Err
}

// SetDate focuses a date field, types the date in the configured short
// layout and clicks the edit affordance again to commit the value.
func (p *Page) SetDate(ctx context.Context, field string, date time.Time) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Set Date %s", field), func(ctx context.Context) error {
		control, err := p.findControl(ctx, field)
		if err != nil {
			return err
		}
		if err := p.focusControl(ctx, control, field); err != nil {
			return err
		}
		input, err := control.Find(ctx, schemas.ByTag, elements.InputTag)
		if err != nil {
			return err
		}
		if input == nil {
			return fmt.Errorf("%w: field %s has no input", ErrFieldNotFound, field)
		}
		if err := input.SendKeys(ctx, date.Format(p.opts.ShortDateLayout)); err != nil {
			return err
		}
		// Clicking the edit affordance a second time commits the typed value.
		edit, err := control.Find(ctx, schemas.ByClass, elements.Class(elements.InlineEdit))
		if err != nil {
			return err
		}
		if edit == nil {
			return nil
		}
		return edit.Click(ctx)
	})
	return res.Success, res.Err
}

// SetText focuses a free text field and types the value into its multi-line
// area when one exists, its single-line input otherwise.
func (p *Page) SetText(ctx context.Context, field, value string) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Set Text %s", field), func(ctx context.Context) error {
		return p.setText(ctx, field, value)
	})
	return res.Success, res.Err
}

// SetField writes a generic field payload. Identical to SetText, keyed by the
// payload's id and value.
func (p *Page) SetField(ctx context.Context, f schemas.Field) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Set Field %s", f.ID), func(ctx context.Context) error {
		return p.setText(ctx, f.ID, f.Value)
	})
	return res.Success, res.Err
}

func (p *Page) setText(ctx context.Context, field, value string) error {
	control, err := p.findControl(ctx, field)
	if err != nil {
		return err
	}
	if err := p.focusControl(ctx, control, field); err != nil {
		return err
	}
	area, err := control.Find(ctx, schemas.ByTag, elements.TextAreaTag)
	if err != nil {
		return err
	}
	if area != nil {
		return area.SendKeys(ctx, value)
	}
	input, err := control.Find(ctx, schemas.ByTag, elements.InputTag)
	if err != nil {
		return err
	}
	if input == nil {
		return fmt.Errorf("%w: field %s has no input", ErrFieldNotFound, field)
	}
	return input.SendKeys(ctx, value)
}

// SetOptionSet opens a picklist field and clicks the option whose visible
// text or value attribute equals the requested value.
func (p *Page) SetOptionSet(ctx context.Context, o schemas.OptionSet) (bool, error) {
	res := p.exec.Run(ctx, fmt.Sprintf("Set Option Set %s", o.Name), func(ctx context.Context) error {
		control, err := p.findControl(ctx, o.Name)
		if err != nil {
			return err
		}
		if err := control.Click(ctx); err != nil {
			return err
		}
		sel, err := control.Find(ctx, schemas.ByTag, elements.SelectTag)
		if err != nil {
			return err
		}
		if sel == nil {
			return fmt.Errorf("%w: field %s has no select", ErrFieldNotFound, o.Name)
		}
		opts, err := sel.FindAll(ctx, schemas.ByTag, elements.OptionTag)
		if err != nil {
			return err
		}
		for _, opt := range opts {
			text, err := opt.Text(ctx)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == o.Value || opt.Attr("value") == o.Value {
				return opt.Click(ctx)
			}
		}
		return fmt.Errorf("%w: field %s has no option %q", ErrOptionNotFound, o.Name, o.Value)
	})
	return res.Success, res.Err
}

// SetComposite opens a composite control's fly-out editor and writes every
// sub-field, then confirms the fly-out. An absent root is reported as
// (false, nil), the one non-error false of the page object: composites are
// optional on many forms. A root that opens no fly-out is an error.
func (p *Page) SetComposite(ctx context.Context, c schemas.CompositeControl) (bool, error) {
	applied := true
	res := p.exec.Run(ctx, fmt.Sprintf("Set Composite %s", c.ID), func(ctx context.Context) error {
		root, err := p.session.Find(ctx, schemas.ByID, c.ID)
		if err != nil {
			return err
		}
		if root == nil {
			applied = false
			return nil
		}
		if err := root.Click(ctx); err != nil {
			return err
		}
		flyout, err := p.session.Find(ctx, schemas.ByID, elements.CompositeFlyoutID(c.ID))
		if err != nil {
			return err
		}
		if flyout == nil {
			return fmt.Errorf("%w: composite %s did not open a fly-out", ErrNoFlyout, c.ID)
		}
		for _, f := range c.Fields {
			if err := p.setCompositeField(ctx, flyout, c.ID, f); err != nil {
				return err
			}
		}
		confirm, err := p.session.Find(ctx, schemas.ByID, elements.CompositeConfirmID(c.ID))
		if err != nil {
			return err
		}
		if confirm == nil {
			return fmt.Errorf("%w: composite %s has no confirm control", ErrFieldNotFound, c.ID)
		}
		return confirm.Click(ctx)
	})
	if res.Err != nil {
		return false, res.Err
	}
	return applied, nil
}

// setCompositeField reveals one sub-field inside an open fly-out and types
// its value. The input is matched by id containment because the client
// decorates sub-field input ids with form scoping prefixes.
func (p *Page) setCompositeField(ctx context.Context, flyout schemas.Element, rootID string, f schemas.Field) error {
	link, err := flyout.Find(ctx, schemas.ByID, elements.CompositeLinkID(f.ID))
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("%w: composite %s has no sub-field %s", ErrFieldNotFound, rootID, f.ID)
	}
	if err := link.Click(ctx); err != nil {
		return err
	}
	inputs, err := flyout.FindAll(ctx, schemas.ByTag, elements.InputTag)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		if strings.Contains(input.Attr("id"), f.ID) {
			return input.SendKeys(ctx, f.Value)
		}
	}
	return fmt.Errorf("%w: composite %s has no input for sub-field %s", ErrFieldNotFound, rootID, f.ID)
}

// isChecked reads the rendered checked state. The client emits
// checked="checked" on selected boxes, so the attribute snapshot is
// authoritative at resolution time.
func isChecked(input schemas.Element) bool {
	return input.Attr("checked") != ""
}
