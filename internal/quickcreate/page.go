// File: internal/quickcreate/page.go
// Package quickcreate is the page object for the CRM client's quick create
// form: a stateless façade over a live browser session exposing the form
// lifecycle (cancel, save), lookup-field selection and typed field setters.
// Nothing is cached between operations; all state lives in the DOM. Every
// operation is a sequence of blocking driver round trips wrapped in the
// command envelope, which labels it, measures it and logs the outcome.
package quickcreate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/command"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
)

// defaultShortDateLayout formats dates the way the form's date inputs expect
// them typed.
const defaultShortDateLayout = "1/2/2006"

// Options carries the form level conventions of the client under automation.
type Options struct {
	// ShortDateLayout is the Go time layout used when typing dates.
	ShortDateLayout string
}

// Page drives one quick create form over one browser session. It is not safe
// for concurrent use; operations are strictly sequential against the session.
type Page struct {
	session schemas.FormSession
	exec    *command.Executor
	pacer   *pacing.Pacer
	opts    Options
	log     *zap.Logger
}

// New builds a page object over the given session.
func New(session schemas.FormSession, exec *command.Executor, pacer *pacing.Pacer, opts Options, log *zap.Logger) *Page {
	if opts.ShortDateLayout == "" {
		opts.ShortDateLayout = defaultShortDateLayout
	}
	return &Page{
		session: session,
		exec:    exec,
		pacer:   pacer,
		opts:    opts,
		log:     log.Named("quickcreate").With(zap.String("session_id", session.ID())),
	}
}

// -- Form lifecycle --

// Cancel dismisses the quick create form. The cancel button being absent is
// not a failure; the form may already be gone.
func (p *Page) Cancel(ctx context.Context) (bool, error) {
	if err := p.pacer.ThinkTime(ctx); err != nil {
		return false, err
	}
	res := p.exec.Run(ctx, "Cancel Quick Create", func(ctx context.Context) error {
		return p.clickFormButton(ctx, elements.QuickCreateCancel)
	})
	return res.Success, res.Err
}

// Save submits the quick create form. Same null-guarded button handling as
// Cancel.
func (p *Page) Save(ctx context.Context) (bool, error) {
	if err := p.pacer.ThinkTime(ctx); err != nil {
		return false, err
	}
	res := p.exec.Run(ctx, "Save Quick Create", func(ctx context.Context) error {
		return p.clickFormButton(ctx, elements.QuickCreateSave)
	})
	return res.Success, res.Err
}

// clickFormButton switches back to the default content and clicks the named
// form button if it is present.
func (p *Page) clickFormButton(ctx context.Context, ref elements.Ref) error {
	if err := p.session.SwitchToDefaultContent(ctx); err != nil {
		return err
	}
	btn, err := p.session.Find(ctx, schemas.ByID, elements.ID(ref))
	if err != nil {
		return err
	}
	if btn == nil {
		p.log.Debug("Form button absent, nothing to click.", zap.String("ref", string(ref)))
		return nil
	}
	return btn.Click(ctx)
}

// -- Shared element resolution --

// findControl resolves a field's root control by id. Absence is a
// precondition failure naming the field.
func (p *Page) findControl(ctx context.Context, field string) (schemas.Element, error) {
	control, err := p.session.Find(ctx, schemas.ByID, field)
	if err != nil {
		return nil, err
	}
	if control == nil {
		return nil, fmt.Errorf("%w: field %s does not exist", ErrFieldNotFound, field)
	}
	return control, nil
}

// focusControl opens a control for editing: the edit affordance is clicked
// when the control renders one, otherwise the display affordance.
func (p *Page) focusControl(ctx context.Context, control schemas.Element, field string) error {
	edit, err := control.Find(ctx, schemas.ByClass, elements.Class(elements.InlineEdit))
	if err != nil {
		return err
	}
	if edit != nil {
		return edit.Click(ctx)
	}
	display, err := control.Find(ctx, schemas.ByClass, elements.Class(elements.InlineValue))
	if err != nil {
		return err
	}
	if display == nil {
		return fmt.Errorf("%w: field %s has no edit or display affordance", ErrFieldNotFound, field)
	}
	return display.Click(ctx)
}
