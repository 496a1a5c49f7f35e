// File: internal/quickcreate/errors.go
package quickcreate

import "errors"

// Precondition failures of the page object. Each is raised before any click
// happens on the affected control, carries the field id in its message and
// aborts the calling step; none is retried here.
var (
	// ErrFieldNotFound reports that a named field control, or a structural
	// child the operation requires, is absent from the form.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNotLookup reports that the addressed field exists but does not render
	// as a lookup control.
	ErrNotLookup = errors.New("field is not a lookup")

	// ErrItemIndex reports that the selection dialog holds fewer items than
	// the requested index needs.
	ErrItemIndex = errors.New("dialog item index out of range")

	// ErrItemNotFound reports that no dialog entry carries the requested
	// title.
	ErrItemNotFound = errors.New("dialog item not found")

	// ErrOptionNotFound reports that an option set has no option matching the
	// requested text or value.
	ErrOptionNotFound = errors.New("option not found")

	// ErrNoFlyout reports that a composite control was clicked but its fly-out
	// editor did not appear.
	ErrNoFlyout = errors.New("composite fly-out not present")
)
