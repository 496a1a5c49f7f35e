// File: internal/elements/registry.go
// The static element reference registry: symbolic references resolved to the
// concrete element ids, CSS class names and XPath expressions of the CRM web
// client, plus the fixed id-composition conventions for generated controls.
// The page objects never hard-code a selector; everything DOM-facing lives
// here so a client markup change is a one-file fix.
package elements

// Ref is a symbolic reference to an element of the CRM web client.
type Ref string

const (
	QuickCreateCancel Ref = "quickcreate.cancel"
	QuickCreateSave   Ref = "quickcreate.save"
	QuickCreateRoot   Ref = "quickcreate.root"
	LookupMarker      Ref = "lookup.marker"
	InlineEdit        Ref = "inline.edit"
	InlineValue       Ref = "inline.value"
)

// Tag and attribute conventions of the generated form markup.
const (
	DialogItemTag = "li"
	DialogLinkTag = "a"
	MenuItemRole  = "menuitem"
	InputTag      = "input"
	TextAreaTag   = "textarea"
	SelectTag     = "select"
	OptionTag     = "option"
)

// Suffixes the client appends to a field id when it generates the related
// controls.
const (
	lookupMenuSuffix       = "_IMenu"
	compositeFlyoutSuffix  = "_flyOut"
	compositeLinkSuffix    = "_compositionLinkControl"
	compositeConfirmSuffix = "_flyOut_confirm"
)

// ids maps references to element ids.
var ids = map[Ref]string{
	QuickCreateCancel: "globalquickcreate_cancel_button",
	QuickCreateSave:   "globalquickcreate_save_button",
	QuickCreateRoot:   "globalquickcreate_container",
}

// classes maps references to CSS class names.
var classes = map[Ref]string{
	QuickCreateRoot: "ms-crm-QuickCreate",
	LookupMarker:    "ms-crm-Inline-Lookup",
	InlineEdit:      "ms-crm-Inline-Edit",
	InlineValue:     "ms-crm-Inline-Value",
}

// xpaths maps references to XPath expressions.
var xpaths = map[Ref]string{
	QuickCreateRoot: "//div[contains(@class,'ms-crm-QuickCreate')]",
}

// ID resolves a reference to an element id, "" when the reference has no id
// entry.
func ID(r Ref) string { return ids[r] }

// Class resolves a reference to a CSS class name.
func Class(r Ref) string { return classes[r] }

// XPath resolves a reference to an XPath expression.
func XPath(r Ref) string { return xpaths[r] }

// LookupMenuID returns the id of the selection dialog a lookup field opens.
func LookupMenuID(field string) string { return field + lookupMenuSuffix }

// CompositeFlyoutID returns the id of a composite control's fly-out.
func CompositeFlyoutID(id string) string { return id + compositeFlyoutSuffix }

// CompositeLinkID returns the id of the link control that reveals one
// sub-field inside a composite fly-out.
func CompositeLinkID(sub string) string { return sub + compositeLinkSuffix }

// CompositeConfirmID returns the id of the fly-out's confirm button.
func CompositeConfirmID(id string) string { return id + compositeConfirmSuffix }
