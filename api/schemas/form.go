package schemas

import "time"

// -- Form Control Payloads --

// Field is the generic payload for setting a simple form field. The ID is the
// DOM element id of the control and Value is the text to place in it.
type Field struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// OptionSet describes a selection inside an option-set (dropdown) control.
// Name is the DOM element id of the control; Value matches either the visible
// text of an option or its value attribute.
type OptionSet struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompositeControl describes a composite field (e.g. a full-name or address
// control) whose constituent parts are edited through a fly-out. ID is the
// root element id; Fields holds the sub-fields in the order they should be
// filled.
type CompositeControl struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// -- Scenario Types --

// StepOp identifies the kind of form operation a scenario step performs.
type StepOp string

const (
	StepSetText      StepOp = "set_text"
	StepSetField     StepOp = "set_field"
	StepSetCheckbox  StepOp = "set_checkbox"
	StepSetDate      StepOp = "set_date"
	StepSetOptionSet StepOp = "set_optionset"
	StepSetComposite StepOp = "set_composite"
	StepSelectLookup StepOp = "select_lookup"
	StepSave         StepOp = "save"
	StepCancel       StepOp = "cancel"
)

// LookupMode selects which variant of lookup selection a select_lookup step
// uses.
type LookupMode string

const (
	LookupByIndex LookupMode = "index"
	LookupByValue LookupMode = "value"
	LookupLast    LookupMode = "last"
)

// Step is a single scripted operation against the quick create form. Only the
// fields relevant to the Op are populated; the runner validates the rest.
type Step struct {
	Op      StepOp     `json:"op"`
	Field   string     `json:"field,omitempty"`
	Value   string     `json:"value,omitempty"`
	Checked *bool      `json:"checked,omitempty"`
	Index   *int       `json:"index,omitempty"`
	Mode    LookupMode `json:"mode,omitempty"`
	Fields  []Field    `json:"fields,omitempty"`
}

// Scenario is a named, ordered script of quick create operations executed
// against a single URL in one isolated browser session.
type Scenario struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Steps []Step `json:"steps"`
}

// -- Results --

// CommandResult is the outcome envelope of a single driven operation: the
// descriptive label, whether it succeeded, and how long it took.
type CommandResult struct {
	Name      string        `json:"name"`
	Success   bool          `json:"success"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// StepResult records the outcome of one scenario step for reporting and
// persistence.
type StepResult struct {
	Seq        int       `json:"seq"`
	Op         string    `json:"op"`
	Field      string    `json:"field,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// RunReport aggregates the results of one scenario run. Success is true only
// when every step succeeded.
type RunReport struct {
	RunID       string       `json:"run_id"`
	Scenario    string       `json:"scenario"`
	URL         string       `json:"url"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Success     bool         `json:"success"`
	Steps       []StepResult `json:"steps"`
}
