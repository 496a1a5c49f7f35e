// File: internal/runner/scenario.go
package runner

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// LoadScenarioFile reads and validates one scenario definition from disk.
func LoadScenarioFile(path string) (schemas.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schemas.Scenario{}, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	var sc schemas.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return schemas.Scenario{}, fmt.Errorf("failed to decode scenario file %s: %w", path, err)
	}
	if err := ValidateScenario(sc); err != nil {
		return schemas.Scenario{}, fmt.Errorf("invalid scenario file %s: %w", path, err)
	}
	return sc, nil
}

// ValidateScenario rejects malformed scenarios before any browser work
// starts.
func ValidateScenario(sc schemas.Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if sc.URL == "" {
		return fmt.Errorf("scenario %s: url is required", sc.Name)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %s: at least one step is required", sc.Name)
	}
	for i, step := range sc.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("scenario %s: step %d: %w", sc.Name, i, err)
		}
	}
	return nil
}

func validateStep(step schemas.Step) error {
	switch step.Op {
	case schemas.StepSave, schemas.StepCancel:
		return nil
	case schemas.StepSetText, schemas.StepSetField, schemas.StepSetDate, schemas.StepSetOptionSet:
		if step.Field == "" {
			return fmt.Errorf("op %s requires a field", step.Op)
		}
		return nil
	case schemas.StepSetCheckbox:
		if step.Field == "" {
			return fmt.Errorf("op %s requires a field", step.Op)
		}
		if step.Checked == nil {
			return fmt.Errorf("op %s requires checked", step.Op)
		}
		return nil
	case schemas.StepSetComposite:
		if step.Field == "" {
			return fmt.Errorf("op %s requires a field", step.Op)
		}
		if len(step.Fields) == 0 {
			return fmt.Errorf("op %s requires sub-fields", step.Op)
		}
		return nil
	case schemas.StepSelectLookup:
		if step.Field == "" {
			return fmt.Errorf("op %s requires a field", step.Op)
		}
		switch step.Mode {
		case schemas.LookupByIndex:
			if step.Index == nil {
				return fmt.Errorf("lookup mode %s requires an index", step.Mode)
			}
		case schemas.LookupByValue:
			if step.Value == "" {
				return fmt.Errorf("lookup mode %s requires a value", step.Mode)
			}
		case schemas.LookupLast, "":
			// Default variant needs nothing beyond the field.
		default:
			return fmt.Errorf("unknown lookup mode %q", step.Mode)
		}
		return nil
	case "":
		return fmt.Errorf("step op is required")
	default:
		return fmt.Errorf("unknown step op %q", step.Op)
	}
}
