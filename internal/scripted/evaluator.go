// Package scripted turns config policy specs into health.Policy
// implementations: command-backed sensors plus JavaScript expressions (goja)
// for the detect, diagnose, and resolve stages.
package scripted

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// Evaluator evaluates stage expressions in a JavaScript runtime. A fresh VM
// is created per evaluation so expressions cannot leak state between stages
// or policies.
type Evaluator struct{}

// EvalBool evaluates expr with the given globals bound and reports whether
// the result is truthy (JavaScript semantics).
func (e *Evaluator) EvalBool(expr string, globals map[string]any) (bool, error) {
	vm := goja.New()
	for name, value := range globals {
		jsValue, err := toJS(value)
		if err != nil {
			return false, fmt.Errorf("bind %s: %w", name, err)
		}
		if err := vm.Set(name, jsValue); err != nil {
			return false, fmt.Errorf("set %s: %w", name, err)
		}
	}

	result, err := vm.RunString(expr)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	return result.ToBoolean(), nil
}

// toJS converts a Go value to plain maps/slices via a JSON round-trip, so
// expressions see the json field names (m.value, s.name) rather than Go
// struct fields.
func toJS(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
