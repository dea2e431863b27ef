// Package schema validates GameAnalytics event bodies against the per-category
// rule tables. Validation is pure: it never mutates the body and keeps no state
// between calls.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"unicode/utf8"
)

// Kind is the primitive kind a field value must have.
type Kind string

// Supported kinds.
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
)

// Rule describes the constraints on a single field.
type Rule struct {
	Type     Kind
	Required bool
	Enum     []string
	Pattern  *regexp.Regexp

	// MaxLength is the maximum rune count of a string value. Zero means unbounded.
	MaxLength int

	// Minimum is the lower bound of a numeric value. Nil means unbounded.
	Minimum *float64
}

// RuleSet maps field names to rules.
type RuleSet map[string]Rule

// merge returns a new RuleSet holding base overlaid with r.
func (r RuleSet) merge(base RuleSet) RuleSet {
	out := make(RuleSet, len(r)+len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Validator checks event bodies against registered rule sets. Every
// registered category inherits the shared base rule set.
type Validator struct {
	sets map[string]RuleSet
}

// NewValidator returns a Validator loaded with the GameAnalytics rule tables.
func NewValidator() *Validator {
	return NewValidatorWithRules(baseRules, categoryRules)
}

// NewValidatorWithRules builds a Validator from an explicit base rule set and
// per-category rules. Category rules win over base rules on conflict.
func NewValidatorWithRules(base RuleSet, categories map[string]RuleSet) *Validator {
	sets := make(map[string]RuleSet, len(categories))
	for name, rules := range categories {
		sets[name] = rules.merge(base)
	}
	return &Validator{sets: sets}
}

// Known reports whether eventType has a registered rule set.
func (v *Validator) Known(eventType string) bool {
	_, ok := v.sets[eventType]
	return ok
}

// Validate applies the rule set for eventType to fields and returns every
// violation found. A nil result means the body is valid.
//
// Checks never stop at the first failing field. Within a field, the first
// failing check is reported. Absent optional fields are skipped.
func (v *Validator) Validate(eventType string, fields map[string]any) Violations {
	rules, ok := v.sets[eventType]
	if !ok {
		var errs Violations
		errs.Add("category", fmt.Sprintf("unknown event type %q", eventType))
		return errs
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs Violations
	for _, name := range names {
		checkField(&errs, name, rules[name], fields)
	}
	return errs
}

func checkField(errs *Violations, name string, rule Rule, fields map[string]any) {
	value, present := fields[name]
	if !present || value == nil {
		if rule.Required {
			errs.Add(name, fmt.Sprintf("missing required property %q", name))
		}
		return
	}

	if s, isString := value.(string); isString && s == "" && rule.Required {
		errs.Add(name, fmt.Sprintf("missing required property %q", name))
		return
	}

	if rule.Type != "" && kindOf(value) != rule.Type {
		errs.Add(name, fmt.Sprintf("property %q must be of type %q", name, rule.Type))
		return
	}

	serialized := fmt.Sprint(value)

	if len(rule.Enum) > 0 && !contains(rule.Enum, serialized) {
		errs.Add(name, fmt.Sprintf("invalid value %q for property %q", serialized, name))
		return
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(serialized) {
		errs.Add(name, fmt.Sprintf("invalid value %q supplied for property %q", serialized, name))
		return
	}

	if rule.MaxLength > 0 {
		if s, isString := value.(string); isString && utf8.RuneCountInString(s) > rule.MaxLength {
			errs.Add(name, fmt.Sprintf("property %q exceeds max length %d", name, rule.MaxLength))
			return
		}
	}

	if rule.Minimum != nil {
		if n, isNumber := toFloat(value); isNumber && n < *rule.Minimum {
			errs.Add(name, fmt.Sprintf("property %q must be at least %v", name, *rule.Minimum))
		}
	}
}

// kindOf maps a Go value to the primitive kind used by the rule tables.
func kindOf(value any) Kind {
	switch value.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return KindNumber
	case map[string]any, []any:
		return KindObject
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return KindObject
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBoolean
	default:
		return ""
	}
}

func toFloat(value any) (float64, bool) {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func minimum(v float64) *float64 {
	return &v
}
