package schema

import "strings"

// Violation is a single failed check on one field.
type Violation struct {
	Field   string
	Message string
}

// Violations is the collection of failures for one event body.
type Violations []Violation

// Add appends a violation.
func (v *Violations) Add(field, message string) {
	*v = append(*v, Violation{Field: field, Message: message})
}

// HasErrors returns true if any check failed.
func (v Violations) HasErrors() bool {
	return len(v) > 0
}

// HasField returns true if there is a violation for field.
func (v Violations) HasField(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Fields returns the names of the failing fields in report order.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, e := range v {
		fields = append(fields, e.Field)
	}
	return fields
}

// Error joins every message so Violations can be reported as an error.
func (v Violations) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
