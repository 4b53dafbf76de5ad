package common

import (
	"sort"
	"strings"
)

// ValidationErrors collects field-keyed validation messages. Flows report
// every failing field at once instead of stopping at the first one, so the
// caller can surface all of them simultaneously.
type ValidationErrors map[string]string

// Add records a message for the given field. The first message per field wins.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; ok {
		return
	}
	v[field] = msg
}

// Any reports whether at least one field failed validation.
func (v ValidationErrors) Any() bool {
	return len(v) > 0
}

// Error renders the collected messages in stable field order, so it can be
// used as a plain error string in logs.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, "; ")
}
