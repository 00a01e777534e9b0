package validator

import (
	"fmt"
	"sort"
	"strings"
)

// Define a new Validator type which contains a map of validation errors. The
// Validator is an error itself, so services can return it as is and the
// transport layer can recognise it with errors.As.
type Validator map[string]string

// New is a helper which creates a new Validator instance with an empty errors map.
func New() Validator {
	return make(Validator)
}

// Error joins every field error, sorted by field name.
func (v Validator) Error() string {
	var messages []string
	for key, val := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", key, val))
	}
	sort.Strings(messages)
	return strings.Join(messages, ", ")
}

// Ok returns true if the errors map doesn't contain any entries.
func (v Validator) Ok() bool {
	return len(v) == 0
}

// AddError adds an error message to the map (so long as no entry already exists for
// the given key).
func (v Validator) AddError(key, message string) {
	if _, exists := v[key]; !exists {
		v[key] = message
	}
}

// Check adds an error message to the map only if a validation check is not 'ok'.
func (v Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}
