// Package alias expands symbolic engine arguments into their literal tokens.
//
// Callers may request engine features by a short name ("--fast", "-m") that a
// job kind's descriptor maps to the real engine flags. Expansion happens token
// by token: a token that is a key of the table is replaced in place by its
// mapped tokens, everything else passes through untouched.
package alias

import "slices"

// Table maps an alias token to the ordered literal tokens it stands for. An
// empty value list removes the alias token from the argument list.
type Table map[string][]string

// Expand returns the arguments with every alias token replaced by its literal
// tokens. Order is preserved and unmapped tokens are kept. The input slice is
// never modified; a nil input yields nil.
func (t Table) Expand(arguments []string) []string {
	if arguments == nil {
		return nil
	}
	if len(t) == 0 {
		return slices.Clone(arguments)
	}

	expanded := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if values, ok := t[argument]; ok {
			expanded = append(expanded, values...)
			continue
		}
		expanded = append(expanded, argument)
	}
	return expanded
}

// Keys returns the alias tokens in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
