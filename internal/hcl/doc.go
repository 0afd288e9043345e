// Package hcl provides the concrete HCL implementation of the config.Loader
// and config.Decoder interfaces. Both native syntax (.hcl) and the JSON
// syntax (.json) are accepted. Expressions are evaluated against a small
// context that exposes the env() function.
package hcl
