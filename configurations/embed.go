// Package configurations embeds the default descriptor bundle, one resource
// per job kind. A deployment can shadow any of them with a file of the same
// kind in the settings' resources directory.
package configurations

import "embed"

// FS holds evaluation.hcl, recognition.hcl and training.hcl.
//
//go:embed *.hcl
var FS embed.FS
