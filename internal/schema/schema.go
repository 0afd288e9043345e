// Package schema holds the gohcl-tagged structs that mirror the on-disk HCL
// layout of the service's settings and descriptor files. The structs are
// decoded by the hcl package and translated into the format-agnostic
// config model; nothing else should depend on them.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Settings File ---

// Folders is the `folders` block.
type Folders struct {
	Data      string `hcl:"data"`
	Assemble  string `hcl:"assemble"`
	Projects  string `hcl:"projects"`
	Temporary string `hcl:"temporary,optional"`
}

// Processors is the `processors` block.
type Processors struct {
	Evaluation    string   `hcl:"evaluation"`
	Recognition   string   `hcl:"recognition"`
	Training      string   `hcl:"training"`
	TimeConsuming []string `hcl:"time_consuming,optional"`
}

// Training is the `training` block.
type Training struct {
	DatasetFilename string `hcl:"dataset_filename,optional"`
	RecordFilename  string `hcl:"record_filename,optional"`
}

// Output is the `output` block.
type Output struct {
	DiscardStdout bool `hcl:"discard_stdout,optional"`
	DiscardStderr bool `hcl:"discard_stderr,optional"`
}

// Scheduler is the `scheduler` block. Timeout is a Go duration string.
type Scheduler struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Timeout            string `hcl:"timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

// MinIO is the `minio` block nested in `records`.
type MinIO struct {
	Endpoint  string `hcl:"endpoint"`
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`
	Bucket    string `hcl:"bucket,optional"`
	UseSSL    bool   `hcl:"use_ssl,optional"`
}

// Records is the `records` block.
type Records struct {
	Backend string `hcl:"backend,optional"`
	MinIO   *MinIO `hcl:"minio,block"`
}

// Tracing is the `tracing` block.
type Tracing struct {
	Exporter string  `hcl:"exporter,optional"`
	Endpoint string  `hcl:"endpoint,optional"`
	Insecure bool    `hcl:"insecure,optional"`
	Sampler  string  `hcl:"sampler,optional"`
	Ratio    float64 `hcl:"ratio,optional"`
}

// SettingsFile is the top-level structure of a settings file.
type SettingsFile struct {
	Resources  string     `hcl:"resources,optional"`
	Folders    Folders    `hcl:"folders,block"`
	Processors Processors `hcl:"processors,block"`
	Training   *Training  `hcl:"training,block"`
	Output     *Output    `hcl:"output,block"`
	Scheduler  *Scheduler `hcl:"scheduler,block"`
	Records    *Records   `hcl:"records,block"`
	Tracing    *Tracing   `hcl:"tracing,block"`
}

// --- Descriptor File ---

// Alias maps one argument token to its literal values. Values may mix
// strings and numbers; they are converted to strings on decode.
type Alias struct {
	Token  string         `hcl:"token,label"`
	Values hcl.Expression `hcl:"values"`
}

// Reserved is one framework argument; the label is its role.
type Reserved struct {
	Role  string `hcl:"role,label"`
	Flag  string `hcl:"flag"`
	Value string `hcl:"value,optional"`
}

// Framework is the `framework` block of a training descriptor.
type Framework struct {
	Version  string      `hcl:"version"`
	Reserved []*Reserved `hcl:"reserved,block"`
}

// DescriptorFile is the top-level structure of a job kind descriptor.
// Model is kept as an expression because its shape is free-form.
type DescriptorFile struct {
	Description string         `hcl:"description"`
	Categories  []string       `hcl:"categories,optional"`
	Steps       []string       `hcl:"steps,optional"`
	Model       hcl.Expression `hcl:"model,optional"`
	Aliases     []*Alias       `hcl:"alias,block"`
	Framework   *Framework     `hcl:"framework,block"`
}
