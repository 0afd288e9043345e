package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, decodes, normalizes and validates a settings file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL settings loader started.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file %s: %w", path, err)
	}
	return l.LoadBytes(ctx, path, src)
}

// LoadBytes is Load for settings already in memory; filename selects the syntax
// and is used in diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*config.Settings, error) {
	file, err := parseSource(hclparse.NewParser(), filename, src)
	if err != nil {
		return nil, err
	}

	var root schema.SettingsFile
	if diags := gohcl.DecodeBody(file.Body, newEvalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode settings file %s: %w", filename, diags)
	}

	settings, err := translateSettings(ctx, &root)
	if err != nil {
		return nil, fmt.Errorf("settings file %s: %w", filename, err)
	}
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", filename, err)
	}

	ctxlog.FromContext(ctx).Debug("HCL settings loading complete.",
		"file", filename,
		"records_backend", settings.Records.Backend,
		"scheduler", settings.Scheduler.URL != "",
	)
	return settings, nil
}

func translateSettings(ctx context.Context, root *schema.SettingsFile) (*config.Settings, error) {
	s := &config.Settings{
		Resources: root.Resources,
		Folders: config.Folders{
			Data:      root.Folders.Data,
			Assemble:  root.Folders.Assemble,
			Projects:  root.Folders.Projects,
			Temporary: root.Folders.Temporary,
		},
		Processors: config.Processors{
			Evaluation:    strings.TrimSpace(root.Processors.Evaluation),
			Recognition:   strings.TrimSpace(root.Processors.Recognition),
			Training:      strings.TrimSpace(root.Processors.Training),
			TimeConsuming: config.ParseTimeConsuming(ctx, root.Processors.TimeConsuming),
		},
	}

	if t := root.Training; t != nil {
		s.Training = config.Training{DatasetFilename: t.DatasetFilename, RecordFilename: t.RecordFilename}
	}
	if o := root.Output; o != nil {
		s.Output = config.Output{DiscardStdout: o.DiscardStdout, DiscardStderr: o.DiscardStderr}
	}
	if sc := root.Scheduler; sc != nil {
		s.Scheduler = config.Scheduler{
			URL:                strings.TrimSpace(sc.URL),
			Namespace:          sc.Namespace,
			InsecureSkipVerify: sc.InsecureSkipVerify,
		}
		if sc.Timeout != "" {
			d, err := time.ParseDuration(sc.Timeout)
			if err != nil {
				return nil, fmt.Errorf("scheduler timeout: %w", err)
			}
			s.Scheduler.Timeout = d
		}
	}
	if r := root.Records; r != nil {
		s.Records.Backend = r.Backend
		if m := r.MinIO; m != nil {
			s.Records.MinIO = config.MinIO{
				Endpoint:  m.Endpoint,
				AccessKey: m.AccessKey,
				SecretKey: m.SecretKey,
				Bucket:    m.Bucket,
				UseSSL:    m.UseSSL,
			}
		}
	}
	if t := root.Tracing; t != nil {
		s.Tracing = config.Tracing{
			Exporter: t.Exporter,
			Endpoint: t.Endpoint,
			Insecure: t.Insecure,
			Sampler:  t.Sampler,
			Ratio:    t.Ratio,
		}
	}
	return s, nil
}
