package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
)

const (
	// DefaultDatasetFilename is the manifest written into a model folder.
	DefaultDatasetFilename = "dataset.txt"
	// DefaultRecordFilename is the engine record written into a model folder.
	DefaultRecordFilename = "engine.json"
	// DefaultSchedulerTimeout bounds the wait for a scheduler answer.
	DefaultSchedulerTimeout = 10 * time.Second

	// RecordBackendFile keeps engine records on the local filesystem only.
	RecordBackendFile = "file"
	// RecordBackendMinIO also uploads engine records to a MinIO bucket.
	RecordBackendMinIO = "minio"
)

// Folders are the roots every caller-supplied folder is resolved under.
type Folders struct {
	Data      string
	Assemble  string
	Projects  string
	Temporary string
}

// Processors name the engine executable per job kind.
type Processors struct {
	Evaluation    string
	Recognition   string
	Training      string
	TimeConsuming []model.JobKind
}

// Training holds the fixed filenames written into a model directory.
type Training struct {
	DatasetFilename string
	RecordFilename  string
}

// Output is the capture policy copied into every job descriptor.
type Output struct {
	DiscardStdout bool
	DiscardStderr bool
}

// Scheduler locates the remote job scheduler.
type Scheduler struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// MinIO configures the object store mirror for engine records.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Records selects where engine records are persisted.
type Records struct {
	Backend string
	MinIO   MinIO
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Exporter string
	Endpoint string
	Insecure bool
	Sampler  string
	Ratio    float64
}

// Settings is the complete configuration of one deployment.
type Settings struct {
	Folders    Folders
	Processors Processors
	Training   Training
	Output     Output
	Scheduler  Scheduler
	Records    Records
	Tracing    Tracing
	// Resources is an optional directory searched for descriptor resources
	// before the embedded defaults.
	Resources string
}

// Normalize makes folder roots absolute and fills in defaults. Relative roots
// are taken relative to the process working directory.
func (s *Settings) Normalize() {
	s.Folders.Data = absPath(s.Folders.Data)
	s.Folders.Assemble = absPath(s.Folders.Assemble)
	s.Folders.Projects = absPath(s.Folders.Projects)
	s.Folders.Temporary = absPath(s.Folders.Temporary)
	s.Resources = cleanPath(s.Resources)

	if strings.TrimSpace(s.Training.DatasetFilename) == "" {
		s.Training.DatasetFilename = DefaultDatasetFilename
	}
	if strings.TrimSpace(s.Training.RecordFilename) == "" {
		s.Training.RecordFilename = DefaultRecordFilename
	}
	if s.Scheduler.Timeout <= 0 {
		s.Scheduler.Timeout = DefaultSchedulerTimeout
	}
	if s.Scheduler.Namespace == "" {
		s.Scheduler.Namespace = "/"
	}
	if s.Records.Backend == "" {
		s.Records.Backend = RecordBackendFile
	}
	if s.Tracing.Exporter == "" {
		s.Tracing.Exporter = "none"
	}
}

// Validate reports every missing required field at once.
func (s *Settings) Validate() error {
	var errs []error
	required := map[string]string{
		"folders.data":           s.Folders.Data,
		"folders.assemble":       s.Folders.Assemble,
		"folders.projects":       s.Folders.Projects,
		"processors.evaluation":  s.Processors.Evaluation,
		"processors.recognition": s.Processors.Recognition,
		"processors.training":    s.Processors.Training,
	}
	for _, name := range []string{
		"folders.data", "folders.assemble", "folders.projects",
		"processors.evaluation", "processors.recognition", "processors.training",
	} {
		if strings.TrimSpace(required[name]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	for _, f := range []struct{ name, dir string }{
		{"folders.data", s.Folders.Data},
		{"folders.assemble", s.Folders.Assemble},
		{"folders.projects", s.Folders.Projects},
		{"folders.temporary", s.Folders.Temporary},
	} {
		if f.dir != "" && !filepath.IsAbs(f.dir) {
			errs = append(errs, fmt.Errorf("%s must be an absolute path: %q", f.name, f.dir))
		}
	}
	for _, name := range []string{s.Training.DatasetFilename, s.Training.RecordFilename} {
		if name != filepath.Base(name) {
			errs = append(errs, fmt.Errorf("training filename %q must not contain a path", name))
		}
	}
	switch s.Records.Backend {
	case RecordBackendFile:
	case RecordBackendMinIO:
		if s.Records.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("records.minio.endpoint is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown records backend %q", s.Records.Backend))
	}
	return errors.Join(errs...)
}

// Root returns the folder a job kind's working directory is resolved under.
func (s *Settings) Root(kind model.JobKind) string {
	switch kind {
	case model.JobKindEvaluation:
		return s.Folders.Data
	case model.JobKindRecognition:
		return s.Folders.Projects
	case model.JobKindTraining:
		return s.Folders.Assemble
	default:
		return ""
	}
}

// ProcessorName returns the engine executable for a job kind.
func (s *Settings) ProcessorName(kind model.JobKind) string {
	switch kind {
	case model.JobKindEvaluation:
		return s.Processors.Evaluation
	case model.JobKindRecognition:
		return s.Processors.Recognition
	case model.JobKindTraining:
		return s.Processors.Training
	default:
		return ""
	}
}

// Pool returns the scheduler pool for a job kind. It depends only on the
// configured time-consuming kinds.
func (s *Settings) Pool(kind model.JobKind) model.Pool {
	for _, k := range s.Processors.TimeConsuming {
		if k == kind {
			return model.PoolTimeConsuming
		}
	}
	return model.PoolStandard
}

// ParseTimeConsuming converts raw kind names, skipping blanks and warning
// about unknown names.
func ParseTimeConsuming(ctx context.Context, names []string) []model.JobKind {
	logger := ctxlog.FromContext(ctx)
	var kinds []model.JobKind
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		kind, err := model.ParseJobKind(name)
		if err != nil {
			logger.Warn("Ignoring unknown time-consuming processor type.", "type", strings.TrimSpace(name))
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds
}

// absPath cleans p and makes it absolute. Blank stays blank.
func absPath(p string) string {
	p = cleanPath(p)
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
