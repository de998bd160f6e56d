package datasetkit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/gobeaver/datasetkit/datasetvalidator"
)

// Report is the outcome of checking one file: a verdict, or the acquisition
// error that prevented validation.
type Report struct {
	Path        string                    `json:"path"`
	Verdict     *datasetvalidator.Verdict `json:"verdict,omitempty"`
	Fingerprint string                    `json:"fingerprint,omitempty"`
	Cached      bool                      `json:"cached,omitempty"`
	Err         string                    `json:"error,omitempty"`
}

// Status returns the verdict status, or error when acquisition failed
func (r Report) Status() datasetvalidator.Status {
	if r.Verdict == nil {
		return datasetvalidator.StatusError
	}
	return r.Verdict.Status
}

// Service reads dataset files from a source and validates them
type Service struct {
	src      FileReader
	acquirer *Acquirer
	engine   *datasetvalidator.Engine
	cache    Cache
	cfg      Config
}

// Builder provides a way to create Service instances with custom env prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Config loads the configuration using the builder's prefix
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New creates a new Service using the builder's prefix
func (b *Builder) New() (*Service, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New creates a service whose source is built by the registered driver
// named in cfg.Driver
func New(cfg *Config) (*Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	src, err := CreateDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	return NewWithSource(src, cfg), nil
}

// NewWithSource creates a service over an existing source
func NewWithSource(src FileReader, cfg *Config) *Service {
	s := &Service{
		src:      src,
		acquirer: NewAcquirer(cfg),
		engine: datasetvalidator.New(
			datasetvalidator.WithCrossReferences(cfg.CrossReferences),
			datasetvalidator.WithTypeChecks(cfg.TypeChecks),
		),
		cfg: *cfg,
	}
	if cfg.CacheEnabled {
		s.cache = NewMemoryCache()
	}
	return s
}

// NewFromEnv creates a service from environment variables
func NewFromEnv() (*Service, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}
	if cfg.MaxFileSize < 0 {
		return errors.New("max file size must not be negative")
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalBasePath == "" {
			return errors.New("local base path is required for local driver")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return errors.New("S3 bucket is required for S3 driver")
		}
		// Access keys can be provided via IAM roles, so not always required
	case "gcs":
		if cfg.GCSBucket == "" {
			return errors.New("GCS bucket is required for GCS driver")
		}
	case "azure":
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return errors.New("azure account name and key are required for azure driver")
		}
		if cfg.AzureContainerName == "" {
			return errors.New("azure container name is required for azure driver")
		}
	case "sftp":
		if cfg.SFTPHost == "" {
			return errors.New("SFTP host is required for SFTP driver")
		}
	case "zip":
		if cfg.ZipPath == "" {
			return errors.New("zip path is required for zip driver")
		}
	}

	return nil
}

// Source returns the underlying source
func (s *Service) Source() FileReader {
	return s.src
}

// Engine returns the validation engine
func (s *Service) Engine() *datasetvalidator.Engine {
	return s.engine
}

// CacheStats returns verdict cache statistics, if caching is enabled
func (s *Service) CacheStats() (CacheStatistics, bool) {
	stats, ok := s.cache.(CacheStats)
	if !ok {
		return CacheStatistics{}, false
	}
	return stats.Stats(), true
}

// Check acquires and validates one file. Acquisition failures are returned
// as errors and recorded in Report.Err; the verdict is then nil.
func (s *Service) Check(ctx context.Context, path string) (Report, error) {
	report := Report{Path: path}

	doc, err := s.acquirer.Acquire(ctx, s.src, path)
	if err != nil {
		report.Err = err.Error()
		return report, err
	}
	report.Fingerprint = doc.Fingerprint

	key := cacheKey(doc.Fingerprint, s.engine.Options())
	if s.cache != nil {
		if verdict, ok := s.cache.Get(key); ok {
			report.Verdict = &verdict
			report.Cached = true
			return report, nil
		}
	}

	verdict := s.engine.Validate(doc.Name, doc.Text)
	if s.cache != nil {
		s.cache.Set(key, verdict, s.cfg.CacheTTL())
	}
	report.Verdict = &verdict

	return report, nil
}

// CheckAll validates every file under dir accepted by selector, in path
// order. A file that cannot be read is reported and does not stop the batch;
// listing failures and cancellation do.
func (s *Service) CheckAll(ctx context.Context, dir string, selector FileSelector, recursive bool) ([]Report, error) {
	files, err := ListWithSelector(ctx, s.src, dir, selector, recursive)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	reports := make([]Report, 0, len(files))
	for _, file := range files {
		report, err := s.Check(ctx, file.Path)
		if err != nil && ctx.Err() != nil {
			return reports, ctx.Err()
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// Watch re-checks the files matching pattern each time the source reports a
// change to one of them, calling fn with every report. It blocks until ctx is
// done. Sources without CanWatch yield ErrNotSupported.
func (s *Service) Watch(ctx context.Context, dir, pattern string, fn func(Report)) error {
	watcher, ok := s.src.(CanWatch)
	if !ok {
		return NewPathError("watch", pattern, ErrNotSupported)
	}

	return OnChange(ctx,
		func() (ChangeToken, error) {
			return watcher.Watch(ctx, pattern)
		},
		func() {
			reports, err := s.CheckAll(ctx, dir, Glob(pattern), true)
			if err != nil {
				Logf("datasetkit: watch %s: %v", pattern, err)
				return
			}
			for _, report := range reports {
				fn(report)
			}
		},
	)
}

// NewSession creates an interactive session backed by this service
func (s *Service) NewSession() *Session {
	return NewSession(func(ctx context.Context, path string) (datasetvalidator.Verdict, error) {
		report, err := s.Check(ctx, path)
		if err != nil {
			return datasetvalidator.Verdict{}, err
		}
		return *report.Verdict, nil
	})
}
