package datasetvalidator

import (
	"fmt"
)

// IssueInternal is reported if a format validator faults
const IssueInternal = "internal validation error"

// Options are the engine settings that affect verdicts
type Options struct {
	CrossReferences bool
	TypeChecks      bool
}

// Key returns a stable string form of the options, for cache keys
func (o Options) Key() string {
	return fmt.Sprintf("xref=%t,types=%t", o.CrossReferences, o.TypeChecks)
}

// Option configures an Engine
type Option func(*Engine)

// WithCrossReferences enables label and split cross-reference checks
func WithCrossReferences(enabled bool) Option {
	return func(e *Engine) {
		e.options.CrossReferences = enabled
	}
}

// WithTypeChecks enables JSON Schema type checks on manifests
func WithTypeChecks(enabled bool) Option {
	return func(e *Engine) {
		e.options.TypeChecks = enabled
	}
}

// WithValidator registers an additional format validator
func WithValidator(validator FormatValidator) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, validator)
	}
}

// Engine dispatches files to format validators by extension.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	options  Options
	extra    []FormatValidator
	registry *Registry
}

// New creates an engine with the built-in validators
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = NewRegistry()
	e.registry.Register(&ManifestValidator{
		CrossReferences: e.options.CrossReferences,
		TypeChecks:      e.options.TypeChecks,
	})
	e.registry.Register(&AnnotationValidator{})
	for _, validator := range e.extra {
		e.registry.Register(validator)
	}

	return e
}

// Options returns the engine settings
func (e *Engine) Options() Options {
	return e.options
}

// Extensions returns the supported filename suffixes
func (e *Engine) Extensions() []string {
	return e.registry.Extensions()
}

// Validate validates rawText as the format implied by filename. It never
// panics; every path returns a verdict.
func (e *Engine) Validate(filename, rawText string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{
				Status:  StatusError,
				Message: fmt.Sprintf("Could not validate file \"%s\".", filename),
				Details: fmt.Sprint(r),
				Issues:  []string{IssueInternal},
			}
		}
	}()

	validator := e.registry.Lookup(filename)
	if validator == nil {
		return unrecognized(filename, e.registry.Extensions())
	}
	return validator.Check(filename, rawText)
}

var defaultEngine = New()

// Validate validates rawText with the default engine
func Validate(filename, rawText string) Verdict {
	return defaultEngine.Validate(filename, rawText)
}
