package datasetvalidator

import "strings"

// FormatValidator validates one file format, selected by filename suffix
type FormatValidator interface {
	// Extensions returns the case-sensitive filename suffixes handled
	Extensions() []string
	// Check validates the decoded file text and always returns a verdict
	Check(filename, text string) Verdict
}

// Registry maps filename suffixes to format validators.
// Lookup tries suffixes in registration order.
type Registry struct {
	extensions []string
	validators map[string]FormatValidator
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[string]FormatValidator),
	}
}

// DefaultRegistry returns a registry with the manifest and annotation validators
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(&ManifestValidator{})
	registry.Register(&AnnotationValidator{})
	return registry
}

// Register registers a validator for each of its extensions. A later
// registration for the same extension replaces the earlier one.
func (r *Registry) Register(validator FormatValidator) {
	for _, ext := range validator.Extensions() {
		if _, exists := r.validators[ext]; !exists {
			r.extensions = append(r.extensions, ext)
		}
		r.validators[ext] = validator
	}
}

// Lookup returns the validator whose suffix matches filename, or nil
func (r *Registry) Lookup(filename string) FormatValidator {
	for _, ext := range r.extensions {
		if strings.HasSuffix(filename, ext) {
			return r.validators[ext]
		}
	}
	return nil
}

// Extensions returns the registered suffixes in registration order
func (r *Registry) Extensions() []string {
	exts := make([]string, len(r.extensions))
	copy(exts, r.extensions)
	return exts
}

// Clone creates a copy of the registry
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	clone.extensions = append(clone.extensions, r.extensions...)
	for ext, validator := range r.validators {
		clone.validators[ext] = validator
	}
	return clone
}
