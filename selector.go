package datasetkit

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// FileSelector Interface
// ============================================================================

// FileSelector filters files during listing operations.
//
// Example usage:
//
//	// Every manifest below /datasets
//	files, err := datasetkit.ListWithSelector(ctx, src, "/datasets", datasetkit.Glob("**/*.json"), true)
//
//	// Composed selector
//	selector := datasetkit.And(
//	    datasetkit.Extensions(".json", ".csv"),
//	    datasetkit.FuncSelector(func(f *datasetkit.FileInfo) bool {
//	        return f.Size < 10*1024*1024
//	    }),
//	)
type FileSelector interface {
	// Match returns true if the file should be included in results.
	Match(file *FileInfo) bool

	// TraverseDescendants returns true if directory descendants should be traversed.
	// Only called for directories (file.IsDir == true).
	TraverseDescendants(file *FileInfo) bool
}

// ListWithSelector lists files matching the given selector.
// Set recursive to true for deep traversal.
func ListWithSelector(ctx context.Context, src FileReader, path string, selector FileSelector, recursive bool) ([]FileInfo, error) {
	if selector == nil {
		selector = All()
	}

	var results []FileInfo
	if err := listRecursive(ctx, src, path, selector, recursive, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func listRecursive(ctx context.Context, src FileReader, path string, selector FileSelector, recursive bool, results *[]FileInfo) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	files, err := src.ListContents(ctx, path, false)
	if err != nil {
		return err
	}

	for i := range files {
		file := &files[i]
		if file.IsDir {
			if recursive && selector.TraverseDescendants(file) {
				if err := listRecursive(ctx, src, file.Path, selector, recursive, results); err != nil {
					return err
				}
			}
		} else if selector.Match(file) {
			*results = append(*results, *file)
		}
	}

	return nil
}

// ============================================================================
// Built-in Selectors
// ============================================================================

// AllSelector matches all files and traverses all directories.
type AllSelector struct{}

func (s AllSelector) Match(file *FileInfo) bool               { return true }
func (s AllSelector) TraverseDescendants(file *FileInfo) bool { return true }

// All returns a selector that matches all files.
func All() FileSelector {
	return AllSelector{}
}

type globSelector struct {
	pattern string
	g       glob.Glob
}

// Glob creates a selector from a glob pattern, matched against the file's
// path with '/' as separator. Patterns without a '/' are matched against the
// base name. Supports *, ?, **, [abc], [a-z] and {a,b}.
//
// Examples:
//
//	Glob("*.json")             // any manifest
//	Glob("annotations/*.csv")  // tables directly under annotations/
//	Glob("**/train_*.json")    // at any depth
//
// An invalid pattern matches nothing.
func Glob(pattern string) FileSelector {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return &globSelector{pattern: pattern}
	}
	return &globSelector{pattern: pattern, g: g}
}

func (s *globSelector) Match(file *FileInfo) bool {
	if s.g == nil {
		return false
	}
	if !strings.Contains(s.pattern, "/") {
		return s.g.Match(file.Name)
	}
	return s.g.Match(strings.TrimPrefix(file.Path, "/"))
}

func (s *globSelector) TraverseDescendants(file *FileInfo) bool {
	return true
}

type extensionSelector struct {
	exts []string
}

// Extensions selects files whose name ends with one of the given suffixes.
// Matching is case-sensitive, like validator dispatch.
func Extensions(exts ...string) FileSelector {
	return &extensionSelector{exts: exts}
}

func (s *extensionSelector) Match(file *FileInfo) bool {
	for _, ext := range s.exts {
		if strings.HasSuffix(file.Name, ext) {
			return true
		}
	}
	return false
}

func (s *extensionSelector) TraverseDescendants(file *FileInfo) bool {
	return true
}

// ============================================================================
// Composition
// ============================================================================

type andSelector struct {
	selectors []FileSelector
}

// And matches files accepted by every selector. A directory is traversed
// only if every selector allows it.
func And(selectors ...FileSelector) FileSelector {
	return &andSelector{selectors: selectors}
}

func (s *andSelector) Match(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.Match(file) {
			return false
		}
	}
	return true
}

func (s *andSelector) TraverseDescendants(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.TraverseDescendants(file) {
			return false
		}
	}
	return true
}

// FuncSelector adapts a predicate into a selector that traverses everything.
type FuncSelector func(file *FileInfo) bool

func (f FuncSelector) Match(file *FileInfo) bool               { return f(file) }
func (f FuncSelector) TraverseDescendants(file *FileInfo) bool { return true }
