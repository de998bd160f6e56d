package datasetkit

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.json", "manifest.json", true},
		{"*.json", "deep/nested/manifest.json", true},
		{"*.json", "clip.csv", false},
		{"annotations/*.csv", "annotations/clip.csv", true},
		{"annotations/*.csv", "/annotations/clip.csv", true},
		{"annotations/*.csv", "annotations/deep/clip.csv", false},
		{"**/train_*.json", "sets/a/train_01.json", true},
		{"**", "anything/at/all.txt", true},
		{"{a,b}.json", "b.json", true},
		{"[unclosed", "a.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			file := &FileInfo{Name: baseName(tt.path), Path: tt.path}
			if got := Glob(tt.pattern).Match(file); got != tt.want {
				t.Errorf("Glob(%q).Match(%q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func TestExtensionsSelector(t *testing.T) {
	sel := Extensions(".json", ".csv")

	tests := map[string]bool{
		"a.json": true,
		"b.csv":  true,
		"c.JSON": false,
		"d.txt":  false,
	}
	for name, want := range tests {
		if got := sel.Match(&FileInfo{Name: name}); got != want {
			t.Errorf("Extensions.Match(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListWithSelector(t *testing.T) {
	ctx := context.Background()
	src := newStubSource(map[string]string{
		"a.json":           "{}",
		"b.csv":            "",
		"sets/c.json":      "{}",
		"sets/deep/d.json": "{}",
		"sets/deep/e.txt":  "",
	})

	paths := func(files []FileInfo) []string {
		out := []string{}
		for _, f := range files {
			out = append(out, f.Path)
		}
		return out
	}

	tests := []struct {
		name      string
		dir       string
		selector  FileSelector
		recursive bool
		want      []string
	}{
		{"all shallow", "", nil, false, []string{"a.json", "b.csv"}},
		{"all recursive", "", All(), true, []string{"a.json", "b.csv", "sets/c.json", "sets/deep/d.json", "sets/deep/e.txt"}},
		{"json recursive", "", Glob("*.json"), true, []string{"a.json", "sets/c.json", "sets/deep/d.json"}},
		{"subdir", "sets", Extensions(".json"), true, []string{"sets/c.json", "sets/deep/d.json"}},
		{
			"composed",
			"",
			And(Extensions(".json"), FuncSelector(func(f *FileInfo) bool { return f.Path != "a.json" })),
			true,
			[]string{"sets/c.json", "sets/deep/d.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := ListWithSelector(ctx, src, tt.dir, tt.selector, tt.recursive)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, paths(files)); diff != "" {
				t.Errorf("listing mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := ListWithSelector(cctx, src, "", All(), true); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
