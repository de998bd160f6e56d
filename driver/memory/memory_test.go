package memory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gobeaver/datasetkit"
)

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()

	t.Run("reads written content", func(t *testing.T) {
		a := New()
		if err := a.WriteString("datasets/train.json", `{"labels":{}}`); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rc, err := a.Read(ctx, "/datasets/train.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()

		data, _ := io.ReadAll(rc)
		if string(data) != `{"labels":{}}` {
			t.Errorf("expected written content, got '%s'", string(data))
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		a := New()
		_ = a.WriteString("a.csv", "first")
		_ = a.WriteString("a.csv", "second")

		rc, err := a.Read(ctx, "a.csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := io.ReadAll(rc)
		if string(data) != "second" {
			t.Errorf("expected content='second', got '%s'", string(data))
		}
		if a.FileCount() != 1 {
			t.Errorf("expected 1 file, got %d", a.FileCount())
		}
	})

	t.Run("stored content is copied", func(t *testing.T) {
		a := New()
		buf := []byte("abc")
		_ = a.Write("x.json", buf)
		buf[0] = 'z'

		rc, _ := a.Read(ctx, "x.json")
		data, _ := io.ReadAll(rc)
		if string(data) != "abc" {
			t.Errorf("expected stored copy 'abc', got '%s'", string(data))
		}
	})

	t.Run("fails on path traversal", func(t *testing.T) {
		a := New()
		err := a.WriteString("../etc/passwd", "malicious")
		if !errors.Is(err, datasetkit.ErrNotAllowed) {
			t.Errorf("expected ErrNotAllowed, got: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		a := New()
		_, err := a.Read(ctx, "missing.json")
		if !datasetkit.IsNotExist(err) {
			t.Errorf("expected not exist error, got: %v", err)
		}
	})

	t.Run("reading a directory", func(t *testing.T) {
		a := New()
		_ = a.WriteString("dir/a.json", "{}")
		_, err := a.Read(ctx, "dir")
		if !errors.Is(err, datasetkit.ErrIsDir) {
			t.Errorf("expected ErrIsDir, got: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		a := New()
		_ = a.WriteString("a.json", "{}")
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := a.Read(cctx, "a.json"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	a := New()
	_ = a.WriteString("a.json", "{}")

	if err := a.Delete("a.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := a.FileExists(ctx, "a.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected file to be gone")
	}
	if err := a.Delete("a.json"); !datasetkit.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	a := New()
	_ = a.WriteString("labels/clip.csv", "video_id,timestamp,x,y,behavior\n")

	info, err := a.Stat(ctx, "labels/clip.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "clip.csv" || info.Path != "labels/clip.csv" || info.IsDir {
		t.Errorf("unexpected file info: %+v", info)
	}
	if info.Size != int64(len("video_id,timestamp,x,y,behavior\n")) {
		t.Errorf("unexpected size %d", info.Size)
	}

	dir, err := a.Stat(ctx, "labels")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dir.IsDir {
		t.Error("expected directory")
	}

	if _, err := a.Stat(ctx, "nope"); !datasetkit.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestListContents(t *testing.T) {
	ctx := context.Background()
	a := New()
	_ = a.WriteString("root.json", "{}")
	_ = a.WriteString("set1/a.json", "{}")
	_ = a.WriteString("set1/b.csv", "")
	_ = a.WriteString("set1/deep/c.json", "{}")

	paths := func(files []datasetkit.FileInfo) []string {
		var out []string
		for _, f := range files {
			out = append(out, f.Path)
		}
		return out
	}

	tests := []struct {
		name      string
		dir       string
		recursive bool
		want      []string
	}{
		{"root shallow", "", false, []string{"root.json", "set1"}},
		{"root recursive", "/", true, []string{"root.json", "set1", "set1/a.json", "set1/b.csv", "set1/deep", "set1/deep/c.json"}},
		{"subdir shallow", "set1", false, []string{"set1/a.json", "set1/b.csv", "set1/deep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := a.ListContents(ctx, tt.dir, tt.recursive)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := paths(files)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}

	t.Run("file is not a directory", func(t *testing.T) {
		_, err := a.ListContents(ctx, "root.json", false)
		if !errors.Is(err, datasetkit.ErrNotDir) {
			t.Errorf("expected ErrNotDir, got: %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := a.ListContents(ctx, "missing", false)
		if !datasetkit.IsNotExist(err) {
			t.Errorf("expected not exist error, got: %v", err)
		}
	})
}

func TestWatch(t *testing.T) {
	ctx := context.Background()

	t.Run("signals on matching write", func(t *testing.T) {
		a := New()
		token, err := a.Watch(ctx, "**/*.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_ = a.WriteString("set/a.csv", "")
		if token.HasChanged() {
			t.Fatal("csv write should not match")
		}

		_ = a.WriteString("set/a.json", "{}")
		if !token.HasChanged() {
			t.Error("expected token to change")
		}
	})

	t.Run("signals on delete", func(t *testing.T) {
		a := New()
		_ = a.WriteString("a.json", "{}")
		token, _ := a.Watch(ctx, "*.json")

		_ = a.Delete("a.json")
		if !token.HasChanged() {
			t.Error("expected token to change")
		}
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		a := New()
		if _, err := a.Watch(ctx, "[unclosed"); err == nil {
			t.Error("expected error for invalid pattern")
		}
	})

	t.Run("removes watch when context is cancelled", func(t *testing.T) {
		a := New()
		wctx, cancel := context.WithCancel(ctx)
		_, err := a.Watch(wctx, "*.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cancel()

		deadline := time.Now().Add(2 * time.Second)
		for a.WatchCount() != 0 {
			if time.Now().After(deadline) {
				t.Fatal("watch was not removed")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})
}

func TestRegisteredDriver(t *testing.T) {
	src, err := datasetkit.CreateDriver(&datasetkit.Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := src.(*Adapter); !ok {
		t.Errorf("expected *Adapter, got %T", src)
	}
}
