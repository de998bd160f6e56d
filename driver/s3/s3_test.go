package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gobeaver/datasetkit"
)

// fakeS3 is an in-memory stand-in for a bucket
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	modTime time.Time
	listErr error
}

func newFakeS3(objects map[string]string) *fakeS3 {
	f := &fakeS3{objects: make(map[string][]byte), modTime: time.Unix(1700000000, 0)}
	for k, v := range objects {
		f.objects[k] = []byte(v)
	}
	return f
}

func (f *fakeS3) put(key, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte(content)
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		LastModified:  aws.Time(f.modTime),
	}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	prefix := aws.ToString(in.Prefix)
	delimiter := aws.ToString(in.Delimiter)

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	seen := map[string]bool{}
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		if delimiter != "" {
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+1]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(f.modTime),
		})
		if in.MaxKeys != nil && int32(len(out.Contents)) >= *in.MaxKeys {
			break
		}
	}
	return out, nil
}

func testBucket() *fakeS3 {
	return newFakeS3(map[string]string{
		"data/manifest.json":             `{"labels_are_mece":true}`,
		"data/annotations/clip.csv":      "video_id,timestamp,x,y,behavior\n",
		"data/annotations/deep/two.json": "{}",
		"other/ignored.json":             "{}",
	})
}

func TestReadAndStat(t *testing.T) {
	ctx := context.Background()
	a := New(testBucket(), "bucket", WithPrefix("data"))

	rc, err := a.Read(ctx, "manifest.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != `{"labels_are_mece":true}` {
		t.Errorf("unexpected content %q", data)
	}

	info, err := a.Stat(ctx, "/annotations/clip.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "clip.csv" || info.IsDir || info.Size != int64(len("video_id,timestamp,x,y,behavior\n")) {
		t.Errorf("unexpected info %+v", info)
	}

	dir, err := a.Stat(ctx, "annotations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dir.IsDir {
		t.Error("expected prefix to be reported as a directory")
	}

	if _, err := a.Read(ctx, "missing.json"); !datasetkit.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
	if _, err := a.Stat(ctx, "missing.json"); !datasetkit.IsNotExist(err) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	ctx := context.Background()
	a := New(testBucket(), "bucket", WithPrefix("data/"))

	exists, err := a.FileExists(ctx, "manifest.json")
	if err != nil || !exists {
		t.Errorf("expected manifest to exist, got %v, %v", exists, err)
	}
	exists, err = a.FileExists(ctx, "nope.json")
	if err != nil || exists {
		t.Errorf("expected missing file, got %v, %v", exists, err)
	}
}

func TestListContents(t *testing.T) {
	ctx := context.Background()
	a := New(testBucket(), "bucket", WithPrefix("data"))

	paths := func(files []datasetkit.FileInfo) map[string]bool {
		out := map[string]bool{}
		for _, f := range files {
			out[f.Path] = f.IsDir
		}
		return out
	}

	shallow, err := a.ListContents(ctx, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := paths(shallow)
	if len(got) != 2 || got["manifest.json"] || !got["annotations"] {
		t.Errorf("unexpected shallow listing %v", got)
	}

	deep, err := a.ListContents(ctx, "annotations", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = paths(deep)
	if len(got) != 2 {
		t.Errorf("unexpected deep listing %v", got)
	}
	if _, ok := got["annotations/deep/two.json"]; !ok {
		t.Errorf("expected nested key in %v", got)
	}

	t.Run("list failure", func(t *testing.T) {
		bucket := testBucket()
		bucket.listErr = errors.New("boom")
		_, err := New(bucket, "bucket").ListContents(ctx, "", true)
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected list error, got %v", err)
		}
	})
}

func TestWatchPolls(t *testing.T) {
	bucket := testBucket()
	a := New(bucket, "bucket", WithPrefix("data"), WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, err := a.Watch(ctx, "*.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bucket.put("data/annotations/added.csv", "x")
	time.Sleep(50 * time.Millisecond)
	if token.HasChanged() {
		t.Fatal("non-matching change should not signal")
	}

	bucket.put("data/new.json", "{}")
	select {
	case <-token.(*datasetkit.CallbackChangeToken).Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification")
	}
}

func TestStatesEqual(t *testing.T) {
	now := time.Now()
	a := map[string]fileState{"a.json": {modTime: now, size: 1}}

	if !statesEqual(a, map[string]fileState{"a.json": {modTime: now, size: 1}}) {
		t.Error("identical states should be equal")
	}
	if statesEqual(a, map[string]fileState{"a.json": {modTime: now, size: 2}}) {
		t.Error("size change should be detected")
	}
	if statesEqual(a, map[string]fileState{"b.json": {modTime: now, size: 1}}) {
		t.Error("rename should be detected")
	}
}

func TestAdapterOptions(t *testing.T) {
	opts := adapterOptions(&datasetkit.Config{S3Prefix: "p", PollSeconds: 7})
	a := New(nil, "bucket", opts...)
	if a.prefix != "p/" {
		t.Errorf("expected prefix 'p/', got %q", a.prefix)
	}
	if a.pollInterval != 7*time.Second {
		t.Errorf("expected 7s poll interval, got %v", a.pollInterval)
	}
}
