package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	apperrors "github.com/zzenonn/morphsplit/internal/errors"
	"github.com/zzenonn/morphsplit/internal/repository/objectstore"
)

type mockRepository struct {
	uploadFunc   func(ctx context.Context, key string, r io.Reader, quiet bool) (string, error)
	downloadFunc func(ctx context.Context, key string, quiet bool) (io.ReadCloser, error)
}

func (m *mockRepository) Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error) {
	return m.uploadFunc(ctx, key, r, quiet)
}

func (m *mockRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	return m.downloadFunc(ctx, key, quiet)
}

func (m *mockRepository) GetBucketName() string  { return "bucket" }
func (m *mockRepository) GetStorageType() string { return "s3" }

type mockCreator struct {
	repo    objectstore.ObjectRepository
	configs []objectstore.BucketConfig
}

func (m *mockCreator) CreateRepository(ctx context.Context, config objectstore.BucketConfig) (objectstore.ObjectRepository, error) {
	m.configs = append(m.configs, config)
	return m.repo, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#NEXUS\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestArgsSelector_Select(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.nex"))
	touch(t, filepath.Join(dir, "b.txt"))
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(t.TempDir(), "single.nxs")
	touch(t, single)

	got, err := ArgsSelector{Paths: []string{single, dir, "s3://bucket/c.nex"}}.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := []string{single, filepath.Join(dir, "a.nex"), filepath.Join(dir, "b.txt"), "s3://bucket/c.nex"}
	if !slices.Equal(got, want) {
		t.Errorf("Select() = %v, want %v", got, want)
	}

	got, err = ArgsSelector{Paths: []string{filepath.Join(dir, "*.nex")}}.Select(context.Background())
	if err != nil || !slices.Equal(got, []string{filepath.Join(dir, "a.nex")}) {
		t.Errorf("Select(glob) = %v, %v", got, err)
	}
}

func TestArgsSelector_Cancelled(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
	}{
		{name: "no arguments"},
		{name: "empty directory", paths: []string{t.TempDir()}},
		{name: "glob without matches", paths: []string{filepath.Join(t.TempDir(), "*.nex")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ArgsSelector{Paths: tt.paths}.Select(context.Background())
			if !errors.Is(err, apperrors.ErrSelectionCancelled) {
				t.Errorf("Select() error = %v, want ErrSelectionCancelled", err)
			}
		})
	}
}

func TestArgsSelector_MissingFile(t *testing.T) {
	_, err := ArgsSelector{Paths: []string{filepath.Join(t.TempDir(), "gone.nex")}}.Select(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Select() error = %v, want ErrNotExist", err)
	}
}

func TestFilterExtensions(t *testing.T) {
	paths := []string{"a.NEX", "b.nexus", "c.txt", "s3://bucket/d.nxs", "e"}
	got := FilterExtensions(paths, []string{".nex", ".nxs", ".nexus"})
	want := []string{"a.NEX", "b.nexus", "s3://bucket/d.nxs"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterExtensions() = %v, want %v", got, want)
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"data/morph.nex":          "morph",
		"gs://bucket/x/teeth.nxs": "teeth",
		"plain":                   "plain",
		"dir/two.dots.nexus":      "two.dots",
	}
	for path, want := range tests {
		if got := BaseName(path); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLocations_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "plan.json")
	locations := NewLocations(nil, true)

	if err := locations.Write(context.Background(), path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	rc, err := locations.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != `{"ok":true}` {
		t.Errorf("read back %q", data)
	}

	if _, err := locations.Open(context.Background(), "s3://bucket/x.nex"); err == nil {
		t.Error("Open(s3) without repositories error = nil, want error")
	}
}

func TestLocations_Remote(t *testing.T) {
	var uploaded bytes.Buffer
	repo := &mockRepository{
		uploadFunc: func(ctx context.Context, key string, r io.Reader, quiet bool) (string, error) {
			if key != "runs/plan.json" || !quiet {
				t.Errorf("Upload(%q, quiet=%v)", key, quiet)
			}
			_, err := io.Copy(&uploaded, r)
			return "plans/" + key, err
		},
		downloadFunc: func(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
			if key != "morph/a.nex" {
				t.Errorf("Download(%q)", key)
			}
			return io.NopCloser(bytes.NewBufferString("#NEXUS")), nil
		},
	}
	creator := &mockCreator{repo: repo}
	locations := NewLocations(creator, true)

	if err := locations.Write(context.Background(), "gs://plans/runs/plan.json", []byte("{}")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if uploaded.String() != "{}" {
		t.Errorf("uploaded %q", uploaded.String())
	}

	rc, err := locations.Open(context.Background(), "s3://alignments/morph/a.nex")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rc.Close()

	want := []objectstore.BucketConfig{
		{Name: "plans", Type: objectstore.GCSType},
		{Name: "alignments", Type: objectstore.S3Type},
	}
	if !slices.Equal(creator.configs, want) {
		t.Errorf("repositories requested = %v, want %v", creator.configs, want)
	}
}
