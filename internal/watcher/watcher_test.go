package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/kaimono/internal/config"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	r.changed = append(r.changed, path)
	r.mu.Unlock()
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() (changed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...), append([]string(nil), r.removed...)
}

func watchConfig(dirs ...string) config.WatchConfig {
	recursive := true
	return config.WatchConfig{
		Directories: dirs,
		Extensions:  []string{".json", ".csv"},
		Recursive:   &recursive,
		Debounce:    100 * time.Millisecond,
	}
}

func hasSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(watchConfig(dir), rec.onChange, rec.onRemove)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	feed := filepath.Join(dir, "feed.json")
	for i := 0; i < 3; i++ {
		if err := writeFile(feed, `[{"name":"Lamp"}]`); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(dir, "notes.txt"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	changed, _ := rec.snapshot()
	if len(changed) != 1 || !strings.HasSuffix(changed[0], "feed.json") {
		t.Errorf("expected one debounced change for feed.json, got %v", changed)
	}

	if err := os.Remove(feed); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	_, removed := rec.snapshot()
	if !hasSuffix(removed, "feed.json") {
		t.Errorf("expected removal of feed.json, got %v", removed)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.json", []string{".json"}, true},
		{"/a/b.CSV", []string{".csv"}, true},
		{"/a/b.xlsx", []string{"xlsx"}, true},
		{"/a/b.md", []string{".json"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.json", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.csv"), "name\nLamp\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher(watchConfig(dir), rec.onChange, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExistingFiles()

	changed, _ := rec.snapshot()
	if len(changed) != 1 || !strings.HasSuffix(changed[0], "a.csv") {
		t.Errorf("expected one synced file a.csv, got %v", changed)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "feeds", "incoming")
	w := NewWatcher(watchConfig(root), nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || !filepath.IsAbs(dirs[0]) {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(watchConfig(dir), rec.onChange, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "shop-1", "daily")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.json"), "[]"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	changed, _ := rec.snapshot()
	if !hasSuffix(changed, "deep.json") {
		t.Errorf("expected deep.json to be reported, got %v", changed)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(watchConfig(t.TempDir()), nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
