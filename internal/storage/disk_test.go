package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	// Single file
	f1 := filepath.Join(dir, "catalog.db")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := DiskUsageBytes(f1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("single file: got %d bytes, want 5", got)
	}

	// Directory
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DiskUsageBytes(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("dir: got %d bytes, want 3", got)
	}

	// Multiple paths (file + dir)
	got, err = DiskUsageBytes(f1, sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("file+dir: got %d bytes, want 8", got)
	}

	// Missing path is skipped
	got, err = DiskUsageBytes(f1, filepath.Join(dir, "nonexistent"), sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("with missing: got %d bytes, want 8", got)
	}

	// Empty and in-memory paths are skipped
	got, err = DiskUsageBytes("", ":memory:", f1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("with empty path: got %d bytes, want 5", got)
	}
}

func TestSQLiteFiles(t *testing.T) {
	if got := SQLiteFiles(":memory:"); got != nil {
		t.Errorf("memory database: got %v, want nil", got)
	}
	got := SQLiteFiles("/data/catalog.db")
	want := []string{"/data/catalog.db", "/data/catalog.db-wal", "/data/catalog.db-shm"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
