package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// CreateZip writes a zip archive at path holding entries. Keys ending in
// "/" become directory entries; every other key is a file with the mapped
// content.
func CreateZip(t *testing.T, path string, entries map[string]string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directories for %s: %v", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			if _, err := zw.Create(name); err != nil {
				t.Fatalf("Failed to add directory %s: %v", name, err)
			}
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatalf("Failed to write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip %s: %v", path, err)
	}

	return path
}

// TruncateFile cuts the file at path down to half its size.
func TruncateFile(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	if err := os.Truncate(path, info.Size()/2); err != nil {
		t.Fatalf("Failed to truncate %s: %v", path, err)
	}
}

// ReadZip returns the entry names of the archive at path mapped to their
// content. Directory entries map to an empty string.
func ReadZip(t *testing.T, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open zip %s: %v", path, err)
	}
	defer func() { _ = r.Close() }()

	out := make(map[string]string, len(r.File))
	for _, file := range r.File {
		if strings.HasSuffix(file.Name, "/") {
			out[file.Name] = ""
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", file.Name, err)
		}
		out[file.Name] = string(data)
	}
	return out
}
