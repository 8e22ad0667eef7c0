package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skein-ai/skein/internal/log"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "# Notes\n\nremember this")
	f := NewFiles(nil, log.NewNop())

	doc, err := f.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if doc.Content != "# Notes\n\nremember this" {
		t.Errorf("content = %q", doc.Content)
	}
	if doc.Metadata["source_type"] != "file" || doc.Metadata["file_ext"] != ".md" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
	if doc.Metadata["source"] != path {
		t.Errorf("source = %q, want %q", doc.Metadata["source"], path)
	}
	if doc.Metadata["content_hash"] == "" || doc.Metadata["modified_at"] == "" {
		t.Errorf("metadata missing stamps: %v", doc.Metadata)
	}
	if !strings.HasPrefix(doc.ID, "file-") {
		t.Errorf("id = %q", doc.ID)
	}

	// Same path, same identity.
	again, err := f.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(again) error = %v", err)
	}
	if again.ID != doc.ID {
		t.Errorf("id changed across loads: %q vs %q", again.ID, doc.ID)
	}
}

func TestLoadFileRejections(t *testing.T) {
	dir := t.TempDir()
	f := NewFiles(nil, log.NewNop())

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, dir, "image.png", "not really a png")
		if _, err := f.LoadFile(path); err == nil {
			t.Error("LoadFile(.png) should fail")
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		path := writeFile(t, dir, "big.txt", strings.Repeat("x", MaxFileSize+1))
		if _, err := f.LoadFile(path); err == nil {
			t.Error("LoadFile(oversized) should fail")
		}
	})

	t.Run("directory", func(t *testing.T) {
		if _, err := f.LoadFile(dir); err == nil {
			t.Error("LoadFile(directory) should fail")
		}
	})

	t.Run("custom extension filter", func(t *testing.T) {
		only := NewFiles([]string{".md"}, log.NewNop())
		path := writeFile(t, dir, "main.go", "package main")
		if _, err := only.LoadFile(path); err == nil {
			t.Error("LoadFile(.go) with md-only filter should fail")
		}
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "sub/b.txt", "beta")
	writeFile(t, dir, "sub/c.png", "skipped")
	writeFile(t, dir, ".git/config", "skipped")
	writeFile(t, dir, "node_modules/d.js", "skipped")
	writeFile(t, dir, "big.txt", strings.Repeat("x", MaxFileSize+1))

	f := NewFiles(nil, log.NewNop())
	docs, err := f.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if len(docs) != 2 {
		names := make([]string, 0, len(docs))
		for _, d := range docs {
			names = append(names, d.Metadata["file_name"])
		}
		t.Fatalf("loaded %d documents (%v), want 2", len(docs), names)
	}
}
