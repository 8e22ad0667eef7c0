// Package loader turns files, web pages, and crawled sites into
// knowledge documents ready for the store, stamping each with source
// metadata.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skein-ai/skein/internal/knowledge"
	"github.com/skein-ai/skein/internal/log"
)

// MaxFileSize caps file content fed to the embedder. Embedding models
// truncate past roughly 2048 tokens; content beyond that would be
// silently unsearchable.
const MaxFileSize = 8 * 1024

var defaultExtensions = map[string]bool{
	".txt": true, ".md": true, ".go": true, ".py": true, ".js": true,
	".ts": true, ".java": true, ".c": true, ".h": true, ".rs": true,
	".rb": true, ".sh": true, ".yaml": true, ".yml": true, ".json": true,
	".html": true, ".css": true, ".sql": true,
}

// directories never descended into during a directory walk.
var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".idea": true,
}

// Files loads filesystem content into documents.
type Files struct {
	extensions map[string]bool
	logger     log.Logger
}

// NewFiles builds a file loader. extensions narrows which file types
// load; empty means the default source/text set.
func NewFiles(extensions []string, logger log.Logger) *Files {
	extMap := make(map[string]bool, len(extensions))
	if len(extensions) > 0 {
		for _, ext := range extensions {
			extMap[strings.ToLower(ext)] = true
		}
	} else {
		for k := range defaultExtensions {
			extMap[k] = true
		}
	}
	return &Files{extensions: extMap, logger: logger}
}

// LoadFile reads one file into a document. The document id is derived
// from the absolute path, so re-loading the same file upserts rather
// than duplicates.
func (f *Files) LoadFile(path string) (knowledge.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("stat %s: %w", absPath, err)
	}
	if info.IsDir() {
		return knowledge.Document{}, fmt.Errorf("%s is a directory, use LoadDirectory", absPath)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if !f.extensions[ext] {
		return knowledge.Document{}, fmt.Errorf("unsupported file type %q", ext)
	}
	if info.Size() > MaxFileSize {
		return knowledge.Document{}, fmt.Errorf("%s (%d bytes) exceeds the %d byte embedding limit",
			absPath, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(absPath) // #nosec G304 -- caller-chosen path by design
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("reading %s: %w", absPath, err)
	}

	contentHash := sha256.Sum256(content)
	return knowledge.Document{
		ID:      docID(absPath),
		Content: string(content),
		Metadata: map[string]string{
			"source_type":  "file",
			"source":       absPath,
			"file_name":    filepath.Base(absPath),
			"file_ext":     ext,
			"file_size":    fmt.Sprintf("%d", info.Size()),
			"modified_at":  info.ModTime().Format(time.RFC3339),
			"content_hash": hex.EncodeToString(contentHash[:]),
		},
		CreatedAt: time.Now(),
	}, nil
}

// LoadDirectory walks root and loads every supported file, skipping
// dot and dependency directories. Unsupported and oversized files are
// skipped, not errors.
func (f *Files) LoadDirectory(root string) ([]knowledge.Document, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	var docs []knowledge.Document
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != absRoot) {
				return filepath.SkipDir
			}
			return nil
		}

		doc, loadErr := f.LoadFile(path)
		if loadErr != nil {
			f.logger.Debug("skipping file", "path", path, "reason", loadErr)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", absRoot, err)
	}

	f.logger.Info("loaded directory", "root", absRoot, "documents", len(docs))
	return docs, nil
}

// docID hashes the absolute path so a file keeps one stable identity
// across reloads.
func docID(absPath string) string {
	hash := sha256.Sum256([]byte(absPath))
	return "file-" + hex.EncodeToString(hash[:16])
}
