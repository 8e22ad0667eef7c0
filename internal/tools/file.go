package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/skein-ai/skein/internal/security"
)

// ReadFileInput names the file to read.
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"description=File path to read (absolute or relative)"`
}

// WriteFileInput names the target file and its new content.
type WriteFileInput struct {
	Path    string `json:"path" jsonschema:"description=File path to write"`
	Content string `json:"content" jsonschema:"description=Content to write"`
}

// ListFilesInput names the directory to list.
type ListFilesInput struct {
	Path string `json:"path" jsonschema:"description=Directory path to list"`
}

// FileTools builds the filesystem tool set. Every path is validated
// before access to prevent traversal outside the allowed roots (CWE-22).
func FileTools(pathVal *security.Path, logger *slog.Logger) []Tool {
	return []Tool{
		New("read_file", "Read the complete content of a text file.",
			func(_ context.Context, in ReadFileInput) (string, error) {
				safe, err := pathVal.Validate(in.Path)
				if err != nil {
					return "", fmt.Errorf("path validation failed: %w", err)
				}
				content, err := os.ReadFile(safe) // #nosec G304 -- validated above
				if err != nil {
					return "", fmt.Errorf("reading file: %w", err)
				}
				logger.Debug("read file", "path", safe, "bytes", len(content))
				return string(content), nil
			}),

		New("write_file", "Write content to a file, creating parent directories as needed. Overwrites existing files.",
			func(_ context.Context, in WriteFileInput) (string, error) {
				safe, err := pathVal.Validate(in.Path)
				if err != nil {
					return "", fmt.Errorf("path validation failed: %w", err)
				}
				if err := os.MkdirAll(filepath.Dir(safe), 0o750); err != nil {
					return "", fmt.Errorf("creating directory: %w", err)
				}
				if err := os.WriteFile(safe, []byte(in.Content), 0o600); err != nil {
					return "", fmt.Errorf("writing file: %w", err)
				}
				logger.Debug("wrote file", "path", safe, "bytes", len(in.Content))
				return fmt.Sprintf("wrote %d bytes to %s", len(in.Content), safe), nil
			}),

		New("list_files", "List files and subdirectories in a directory.",
			func(_ context.Context, in ListFilesInput) (string, error) {
				safe, err := pathVal.Validate(in.Path)
				if err != nil {
					return "", fmt.Errorf("path validation failed: %w", err)
				}
				entries, err := os.ReadDir(safe)
				if err != nil {
					return "", fmt.Errorf("reading directory: %w", err)
				}
				lines := make([]string, 0, len(entries))
				for _, e := range entries {
					prefix := "[file]"
					if e.IsDir() {
						prefix = "[dir] "
					}
					lines = append(lines, prefix+" "+e.Name())
				}
				return strings.Join(lines, "\n"), nil
			}),

		New("file_info", "Return metadata about a file or directory: size, type, modification time, permissions.",
			func(_ context.Context, in ReadFileInput) (string, error) {
				safe, err := pathVal.Validate(in.Path)
				if err != nil {
					return "", fmt.Errorf("path validation failed: %w", err)
				}
				info, err := os.Stat(safe)
				if err != nil {
					return "", fmt.Errorf("stat: %w", err)
				}
				return fmt.Sprintf("name: %s\nsize: %d bytes\ndir: %v\nmodified: %s\nmode: %s",
					info.Name(), info.Size(), info.IsDir(),
					info.ModTime().Format("2006-01-02 15:04:05"), info.Mode()), nil
			}),
	}
}
