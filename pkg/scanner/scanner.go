// Package scanner builds a context map of a local repository: the files an
// AI workflow may read, which of them look like prompts, and a nested view
// of the tree. Scanning never reads file contents and never leaves the
// local filesystem.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/zoobzio/clockz"
)

// DefaultMaxFiles caps the number of files recorded in one scan
const DefaultMaxFiles = 1000

// TimestampFormat is the layout of ContextMap.ScanTimestamp
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// ErrRepoNotFound is returned when the repository root does not exist
var ErrRepoNotFound = errors.New("repository not found")

// DefaultExtensions are the file extensions scanned when none are configured
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx",
	".json", ".yaml", ".yml", ".md",
	".txt", ".toml", ".ini", ".cfg", ".go",
}

// PromptDirs mark every file below them as a prompt
var PromptDirs = []string{
	"prompts", "templates", "prompt_templates",
	"llm_prompts", "ai_prompts",
}

var ignoredDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	"env":          true,
	"dist":         true,
	"build":        true,
}

// Options controls a scan. The zero value scans DefaultExtensions up to
// DefaultMaxFiles.
type Options struct {
	Extensions []string
	MaxFiles   int
	// Exclude holds doublestar globs matched against slash-separated paths
	// relative to the repository root
	Exclude []string
	Clock   clockz.Clock
}

// FileInfo describes one scanned file
type FileInfo struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Extension string `json:"extension" yaml:"extension"`
}

// ContextMap is the result of a scan. Structure nests directory names to
// maps and file names to their size in bytes.
type ContextMap struct {
	RepoPath       string         `json:"repo_path" yaml:"repo_path"`
	ScanTimestamp  string         `json:"scan_timestamp" yaml:"scan_timestamp"`
	FileCount      int            `json:"file_count" yaml:"file_count"`
	TotalSizeBytes int64          `json:"total_size_bytes" yaml:"total_size_bytes"`
	Files          []FileInfo     `json:"files" yaml:"files"`
	Prompts        []FileInfo     `json:"prompts" yaml:"prompts"`
	Structure      map[string]any `json:"structure" yaml:"structure"`
}

func (o Options) normalized() (Options, error) {
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.Clock == nil {
		o.Clock = clockz.RealClock
	}

	exts := o.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	o.Extensions = make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.Extensions = append(o.Extensions, ext)
	}

	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return o, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return o, nil
}

func (o Options) allows(ext string) bool {
	for _, e := range o.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (o Options) excluded(rel string) bool {
	for _, pattern := range o.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Scan walks repo and returns its context map. When out is not empty the
// map is also written there, as YAML if out ends in .yaml or .yml and as
// indented JSON otherwise.
func Scan(ctx context.Context, repo, out string, opts Options) (*ContextMap, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(repo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, repo)
		}
		return nil, fmt.Errorf("failed to stat repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRepoNotFound, repo)
	}

	cm := &ContextMap{
		RepoPath: root,
		Files:    []FileInfo{},
		Prompts:  []FileInfo{},
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable path")
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || ignoredDirs[name] || opts.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !opts.allows(ext) || opts.excluded(rel) {
			return nil
		}
		if cm.FileCount >= opts.MaxFiles {
			return filepath.SkipAll
		}

		fi, err := d.Info()
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping unreadable file")
			return nil
		}

		entry := FileInfo{Path: rel, SizeBytes: fi.Size(), Extension: ext}
		cm.Files = append(cm.Files, entry)
		if isPrompt(rel, d.Name()) {
			cm.Prompts = append(cm.Prompts, entry)
		}
		cm.FileCount++
		cm.TotalSizeBytes += entry.SizeBytes
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	cm.ScanTimestamp = opts.Clock.Now().UTC().Format(TimestampFormat)
	cm.Structure = buildStructure(cm.Files)

	if out != "" {
		if err := Write(cm, out); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("repo", root).
		Int("files", cm.FileCount).
		Int64("bytes", cm.TotalSizeBytes).
		Int("prompts", len(cm.Prompts)).
		Str("out", out).
		Msg("Repository scanned")

	return cm, nil
}

func isPrompt(rel, name string) bool {
	dir := strings.ToLower(filepath.ToSlash(filepath.Dir(rel)))
	if dir != "." {
		for _, p := range PromptDirs {
			if strings.Contains(dir, p) {
				return true
			}
		}
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "prompt") || strings.Contains(lower, "template")
}

func buildStructure(files []FileInfo) map[string]any {
	structure := map[string]any{}
	for _, f := range files {
		parts := strings.Split(f.Path, "/")
		current := structure
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = f.SizeBytes
	}
	return structure
}
