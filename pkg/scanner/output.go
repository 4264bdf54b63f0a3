package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Write stores cm at path, creating parent directories
func Write(cm *ContextMap, path string) error {
	data, err := Encode(cm, formatFor(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write context map: %w", err)
	}
	return nil
}

// Encode renders cm as "json" or "yaml"
func Encode(cm *ContextMap, format string) ([]byte, error) {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(cm)
		if err != nil {
			return nil, fmt.Errorf("failed to encode context map: %w", err)
		}
		return data, nil
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cm); err != nil {
			return nil, fmt.Errorf("failed to encode context map: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported context map format %q", format)
	}
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
