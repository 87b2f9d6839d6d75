// Package presets ships the task configuration resources bundled with
// the gateway. A configuration value ending in a recognized extension
// is a reference to one of these files; anything else is inline.
package presets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed *.json *.xml
var bundled embed.FS

// Store resolves preset references. An optional override directory
// takes precedence over the bundled files so deployments can ship
// custom encoder presets without a rebuild.
type Store struct {
	overrideDir string
}

// NewStore creates a Store. overrideDir may be empty.
func NewStore(overrideDir string) *Store {
	return &Store{overrideDir: overrideDir}
}

// IsFileRef reports whether value names a preset file rather than
// inline configuration.
func IsFileRef(value string) bool {
	switch strings.ToLower(filepath.Ext(value)) {
	case ".json", ".xml":
		return true
	default:
		return false
	}
}

// Load returns the literal text of the named preset.
func (s *Store) Load(name string) (string, error) {
	// Reject path traversal; presets are flat files.
	if filepath.Base(name) != name {
		return "", fmt.Errorf("presets: invalid preset name %q", name)
	}

	if s.overrideDir != "" {
		raw, err := os.ReadFile(filepath.Join(s.overrideDir, name))
		if err == nil {
			return string(raw), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("presets: read %s: %w", name, err)
		}
	}

	raw, err := bundled.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("presets: unknown preset %q", name)
	}
	return string(raw), nil
}
