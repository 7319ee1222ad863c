package migrations

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteMigration serializes the migration to <dir>/<app>/<name>.yaml,
// creating the app directory as needed, and returns the written path.
func WriteMigration(dir string, m *Migration) (string, error) {
	appDir := filepath.Join(dir, m.App)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	ops := make([]map[string]Operation, len(m.Operations))
	for i, op := range m.Operations {
		ops[i] = map[string]Operation{op.kind(): op}
	}
	doc := struct {
		App          string                 `yaml:"app"`
		Name         string                 `yaml:"name"`
		Dependencies []string               `yaml:"dependencies,omitempty"`
		Operations   []map[string]Operation `yaml:"operations"`
	}{
		App:          m.App,
		Name:         m.Name,
		Dependencies: m.Dependencies,
		Operations:   ops,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshalling migration %s: %w", m.Key(), err)
	}

	path := filepath.Join(appDir, m.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// NextName builds the next sequential migration name for an app, following
// the 0001_label numbering convention.
func NextName(dir, app, label string) string {
	n := 1
	entries, err := os.ReadDir(filepath.Join(dir, app))
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && (filepath.Ext(e.Name()) == ".yaml" || filepath.Ext(e.Name()) == ".yml") {
				n++
			}
		}
	}
	return fmt.Sprintf("%04d_%s", n, label)
}
