package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads migration files from a directory tree laid out as
// <dir>/<app>/<name>.yaml. Files load in lexicographic order per app;
// callers number files (0001_..., 0002_...) so that order matches
// dependency order. No topological sort is performed.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Apps lists the app labels that have a migration directory, sorted.
func (l *Loader) Apps() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}
	var apps []string
	for _, e := range entries {
		if e.IsDir() {
			apps = append(apps, e.Name())
		}
	}
	sort.Strings(apps)
	return apps, nil
}

// Load returns the app's migrations in lexicographic filename order.
func (l *Loader) Load(app string) ([]*Migration, error) {
	dir := filepath.Join(l.dir, app)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations for %s: %w", app, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	ms := make([]*Migration, 0, len(files))
	for _, file := range files {
		m, err := loadFile(filepath.Join(dir, file), app)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// LoadAll returns every app's migrations, apps in sorted order.
func (l *Loader) LoadAll() ([]*Migration, error) {
	apps, err := l.Apps()
	if err != nil {
		return nil, err
	}
	var ms []*Migration
	for _, app := range apps {
		loaded, err := l.Load(app)
		if err != nil {
			return nil, err
		}
		ms = append(ms, loaded...)
	}
	return ms, nil
}

type migrationFile struct {
	App          string                 `yaml:"app"`
	Name         string                 `yaml:"name"`
	Dependencies []string               `yaml:"dependencies"`
	Operations   []map[string]yaml.Node `yaml:"operations"`
}

func loadFile(path, app string) (*Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var mf migrationFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m := &Migration{
		App:          mf.App,
		Name:         mf.Name,
		Dependencies: mf.Dependencies,
	}
	if m.App == "" {
		m.App = app
	}
	if m.Name == "" {
		base := filepath.Base(path)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	for i, entry := range mf.Operations {
		if len(entry) != 1 {
			return nil, fmt.Errorf("%s: operation %d must have exactly one key", path, i)
		}
		for kind, node := range entry {
			op, err := decodeOperation(kind, node)
			if err != nil {
				return nil, fmt.Errorf("%s: operation %d: %w", path, i, err)
			}
			m.Operations = append(m.Operations, op)
		}
	}
	return m, nil
}

func decodeOperation(kind string, node yaml.Node) (Operation, error) {
	var op Operation
	switch kind {
	case "create_table":
		op = &CreateTable{}
	case "drop_table":
		op = &DropTable{}
	case "add_column":
		op = &AddColumn{}
	case "drop_column":
		op = &DropColumn{}
	case "alter_column":
		op = &AlterColumn{}
	case "create_index":
		op = &CreateIndex{}
	case "drop_index":
		op = &DropIndex{}
	default:
		return nil, fmt.Errorf("unknown operation kind %q", kind)
	}
	if err := node.Decode(op); err != nil {
		return nil, err
	}
	return op, nil
}
