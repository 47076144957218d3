package schema

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"github.com/thisisjab/mongozilla/fault"
	"gopkg.in/yaml.v3"
)

// Collection describes one collection known to the registry.
type Collection struct {
	// Fields lists the collection's fields in declaration order. Inserts
	// without explicit columns zip positional rows against this list.
	Fields []string

	// FilterPattern, when set, restricts which field names may appear in
	// a filter against this collection. Nil means no restriction.
	FilterPattern *regexp.Regexp
}

type collectionConfig struct {
	Fields     []string `yaml:"fields"`
	Filterable string   `yaml:"filterable"`
}

type fileConfig struct {
	Collections map[string]collectionConfig `yaml:"collections"`
}

// Registry holds collection schemas loaded from a yaml file. It is safe for
// concurrent use; Watch replaces the loaded schemas when the file changes.
type Registry struct {
	path   string
	logger *slog.Logger

	mu          sync.RWMutex
	collections map[string]Collection
}

// NewRegistry loads the schema file at path. The file must exist and parse,
// otherwise an error is returned.
func NewRegistry(logger *slog.Logger, path string) (*Registry, error) {
	r := &Registry{
		path:   path,
		logger: logger,
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	return r, nil
}

// Collection returns the schema for the named collection.
func (r *Registry) Collection(name string) (Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[name]
	return c, ok
}

// Fields returns the named collection's fields in declaration order. It
// fails with a not-found fault when the collection is not declared.
func (r *Registry) Fields(name string) ([]string, error) {
	c, ok := r.Collection(name)
	if !ok {
		return nil, fault.New(fault.NotFoundCode, fmt.Sprintf("Collection `%s` is not declared in the schema.", name))
	}

	return c.Fields, nil
}

func (r *Registry) load() error {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("cannot read schema file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return fmt.Errorf("cannot parse schema file: %w", err)
	}

	collections := make(map[string]Collection, len(cfg.Collections))
	for name, cc := range cfg.Collections {
		col := Collection{Fields: cc.Fields}

		if cc.Filterable != "" {
			pattern, err := regexp.Compile(cc.Filterable)
			if err != nil {
				return fmt.Errorf("invalid filterable pattern for collection `%s`: %w", name, err)
			}
			col.FilterPattern = pattern
		}

		collections[name] = col
	}

	r.mu.Lock()
	r.collections = collections
	r.mu.Unlock()

	return nil
}
