package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mangrove-labs/sortd/internal/classify"
)

// CollectionIDs binds each category, plus the inbox log, to a collection
// in the task store.
type CollectionIDs struct {
	People   string `yaml:"people"`
	Projects string `yaml:"projects"`
	Ideas    string `yaml:"ideas"`
	Admin    string `yaml:"admin"`
	InboxLog string `yaml:"inbox_log"`
}

// Collections is the category → collection mapping. Reads and reloads are
// guarded so the fsnotify watcher can swap the mapping while requests are
// in flight.
type Collections struct {
	mu   sync.RWMutex
	ids  CollectionIDs
	path string // source file, empty when env-configured
}

// NewCollections creates a static mapping from explicit ids.
func NewCollections(ids CollectionIDs) *Collections {
	return &Collections{ids: ids}
}

// LoadCollectionsFile reads the mapping from a YAML file.
func LoadCollectionsFile(path string) (*Collections, error) {
	c := &Collections{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the mapping from its source file. A no-op for
// env-configured mappings.
func (c *Collections) Reload() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read collections file: %w", err)
	}

	var ids CollectionIDs
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("parse collections file %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()
	return nil
}

// CollectionFor resolves a category to its collection id.
func (c *Collections) CollectionFor(category classify.Category) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var id string
	switch category {
	case classify.CategoryPeople:
		id = c.ids.People
	case classify.CategoryProjects:
		id = c.ids.Projects
	case classify.CategoryIdeas:
		id = c.ids.Ideas
	case classify.CategoryAdmin:
		id = c.ids.Admin
	}
	return id, id != ""
}

// InboxLogID returns the ledger collection id.
func (c *Collections) InboxLogID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ids.InboxLog
}

// Path returns the source file path, empty when env-configured.
func (c *Collections) Path() string {
	return c.path
}
