package commands

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	primary []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds c under its name and aliases. Registering a name twice is an
// error and leaves the registry unchanged.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, name := range names {
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("command name already registered: %s", name)
		}
	}
	for _, name := range names {
		r.byName[name] = c
	}

	r.primary = append(r.primary, c)
	slices.SortFunc(r.primary, func(a, b Command) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.primary)
}

// DefaultRegistry holds the commands registered by this package.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry and panics on conflict.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
