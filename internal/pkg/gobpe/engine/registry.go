package engine

import (
	"fmt"
	"slices"
	"sync"

	"gobpe/internal/pkg/gobpe/bpe"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("engine: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	registry[name] = factory
}

// New builds an untrained tokenizer of the named variant.
func New(cfg Config) (*bpe.Tokenizer, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Variant]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown variant %q (registered: %v)", cfg.Variant, ListVariants())
	}
	return factory(cfg)
}

func ListVariants() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
