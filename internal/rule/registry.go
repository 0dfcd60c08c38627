package rule

import (
	"fmt"
	"sync"
)

// Registry mirrors the teacher's dialect.RegisterDialect/GetDialect
// pattern: a mutex-protected map of constructors, here keyed by rule
// name rather than SQL dialect, so that the ~200-rule library
// (spec.md §4.4) is a closed, registered-by-name set rather than a
// generic expression compiler (spec.md §1's explicit non-goal).
var (
	registryMu sync.RWMutex
	registry   = map[string]func() Rule{}
)

// Register installs the constructor for a rule kind under name. Called
// from each concrete rule file's init() (see internal/rule/library).
func Register(name string, ctor func() Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// New instantiates a fresh, uncompiled rule instance for name.
func New(name string) (Rule, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rule: %q is not registered", name)
	}
	return ctor(), nil
}

// Names returns every registered rule name, for introspection/tests.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// resetRegistry replaces the registry with r. Intended for tests only.
func resetRegistry(r map[string]func() Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = r
}
