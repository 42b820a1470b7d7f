package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Backend name constants.
const (
	// NameSoftware is the CPU reference backend.
	NameSoftware = "software"
	// NameNative is the wgpu/hal GPU backend.
	NameNative = "native"
)

// Factory opens a backend instance.
type Factory func() (GraphicsBackend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	priority = []string{NameNative, NameSoftware}
)

// Register registers a backend factory under name.
// This is typically called from init() functions in backend packages.
// A later registration with the same name replaces the earlier one.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string) (GraphicsBackend, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrBackendNotAvailable, name)
	}
	b, err := f()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
	}
	return b, nil
}

// OpenDefault opens the best available backend in priority order, then any
// other registered backend.
func OpenDefault() (GraphicsBackend, error) {
	tried := make(map[string]bool)
	var lastErr error
	for _, name := range append(append([]string(nil), priority...), Available()...) {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true
		b, err := Open(name)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no backends registered", ErrBackendNotAvailable)
	}
	return nil, lastErr
}
