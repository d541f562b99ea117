package backend

import (
	"errors"
	"slices"
	"sync"
)

// Factory creates a new backend instance.
type Factory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > Recording (Recording needs no device and never fails).
	backendPriority = []string{BackendNative, BackendRecording}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// candidates returns factories in priority order, followed by the rest in
// name order.
func candidates() []Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Factory, 0, len(backends))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			out = append(out, f)
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		out = append(out, backends[name])
	}
	return out
}

// Default returns the best available backend based on priority.
// Priority order: native > recording.
// Returns nil if no backends are registered.
func Default() Backend {
	for _, factory := range candidates() {
		if b := factory(); b != nil {
			return b
		}
	}
	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() Backend {
	b := Default()
	if b == nil {
		panic("backend: no backend available")
	}
	return b
}

// InitDefault initializes the first backend, in priority order, whose Init
// succeeds. A native backend without a usable adapter falls through to the
// recording backend.
func InitDefault() (Backend, error) {
	var errs []error
	for _, factory := range candidates() {
		b := factory()
		if b == nil {
			continue
		}
		if err := b.Init(); err != nil {
			errs = append(errs, err)
			continue
		}
		return b, nil
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}
