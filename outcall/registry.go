package outcall

import (
	"fmt"
	"sync"
)

// Registry maps transform names to transforms
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewRegistry creates a registry containing Normalize
// under TransformHTTPResponse
func NewRegistry() *Registry {
	registry := &Registry{transforms: map[string]Transform{}}
	registry.transforms[TransformHTTPResponse] = Normalize

	return registry
}

// Register adds a transform. Names must be unique.
func (registry *Registry) Register(name string, transform Transform) error {
	if name == "" || transform == nil {
		return fmt.Errorf("transform name and function are required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.transforms[name]; ok {
		return fmt.Errorf("transform %s is already registered", name)
	}

	registry.transforms[name] = transform

	return nil
}

// Lookup returns the transform referenced by ref
func (registry *Registry) Lookup(ref *TransformRef) (Transform, error) {
	if ref == nil {
		return nil, fmt.Errorf("%w: request has no transform", ErrNoTransform)
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	transform, ok := registry.transforms[ref.Function]

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTransform, ref.Function)
	}

	return transform, nil
}
