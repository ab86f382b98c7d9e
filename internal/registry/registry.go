package registry

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-ragged/internal/ragged"
)

// Store defines a named table of ragged views.
type Store[T ragged.Element] interface {
	// Get retrieves a view handle by name.
	Get(name string) (*ragged.View[T], bool)
	// Put registers a view under name, replacing any previous one.
	Put(name string, v *ragged.View[T])
	// Size returns the number of registered views.
	Size() int
}

// Registry is a map-backed Store. Handles are shared, not copied: every Get
// of a name returns a handle onto the same buffer, so writers through one
// handle exclude readers through another.
type Registry[T ragged.Element] struct {
	views map[string]*ragged.View[T]
	mu    sync.RWMutex
}

func New[T ragged.Element]() *Registry[T] {
	return &Registry[T]{
		views: make(map[string]*ragged.View[T]),
	}
}

func (r *Registry[T]) Get(name string) (*ragged.View[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.views[name]
	if !ok {
		return nil, false
	}
	return v.Handle(), true
}

func (r *Registry[T]) Put(name string, v *ragged.View[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.views[name]; ok {
		log.Debug().Str("name", name).Msg("Replacing registered buffer")
	}
	r.views[name] = v
}

// Delete removes name and reports whether it was registered.
func (r *Registry[T]) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.views[name]
	delete(r.views, name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.views))
	for name := range r.views {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
