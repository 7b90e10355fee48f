package widgets

import (
	"fmt"
	"sort"
	"sync"

	"appbuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Widget-type registry: static metadata per widget type
// ─────────────────────────────────────────────────────────────

// Registry maps widget type tags to their descriptors.
type Registry struct {
	mu    sync.RWMutex
	types map[domain.WidgetType]domain.TypeDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[domain.WidgetType]domain.TypeDescriptor)}
}

// Register adds a widget type. Panics on duplicate registration or on a
// descriptor without a positive default size.
func (r *Registry) Register(d domain.TypeDescriptor) {
	if d.DefaultSize.Width <= 0 || d.DefaultSize.Height <= 0 {
		panic(fmt.Sprintf("widget registry: type %q has non-positive default size %dx%d",
			d.Component, d.DefaultSize.Width, d.DefaultSize.Height))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[d.Component]; exists {
		panic(fmt.Sprintf("widget registry: duplicate registration for type %q", d.Component))
	}
	r.types[d.Component] = d.Clone()
}

// Lookup returns a copy of the descriptor for t.
func (r *Registry) Lookup(t domain.WidgetType) (domain.TypeDescriptor, bool) {
	r.mu.RLock()
	d, ok := r.types[t]
	r.mu.RUnlock()
	if !ok {
		return domain.TypeDescriptor{}, false
	}
	return d.Clone(), true
}

// List returns all descriptors ordered by type tag.
func (r *Registry) List() []domain.TypeDescriptor {
	r.mu.RLock()
	out := make([]domain.TypeDescriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}
