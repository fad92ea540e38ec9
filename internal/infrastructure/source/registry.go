package source

import (
	"fmt"

	"SocialPulse/internal/ports"
)

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]ports.Source
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.Source{}}
}

// Register adds or replaces a source implementation. Registration order is
// preserved so fetch results concatenate deterministically.
func (r *Registry) Register(src ports.Source) {
	if r.sources == nil {
		r.sources = map[string]ports.Source{}
	}
	if _, ok := r.sources[src.Name()]; !ok {
		r.order = append(r.order, src.Name())
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// All returns registered sources in registration order.
func (r *Registry) All() []ports.Source {
	all := make([]ports.Source, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.sources[name])
	}
	return all
}
