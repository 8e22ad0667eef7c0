package tools

import (
	"fmt"
	"slices"
)

// Registry maps tool names to tools. Lookup order is the registration
// order, which is also the order tools are advertised to the model.
//
// Registry is immutable after construction and safe for concurrent reads.
type Registry struct {
	order  []string
	byName map[string]Tool
}

// NewRegistry builds a registry from tools. Duplicate names are a
// configuration error and fail construction.
func NewRegistry(ts ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if t == nil {
			return nil, fmt.Errorf("nil tool in registry")
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered tool names in order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
