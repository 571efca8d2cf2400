package commands

import "sort"

// Registry maps normalized command names to handlers. It is filled once by
// NewRegistry and only read afterwards, so it is safe for concurrent use
// without locking.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry builds a registry from defs. Names are normalized; when two
// definitions share a name the first one wins. Definitions without a handler
// or name are skipped.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		d.Name = NormalizeName(d.Name)
		if d.Name == "" || d.Handler == nil {
			continue
		}
		if _, exists := r.index[d.Name]; exists {
			continue
		}
		r.index[d.Name] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r
}

// Resolve returns the handler registered under name, or Unknown.
// The match is exact; callers normalize name first.
func (r *Registry) Resolve(name string) Handler {
	if i, ok := r.index[name]; ok {
		return r.defs[i].Handler
	}
	return Unknown{}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Definitions returns the registered definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
