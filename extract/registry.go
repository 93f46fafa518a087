package extract

import (
	"fmt"
	"sort"
)

// Backend names.
const (
	PlainName        = "pdfcpu"
	LayoutName       = "ledongthuc"
	ReadingOrderName = "pdftotext"
)

// Registry looks backends up by name.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry returns a registry holding the three built-in backends.
func NewRegistry() *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range []Backend{NewPlainBackend(), NewLayoutBackend(), NewReadingOrderBackend()} {
		r.backends[b.Name()] = b
	}
	return r
}

func (r *Registry) Get(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("no extraction backend named %q", name)
	}
	return b, nil
}

// Register adds or replaces a backend under its own name.
func (r *Registry) Register(b Backend) {
	r.backends[b.Name()] = b
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
