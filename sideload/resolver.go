package sideload

import (
	"slices"
	"strings"

	"github.com/on-the-ground/wrapped_ive_go/pure"
)

const resolverTableSize = 256

// Resolver finds the hooks of one interceptor that apply to a method.
// It is safe for concurrent use.
type Resolver struct {
	registered []Hook
	order      OrderSpec
	resolve    func(Phase, string, string) []string
}

// NewResolver takes hooks in registration order, which is also the
// discovery order.
func NewResolver(hooks []Hook, order OrderSpec) *Resolver {
	r := &Resolver{
		registered: slices.Clone(hooks),
		order:      order,
	}
	r.resolve = pure.TableizeI3O1(r.compute, resolverTableSize)
	return r
}

// Resolve returns the names of the hooks to run for method in phase, in
// execution order. The slice is the caller's to keep.
func (r *Resolver) Resolve(phase Phase, prefix, method string) []string {
	return slices.Clone(r.resolve(phase, prefix, method))
}

func (r *Resolver) compute(phase Phase, prefix, method string) []string {
	base := BaseHookName(prefix, method)

	discovered := make([]string, 0)
	for _, h := range r.registered {
		if h.Phase() == phase && strings.HasPrefix(h.Name, base) {
			discovered = append(discovered, h.Name)
		}
	}
	if r.order.IsZero() || len(discovered) == 0 {
		return discovered
	}

	ordered := make([]string, 0, len(discovered))
	seen := make(map[string]struct{}, len(discovered))
	for _, name := range r.order.entriesFor(base) {
		if _, dup := seen[name]; dup || !slices.Contains(discovered, name) {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}
	for _, name := range discovered {
		if _, ok := seen[name]; !ok {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
