package sideload

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// OrderSpec declares the order hooks run in.
//
// Groups maps a base hook name ("preIndex") to the ordered hooks of that
// base. Sequence is the flat fallback used for every base without a group.
// Entries that do not start with the base are ignored, as are entries naming
// hooks that were never registered. Registered hooks the order does not
// mention run after the ordered ones, in registration order.
type OrderSpec struct {
	Sequence []string
	Groups   map[string][]string
}

// Order starts an OrderSpec with a flat sequence.
func Order(names ...string) OrderSpec {
	return OrderSpec{Sequence: slices.Clone(names)}
}

// Group returns a copy of o with an ordered group for base.
func (o OrderSpec) Group(base string, names ...string) OrderSpec {
	groups := maps.Clone(o.Groups)
	if groups == nil {
		groups = make(map[string][]string)
	}
	groups[base] = slices.Clone(names)
	return OrderSpec{
		Sequence: slices.Clone(o.Sequence),
		Groups:   groups,
	}
}

func (o OrderSpec) IsZero() bool {
	return len(o.Sequence) == 0 && len(o.Groups) == 0
}

// entriesFor is the declared order for base: its group if one exists,
// otherwise the flat sequence, filtered to names starting with base.
func (o OrderSpec) entriesFor(base string) []string {
	source := o.Sequence
	if group, ok := o.Groups[base]; ok {
		source = group
	}
	out := make([]string, 0, len(source))
	for _, name := range source {
		if strings.HasPrefix(name, base) {
			out = append(out, name)
		}
	}
	return out
}

// ParseOrderSpec converts a configuration value into an OrderSpec.
//
// Accepted shapes:
//   - nil: no ordering.
//   - a sequence of names.
//   - a sequence mixing names and single-key mappings of base name to a
//     sequence of names.
//   - a mapping of base name to a sequence of names.
//
// Anything else, including a mapping entry that is not a sequence, is
// ErrMalformedOrder.
func ParseOrderSpec(raw any) (OrderSpec, error) {
	switch v := raw.(type) {
	case nil:
		return OrderSpec{}, nil
	case OrderSpec:
		return v, nil
	case []string:
		return Order(v...), nil
	case map[string][]string:
		spec := OrderSpec{Groups: make(map[string][]string, len(v))}
		for base, names := range v {
			spec.Groups[base] = slices.Clone(names)
		}
		return spec, nil
	case map[string]any:
		spec := OrderSpec{}
		if err := parseGroups(&spec, v); err != nil {
			return OrderSpec{}, err
		}
		return spec, nil
	case []any:
		spec := OrderSpec{}
		for i, item := range v {
			switch entry := item.(type) {
			case string:
				spec.Sequence = append(spec.Sequence, entry)
			case map[string]any:
				if err := parseGroups(&spec, entry); err != nil {
					return OrderSpec{}, err
				}
			default:
				return OrderSpec{}, fmt.Errorf("%w: item %d is %T", ErrMalformedOrder, i, item)
			}
		}
		return spec, nil
	default:
		return OrderSpec{}, fmt.Errorf("%w: got %T", ErrMalformedOrder, raw)
	}
}

func parseGroups(spec *OrderSpec, groups map[string]any) error {
	if spec.Groups == nil {
		spec.Groups = make(map[string][]string, len(groups))
	}
	bases := slices.Collect(maps.Keys(groups))
	sort.Strings(bases)
	for _, base := range bases {
		names, err := parseNames(groups[base])
		if err != nil {
			return fmt.Errorf("group %q: %w", base, err)
		}
		spec.Groups[base] = names
	}
	return nil
}

func parseNames(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return slices.Clone(v), nil
	case []any:
		names := make([]string, 0, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T", ErrMalformedOrder, i, item)
			}
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMalformedOrder, raw)
	}
}
