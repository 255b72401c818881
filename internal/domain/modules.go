package domain

import "sort"

// ModuleSet is a set of access-module names. Module names are opaque
// strings; the set holds them sorted and without duplicates, and
// marshals to JSON as a plain array.
type ModuleSet []string

// NewModuleSet builds a set from the given names, dropping duplicates
// and empty strings.
func NewModuleSet(names ...string) ModuleSet {
	seen := make(map[string]struct{}, len(names))
	set := make(ModuleSet, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		set = append(set, n)
	}
	sort.Strings(set)
	return set
}

// Contains reports whether name is in the set.
func (s ModuleSet) Contains(name string) bool {
	i := sort.SearchStrings(s, name)
	return i < len(s) && s[i] == name
}

// Union returns a new set holding the members of s and all of names.
// Adding a module that is already present is a no-op for that entry.
func (s ModuleSet) Union(names ...string) ModuleSet {
	return NewModuleSet(append(append(make([]string, 0, len(s)+len(names)), s...), names...)...)
}

// Remove returns a new set without name and reports whether name was
// present. Removing an absent module is a no-op, not an error.
func (s ModuleSet) Remove(name string) (ModuleSet, bool) {
	if !s.Contains(name) {
		return s, false
	}
	out := make(ModuleSet, 0, len(s)-1)
	for _, m := range s {
		if m != name {
			out = append(out, m)
		}
	}
	return out, true
}

// Equal reports whether two sets hold the same members.
func (s ModuleSet) Equal(other ModuleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
