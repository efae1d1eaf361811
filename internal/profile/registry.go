package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Registry resolves pose identifiers to profiles. It is built once at startup
// and is read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	profiles map[string]*Profile
	aliases  map[string]string
	// index maps normalized identifiers to canonical keys.
	index map[string]string
}

// NewRegistry validates the profiles and alias table and builds a registry.
// Aliases map public identifiers to canonical profile IDs.
func NewRegistry(profiles []*Profile, aliases map[string]string) (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]*Profile, len(profiles)),
		aliases:  make(map[string]string, len(aliases)),
		index:    make(map[string]string),
	}

	for _, p := range profiles {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.profiles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile %q", p.ID)
		}
		if other, exists := r.index[normalizeID(p.ID)]; exists {
			return nil, fmt.Errorf("profile %q collides with profile %q", p.ID, other)
		}
		r.profiles[p.ID] = p
		r.index[normalizeID(p.ID)] = p.ID
	}

	for alias, target := range aliases {
		if _, ok := r.profiles[target]; !ok {
			return nil, fmt.Errorf("alias %q points to unknown profile %q", alias, target)
		}
		if _, ok := r.profiles[alias]; ok && alias != target {
			return nil, fmt.Errorf("alias %q shadows profile %q", alias, alias)
		}
		if id, ok := r.index[normalizeID(alias)]; ok && id != target {
			return nil, fmt.Errorf("alias %q collides with profile %q", alias, id)
		}
		r.aliases[alias] = target
	}

	// Profiles are already indexed. Aliases fill the remaining normalized forms,
	// in sorted order when two aliases normalize alike.
	keys := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		keys = append(keys, alias)
	}
	sort.Strings(keys)
	for _, alias := range keys {
		if _, ok := r.index[normalizeID(alias)]; !ok {
			r.index[normalizeID(alias)] = r.aliases[alias]
		}
	}

	return r, nil
}

// Lookup returns the profile for a canonical key or alias.
// Returns ErrUnknownPose if the identifier cannot be resolved.
func (r *Registry) Lookup(id string) (*Profile, error) {
	key, ok := r.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPose, id)
	}
	return r.profiles[key], nil
}

// Resolve maps an identifier to its canonical profile key.
// Exact keys are tried first, then the alias table, then a case- and
// separator-insensitive match.
func (r *Registry) Resolve(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	if _, ok := r.profiles[id]; ok {
		return id, true
	}
	if key, ok := r.aliases[id]; ok {
		return key, true
	}
	key, ok := r.index[normalizeID(id)]
	return key, ok
}

// List returns all profiles sorted by ID.
func (r *Registry) List() []*Profile {
	list := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// AliasesOf returns the sorted aliases that point to the given profile.
func (r *Registry) AliasesOf(id string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == id {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// normalizeID lower-cases id, trims it, and folds '_' and ' ' to '-'.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.NewReplacer("_", "-", " ", "-").Replace(id)
}
