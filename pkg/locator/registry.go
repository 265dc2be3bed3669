// Package locator maps symbolic element names to location strategies.
// Components register their locators at construction and resolve them by
// name; unknown names fail fast with core.ErrLocatorNotFound.
package locator

import (
	"sort"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Registry holds named locators for one component. Later registrations
// overwrite earlier ones by name (last write wins). A Registry is owned by
// a single component and is not synchronized.
type Registry struct {
	entries map[string]core.Locator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]core.Locator)}
}

// Register adds one locator under the given name. An unset strategy
// defaults to CSS. The stored locator carries the name for error messages.
func (r *Registry) Register(name string, loc core.Locator) {
	if loc.Strategy == "" {
		loc.Strategy = core.StrategyCSS
	}
	loc.Name = name
	r.entries[name] = loc
}

// RegisterCSS adds a CSS locator under the given name.
func (r *Registry) RegisterCSS(name, selector string) {
	r.Register(name, core.Locator{Strategy: core.StrategyCSS, Selector: selector})
}

// Merge registers every entry of the map, overwriting by name.
func (r *Registry) Merge(entries map[string]core.Locator) {
	for name, loc := range entries {
		r.Register(name, loc)
	}
}

// MergeSet registers every entry of a loaded locator set.
func (r *Registry) MergeSet(set Set) {
	for name, entry := range set {
		r.Register(name, core.Locator{Strategy: entry.Strategy, Selector: entry.Selector})
	}
}

// Resolve returns the locator registered under name. Unknown names fail
// with core.ErrLocatorNotFound; callers never receive a zero locator.
func (r *Registry) Resolve(name string) (core.Locator, error) {
	loc, ok := r.entries[name]
	if !ok {
		return core.Locator{}, core.ErrLocatorNotFound.WithDetails(map[string]interface{}{
			"name": name,
		})
	}
	return loc, nil
}

// Has reports whether a locator is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered locators.
func (r *Registry) Len() int {
	return len(r.entries)
}
