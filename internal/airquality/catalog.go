package airquality

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is the static set of scopes, each a fixed list of cities.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	scopes       map[string][]CitySpec
	defaultScope string
}

// NewCatalog builds a catalog. Scope names are matched case-insensitively.
func NewCatalog(scopes map[string][]CitySpec, defaultScope string) (*Catalog, error) {
	c := &Catalog{
		scopes:       make(map[string][]CitySpec, len(scopes)),
		defaultScope: strings.ToLower(strings.TrimSpace(defaultScope)),
	}
	for name, cities := range scopes {
		key := strings.ToLower(strings.TrimSpace(name))
		list := make([]CitySpec, 0, len(cities))
		for _, city := range cities {
			if strings.TrimSpace(city.Name) == "" {
				return nil, fmt.Errorf("scope %q: city with empty name", name)
			}
			if city.Country == "" {
				city.Country = "Unknown"
			}
			if city.ProviderKey == "" {
				city.ProviderKey = slug(city.Name)
			}
			list = append(list, city)
		}
		c.scopes[key] = list
	}
	if _, ok := c.scopes[c.defaultScope]; !ok {
		return nil, fmt.Errorf("default scope %q is not configured", defaultScope)
	}
	return c, nil
}

// Default returns the name of the fallback scope.
func (c *Catalog) Default() string {
	return c.defaultScope
}

// Resolve returns the cities for scope. An unrecognized or empty scope falls
// back to the default scope; the returned name is the scope actually used.
func (c *Catalog) Resolve(scope string) (string, []CitySpec, error) {
	name := strings.ToLower(strings.TrimSpace(scope))
	cities, ok := c.scopes[name]
	if !ok {
		name = c.defaultScope
		cities = c.scopes[name]
	}
	if len(cities) == 0 {
		return name, nil, fmt.Errorf("%w: %s", ErrEmptyScope, name)
	}
	return name, cities, nil
}

// Known reports whether scope names a configured scope.
func (c *Catalog) Known(scope string) bool {
	_, ok := c.scopes[strings.ToLower(strings.TrimSpace(scope))]
	return ok
}

// Names returns the configured scope names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.scopes))
	for name := range c.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of cities in scope, or 0 when it is not configured.
func (c *Catalog) Size(scope string) int {
	return len(c.scopes[strings.ToLower(strings.TrimSpace(scope))])
}

// Lookup finds a city by provider key or display name across all scopes.
func (c *Catalog) Lookup(city string) (CitySpec, error) {
	want := slug(city)
	if want == "" {
		return CitySpec{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	// Default scope first so duplicates resolve deterministically.
	for _, name := range append([]string{c.defaultScope}, c.Names()...) {
		for _, spec := range c.scopes[name] {
			if slug(spec.ProviderKey) == want || slug(spec.Name) == want {
				return spec, nil
			}
		}
	}
	return CitySpec{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
}

// slug lowercases s and strips everything but letters and digits,
// so "New York", "new-york" and "newyork" compare equal.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
