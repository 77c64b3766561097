package template

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Filter transforms a single placeholder value.
type Filter func(string) string

// Built-in filter names.
const (
	FilterCapitalize = "capitalize"
	FilterX64ToAmd64 = "x64ToAmd64"
	FilterX64To64    = "x64To64"
	FilterLower      = "lower"
	FilterUpper      = "upper"
)

var (
	filtersMu sync.RWMutex
	filters   = map[string]Filter{
		FilterCapitalize: capitalize,
		FilterX64ToAmd64: archMapper(map[string]string{"x64": "amd64"}),
		FilterX64To64:    archMapper(map[string]string{"x64": "64"}),
		FilterLower:      strings.ToLower,
		FilterUpper:      strings.ToUpper,
	}
)

// RegisterFilter adds or replaces a named filter.
// Registering is safe for concurrent use with Format.
func RegisterFilter(name string, f Filter) {
	filtersMu.Lock()
	defer filtersMu.Unlock()
	filters[name] = f
}

// RegisterArchMapping registers a filter that rewrites architecture tokens
// through table and passes unknown tokens through unchanged.
func RegisterArchMapping(name string, table map[string]string) {
	RegisterFilter(name, archMapper(table))
}

// Filters returns the names of all registered filters.
func Filters() []string {
	filtersMu.RLock()
	defer filtersMu.RUnlock()

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	return names
}

func lookupFilter(name string) (Filter, bool) {
	filtersMu.RLock()
	defer filtersMu.RUnlock()
	f, ok := filters[name]
	return f, ok
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func archMapper(table map[string]string) Filter {
	m := make(map[string]string, len(table))
	for k, v := range table {
		m[k] = v
	}
	return func(s string) string {
		if mapped, ok := m[s]; ok {
			return mapped
		}
		return s
	}
}
