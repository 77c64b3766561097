// Package template expands the {placeholder} and {placeholder!filter}
// tokens used by catalog URLs and archive paths.
//
// Only three placeholders exist: version, platform and arch. Their values
// come from an explicit Context so that formatting is deterministic and
// testable for any simulated platform.
package template

import (
	"strings"

	"github.com/zeebo/errs"
)

// Error is the class of every formatting failure: unknown placeholder,
// unknown filter or malformed token.
var Error = errs.Class("template error")

// Placeholder names.
const (
	PlaceholderVersion  = "version"
	PlaceholderPlatform = "platform"
	PlaceholderArch     = "arch"
)

// Context holds the values substituted into a template.
// An empty Version means no version was declared; referencing {version}
// is then an error.
type Context struct {
	Version  string
	Platform string
	Arch     string
}

// lookup returns the value bound to a placeholder name.
func (c Context) lookup(name string) (string, bool) {
	switch name {
	case PlaceholderVersion:
		return c.Version, c.Version != ""
	case PlaceholderPlatform:
		return c.Platform, true
	case PlaceholderArch:
		return c.Arch, true
	default:
		return "", false
	}
}

// Format expands every token in tmpl using ctx.
//
// A token is "{name}" or "{name!filter}". Filters apply singly; there is
// no chaining. A closing brace outside a token is copied through.
func Format(tmpl string, ctx Context) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tmpl) + 32)

	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:open])

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", Error.New("unterminated token in %q", tmpl)
		}
		token := rest[open+1 : open+end]

		value, err := expand(token, ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)

		rest = rest[open+end+1:]
	}
}

// MustFormat is like Format but panics on error.
// It is meant for constant templates in tests and static tables.
func MustFormat(tmpl string, ctx Context) string {
	s, err := Format(tmpl, ctx)
	if err != nil {
		panic(err)
	}
	return s
}

// expand resolves the inside of a single {...} token.
func expand(token string, ctx Context) (string, error) {
	name, filterName, hasFilter := strings.Cut(token, "!")
	if name == "" {
		return "", Error.New("empty placeholder name in {%s}", token)
	}
	if strings.ContainsAny(name, "{ ") {
		return "", Error.New("malformed token {%s}", token)
	}

	value, ok := ctx.lookup(name)
	if !ok {
		return "", Error.New("placeholder %q is not defined", name)
	}

	if !hasFilter {
		return value, nil
	}

	filter, ok := lookupFilter(filterName)
	if !ok {
		return "", Error.New("unknown filter %q on placeholder %q", filterName, name)
	}
	return filter(value), nil
}
