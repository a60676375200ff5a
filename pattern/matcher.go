// Package pattern matches request paths against servlet style URL patterns.
//
// Supported forms:
//
//	/admin/api/login   exact path
//	/admin/*           /admin, /admin/ and everything below
//	/*                 every path
//	/api/**/comments   ** spans zero or more segments
//	/api/v?/users      per segment globs as understood by path.Match
//	*.js               extension match on the last segment
package pattern

import (
	"path"
	"strings"

	"github.com/saiset-co/sai-authchain/types"
)

const anySegments = "**"

type Pattern struct {
	raw       string
	exact     bool
	extension bool
	segments  []string
}

func Compile(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, types.ErrFilterPatternEmpty
	}

	p := &Pattern{raw: raw}

	if strings.HasPrefix(raw, "*.") {
		if _, err := path.Match(raw, ""); err != nil {
			return nil, types.Errorf(types.ErrInvalidParameter, "pattern %q: %v", raw, err)
		}
		p.extension = true
		return p, nil
	}

	if !strings.HasPrefix(raw, "/") {
		return nil, types.Errorf(types.ErrInvalidParameter, "pattern %q must start with /", raw)
	}

	if !strings.ContainsAny(raw, "*?[") {
		p.exact = true
		return p, nil
	}

	segments := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	for i, segment := range segments {
		if segment == anySegments {
			continue
		}
		if strings.Contains(segment, anySegments) {
			return nil, types.Errorf(types.ErrInvalidParameter, "pattern %q: ** must be a whole segment", raw)
		}
		if _, err := path.Match(segment, ""); err != nil {
			return nil, types.Errorf(types.ErrInvalidParameter, "pattern %q: %v", raw, err)
		}
		if segment == "*" && i == len(segments)-1 {
			segments[i] = anySegments
		}
	}

	p.segments = segments
	return p, nil
}

func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches compiles pattern and matches it once. Malformed patterns never match.
func Matches(pattern, requestPath string) bool {
	p, err := Compile(pattern)
	if err != nil {
		return false
	}
	return p.Match(requestPath)
}

func (p *Pattern) String() string {
	return p.raw
}

func (p *Pattern) Match(requestPath string) bool {
	switch {
	case p.exact:
		return p.raw == requestPath
	case p.extension:
		ok, _ := path.Match(p.raw, path.Base(requestPath))
		return ok
	}

	if !strings.HasPrefix(requestPath, "/") {
		return false
	}

	return matchSegments(p.segments, strings.Split(strings.TrimPrefix(requestPath, "/"), "/"))
}

func matchSegments(patterns, segments []string) bool {
	for len(patterns) > 0 {
		current := patterns[0]

		if current == anySegments {
			if len(patterns) == 1 {
				return true
			}
			for i := 0; i <= len(segments); i++ {
				if matchSegments(patterns[1:], segments[i:]) {
					return true
				}
			}
			return false
		}

		if len(segments) == 0 {
			return false
		}

		if ok, err := path.Match(current, segments[0]); err != nil || !ok {
			return false
		}

		patterns = patterns[1:]
		segments = segments[1:]
	}

	return len(segments) == 0
}
