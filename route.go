package folio

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// ErrInvalidPattern is returned by NewRouter and BuildPath for malformed route patterns.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrDuplicateRoute is returned by NewRouter when two patterns match the same set of paths.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrMissingParam is returned by BuildPath when a pattern parameter has no value.
	ErrMissingParam = errors.New("missing route parameter")
)

// validIdentifierRegex matches the names allowed for dynamic segments.
var validIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Params holds values captured from dynamic path segments, keyed by parameter name.
type Params map[string]string

// Route binds a path pattern to the component rendered into the layout outlet.
//
// A pattern is a slash-separated list of segments. A segment is either static text,
// a named parameter (":slug") matching exactly one non-empty segment, or a trailing
// catch-all ("*rest") matching the remainder of the path.
type Route struct {
	Pattern string
	Page    Component
}

// Match is the result of a successful route resolution.
type Match struct {
	Route  Route
	Params Params
}

type segmentKind int

const (
	segStatic segmentKind = iota
	segParam
	segCatchAll
)

type segment struct {
	kind  segmentKind
	value string
}

type compiledRoute struct {
	route Route
	segs  []segment
}

// Router is an immutable, ordered route table. The first route matching a path wins.
// It is safe for concurrent use.
type Router struct {
	routes []compiledRoute
}

// NewRouter validates the patterns and builds the route table. Patterns that differ
// only by parameter names (e.g. "/projects/:slug" and "/projects/:id") are duplicates.
func NewRouter(routes ...Route) (*Router, error) {
	r := &Router{routes: make([]compiledRoute, 0, len(routes))}
	shapes := make(map[string]string, len(routes))

	for _, rt := range routes {
		segs, err := parsePattern(rt.Pattern)
		if err != nil {
			return nil, err
		}
		if rt.Page == nil {
			return nil, fmt.Errorf("route %q: page component is nil", rt.Pattern)
		}

		shape := patternShape(segs)
		if prev, ok := shapes[shape]; ok {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateRoute, rt.Pattern, prev)
		}
		shapes[shape] = rt.Pattern

		r.routes = append(r.routes, compiledRoute{route: rt, segs: segs})
	}

	return r, nil
}

// Match resolves urlPath against the table. The path may be escaped; every segment is
// unescaped before comparison. A trailing slash is ignored.
func (r *Router) Match(urlPath string) (Match, bool) {
	segs := splitPath(cleanPath(urlPath))

	for _, cr := range r.routes {
		if params, ok := cr.match(segs); ok {
			return Match{Route: cr.route, Params: params}, true
		}
	}

	return Match{}, false
}

// Routes returns the route table in resolution order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	for i, cr := range r.routes {
		out[i] = cr.route
	}
	return out
}

func (cr compiledRoute) match(segs []string) (Params, bool) {
	params := Params{}

	for i, s := range cr.segs {
		if s.kind == segCatchAll {
			params[s.value] = strings.Join(segs[i:], "/")
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}

		switch s.kind {
		case segStatic:
			if segs[i] != s.value {
				return nil, false
			}
		case segParam:
			if segs[i] == "" {
				return nil, false
			}
			params[s.value] = segs[i]
		}
	}

	if len(segs) != len(cr.segs) {
		return nil, false
	}

	return params, true
}

// BuildPath renders pattern into an escaped URL path using params.
//
//	BuildPath("/projects/:slug", Params{"slug": "abc 1"}) == "/projects/abc%201"
func BuildPath(pattern string, params Params) (string, error) {
	segs, err := parsePattern(pattern)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, s := range segs {
		switch s.kind {
		case segStatic:
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(s.value))
		case segParam:
			v := params[s.value]
			if v == "" {
				return "", fmt.Errorf("%w: %q in %q", ErrMissingParam, s.value, pattern)
			}
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(v))
		case segCatchAll:
			for _, part := range strings.Split(params[s.value], "/") {
				if part == "" {
					continue
				}
				sb.WriteByte('/')
				sb.WriteString(url.PathEscape(part))
			}
		}
	}

	if sb.Len() == 0 {
		return "/", nil
	}
	return sb.String(), nil
}

func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: %q must begin with /", ErrInvalidPattern, pattern)
	}
	if pattern == "/" {
		return nil, nil
	}

	parts := strings.Split(strings.TrimSuffix(pattern[1:], "/"), "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})

	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, pattern)
		}

		if p[0] != ':' && p[0] != '*' {
			segs = append(segs, segment{kind: segStatic, value: p})
			continue
		}

		name := p[1:]
		if !validIdentifierRegex.MatchString(name) {
			return nil, fmt.Errorf("%w: %q has invalid parameter name %q", ErrInvalidPattern, pattern, name)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, pattern, name)
		}
		seen[name] = struct{}{}

		kind := segParam
		if p[0] == '*' {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q catch-all must be the last segment", ErrInvalidPattern, pattern)
			}
			kind = segCatchAll
		}
		segs = append(segs, segment{kind: kind, value: name})
	}

	return segs, nil
}

// patternShape reduces segments to a key that ignores parameter names.
func patternShape(segs []segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteByte('/')
		switch s.kind {
		case segStatic:
			sb.WriteString(s.value)
		case segParam:
			sb.WriteByte(':')
		case segCatchAll:
			sb.WriteByte('*')
		}
	}
	return sb.String()
}

// splitPath splits a cleaned path into unescaped segments.
// "/" yields no segments, and a trailing slash adds none.
func splitPath(p string) []string {
	var segs []string
	for p != "" && p != "/" {
		var seg string
		seg, p = firstSegment(p)
		segs = append(segs, seg)
	}
	return segs
}

// cleanPath returns the canonical path for p, eliminating . and .. elements.
//
// Copied from net/http/server.go
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		// Fast path for common case of p being the string we want:
		if len(p) == len(np)+1 && strings.HasPrefix(p, np) {
			np = p
		} else {
			np += "/"
		}
	}
	return np
}

// firstSegment splits path into its first segment, and the rest.
// The path must begin with "/".
// If path consists of only a slash, firstSegment returns ("/", "").
// The segment is returned unescaped, if possible.
//
// Copied from net/http/routing_tree.go.
func firstSegment(path string) (seg, rest string) {
	if path == "/" {
		return "/", ""
	}
	path = path[1:] // drop initial slash
	i := strings.IndexByte(path, '/')
	if i < 0 {
		i = len(path)
	}
	return pathUnescape(path[:i]), path[i:]
}

// Copied from net/http/routing_tree.go.
func pathUnescape(path string) string {
	u, err := url.PathUnescape(path)
	if err != nil {
		// Invalidly escaped path; use the original
		return path
	}
	return u
}
