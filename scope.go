package folio

import (
	"context"
	"net/http"

	"golang.org/x/net/html"
)

// Component renders a part of a page. A nil node with a nil error renders nothing.
type Component interface {
	Render(s *Scope) (*html.Node, error)
}

// ComponentFunc adapts a function to the Component interface.
type ComponentFunc func(s *Scope) (*html.Node, error)

func (f ComponentFunc) Render(s *Scope) (*html.Node, error) { return f(s) }

// Scope carries the per-render state passed to components: the request, the resolved
// path and its parameters, and the response status, header and title collected while
// rendering. Child scopes created with Spawn share everything except their variables.
type Scope struct {
	req     *http.Request
	path    string
	params  Params
	vars    map[string]any
	globals *scopeGlobals
}

type scopeGlobals struct {
	statusCode int
	header     http.Header
	title      string
}

func newScope(req *http.Request, urlPath string, params Params) *Scope {
	if params == nil {
		params = Params{}
	}
	return &Scope{
		req:    req,
		path:   urlPath,
		params: params,
		vars:   map[string]any{},
		globals: &scopeGlobals{
			header: make(http.Header),
		},
	}
}

// NewScope creates a root scope. It is meant for rendering components outside of a
// Handler, e.g. in tests.
func NewScope(req *http.Request, urlPath string, params Params) *Scope {
	return newScope(req, urlPath, params)
}

// Spawn creates a child scope with extra variables.
func (s *Scope) Spawn(vars map[string]any) *Scope {
	return &Scope{
		req:     s.req,
		path:    s.path,
		params:  s.params,
		vars:    vars,
		globals: s.globals,
	}
}

// Request returns the HTTP request that started the render. For live navigation it is
// the websocket upgrade request.
func (s *Scope) Request() *http.Request { return s.req }

// Context returns the request context, or context.Background without a request.
func (s *Scope) Context() context.Context {
	if s.req == nil {
		return context.Background()
	}
	return s.req.Context()
}

// Path returns the cleaned URL path being rendered.
func (s *Scope) Path() string { return s.path }

// Param returns a route parameter, or "" when it is not set.
func (s *Scope) Param(name string) string { return s.params[name] }

// Params returns all route parameters.
func (s *Scope) Params() Params { return s.params }

// Var returns a variable set by Spawn.
func (s *Scope) Var(name string) any { return s.vars[name] }

// SetStatus sets the HTTP status code of the response.
func (s *Scope) SetStatus(code int) { s.globals.statusCode = code }

// Status returns the status set by components, or 0.
func (s *Scope) Status() int { return s.globals.statusCode }

// Header returns the response header to be sent with the page.
func (s *Scope) Header() http.Header { return s.globals.header }

// SetTitle sets the page title; the layout combines it with the site title.
func (s *Scope) SetTitle(title string) { s.globals.title = title }

// Title returns the page title set by components.
func (s *Scope) Title() string { return s.globals.title }
