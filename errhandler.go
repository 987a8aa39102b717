package folio

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/net/html"
)

// errorBoundary renders page and falls back to another component when the page fails.
type errorBoundary struct {
	// page is the routed component.
	page Component

	// fallback renders instead of page on error. If nil, the page error is returned.
	fallback Component
}

var _ Component = (*errorBoundary)(nil)

func (eb *errorBoundary) Render(s *Scope) (*html.Node, error) {
	n, err := eb.page.Render(s)
	if err == nil {
		return n, nil
	}

	if eb.fallback == nil {
		return nil, err
	}

	errs := []error{err}
	if multierr, ok := err.(interface{ Unwrap() []error }); ok {
		errs = multierr.Unwrap()
	}

	s.SetStatus(http.StatusInternalServerError)

	ss := s.Spawn(map[string]any{
		"error":  err,
		"errors": errs,
	})

	fn, ferr := eb.fallback.Render(ss)
	if ferr != nil {
		return nil, errors.Join(err, fmt.Errorf("render error component: %w", ferr))
	}
	return fn, nil
}

// ScopeError returns the error an error component is rendering for, or nil.
func ScopeError(s *Scope) error {
	err, _ := s.Var("error").(error)
	return err
}
