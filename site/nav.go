package site

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dpotapov/go-folio"
)

// NavItem is a link in the navigation bar.
type NavItem struct {
	Label string `mapstructure:"label"`
	Path  string `mapstructure:"path"`
}

// NavBar renders the site brand followed by the configured links. The link whose
// path contains the current page is marked with aria-current.
type NavBar struct {
	Brand string
	Items []NavItem
}

var _ folio.Component = (*NavBar)(nil)

func (nb *NavBar) Render(s *folio.Scope) (*html.Node, error) {
	list := folio.El("ul")
	for _, it := range nb.Items {
		a := folio.El("a", folio.Attr("href", it.Path), it.Label)
		if isActive(it.Path, s.Path()) {
			folio.SetAttr(a, "aria-current", "page")
		}
		list.AppendChild(folio.El("li", a))
	}

	return folio.El("nav", folio.Attr("class", "navbar"),
		folio.El("a", folio.Attr("class", "brand"), folio.Attr("href", "/"), nb.Brand),
		list,
	), nil
}

func isActive(itemPath, current string) bool {
	if itemPath == "/" {
		return current == "/"
	}
	itemPath = strings.TrimSuffix(itemPath, "/")
	return current == itemPath || strings.HasPrefix(current, itemPath+"/")
}
