package folio

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

// OutletID is the id of the element holding routed content.
const OutletID = "outlet"

// DefaultSpacerHeight is used when Layout.SpacerHeight is empty.
const DefaultSpacerHeight = "4rem"

// Layout is the persistent shell around every page. The body always contains, in
// order, the navigation, a fixed-height spacer and the outlet with the routed content.
// Layout keeps no per-request state and may be shared between requests.
type Layout struct {
	// Title is the site title. Page titles set on the Scope are prefixed to it.
	Title string

	// Lang is the document language, "en" by default.
	Lang string

	// Nav renders the navigation bar. It is required.
	Nav Component

	// SpacerHeight is a CSS length for the spacer between navigation and content.
	SpacerHeight string

	// Assets resolves Stylesheets and Scripts to versioned URLs.
	Assets AssetCollector

	// Stylesheets and Scripts are asset names linked from every page.
	Stylesheets []string
	Scripts     []string
}

// Render builds the full HTML document with content placed in the outlet. A nil
// content leaves the outlet empty; the navigation is rendered regardless.
func (l *Layout) Render(s *Scope, content *html.Node) (*html.Node, error) {
	nav, err := l.RenderNav(s)
	if err != nil {
		return nil, err
	}

	head := El("head",
		El("meta", Attr("charset", "utf-8")),
		El("meta", Attr("name", "viewport"), Attr("content", "width=device-width, initial-scale=1")),
		El("title", l.PageTitle(s)),
	)

	body := El("body",
		nav,
		El("div", Attr("class", "spacer"), Attr("aria-hidden", "true"), Attr("style", "height: "+l.spacerHeight())),
		El("main", Attr("id", OutletID), content),
	)

	if l.Assets != nil {
		for _, name := range l.Stylesheets {
			n, err := AssetNode(l.Assets, name)
			if err != nil {
				return nil, err
			}
			appendContent(head, n)
		}
		for _, name := range l.Scripts {
			n, err := AssetNode(l.Assets, name)
			if err != nil {
				return nil, err
			}
			appendContent(body, n)
		}
	}

	lang := l.Lang
	if lang == "" {
		lang = "en"
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(El("html", Attr("lang", lang), head, body))

	return doc, nil
}

// RenderNav renders the navigation component for the path in s.
func (l *Layout) RenderNav(s *Scope) (*html.Node, error) {
	if l.Nav == nil {
		return nil, errors.New("layout: navigation component is not set")
	}
	nav, err := l.Nav.Render(s)
	if err != nil {
		return nil, fmt.Errorf("render navigation: %w", err)
	}
	return nav, nil
}

// RenderOutlet renders content as the inner HTML of the outlet element. Live
// sessions send it in place of a full document.
func (l *Layout) RenderOutlet(content *html.Node) (string, error) {
	out, err := RenderString(content)
	if err != nil {
		return "", fmt.Errorf("render outlet: %w", err)
	}
	return out, nil
}

// PageTitle combines the page title from the scope with the site title.
func (l *Layout) PageTitle(s *Scope) string {
	if s == nil || s.Title() == "" {
		return l.Title
	}
	if l.Title == "" {
		return s.Title()
	}
	return s.Title() + " · " + l.Title
}

func (l *Layout) spacerHeight() string {
	if l.SpacerHeight == "" {
		return DefaultSpacerHeight
	}
	return l.SpacerHeight
}
