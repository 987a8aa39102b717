package folio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testNav() Component {
	return ComponentFunc(func(s *Scope) (*html.Node, error) {
		return El("nav", Attr("class", "navbar"), El("a", Attr("href", "/"), "Home")), nil
	})
}

// bodyChildren returns the element children of <body>.
func bodyChildren(t *testing.T, doc *html.Node) []*html.Node {
	t.Helper()
	body := Find(doc, IsElement("body"))
	require.NotNil(t, body)

	var out []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func TestLayout_RenderOrder(t *testing.T) {
	l := &Layout{Title: "Site", Nav: testNav()}

	for _, content := range []*html.Node{
		El("article", "project"),
		Fragment(El("h1", "a"), El("p", "b")),
	} {
		doc, err := l.Render(newScope(nil, "/projects/x", nil), content)
		require.NoError(t, err)

		children := bodyChildren(t, doc)
		require.Len(t, children, 3)
		require.Equal(t, "nav", children[0].Data)
		require.True(t, HasClass(children[1], "spacer"))
		require.Equal(t, "main", children[2].Data)

		id, _ := GetAttr(children[2], "id")
		require.Equal(t, OutletID, id)
		require.NotNil(t, children[2].FirstChild)
	}
}

func TestLayout_RendersNavWithoutRoute(t *testing.T) {
	l := &Layout{Title: "Site", Nav: testNav()}

	doc, err := l.Render(newScope(nil, "/nowhere", nil), nil)
	require.NoError(t, err)

	children := bodyChildren(t, doc)
	require.Len(t, children, 3)
	require.Equal(t, "nav", children[0].Data)

	outlet := FindByID(doc, OutletID)
	require.NotNil(t, outlet)
	require.Nil(t, outlet.FirstChild)
}

func TestLayout_Spacer(t *testing.T) {
	doc, err := (&Layout{Nav: testNav()}).Render(newScope(nil, "/", nil), nil)
	require.NoError(t, err)
	spacer := bodyChildren(t, doc)[1]
	style, _ := GetAttr(spacer, "style")
	require.Equal(t, "height: "+DefaultSpacerHeight, style)
	hidden, _ := GetAttr(spacer, "aria-hidden")
	require.Equal(t, "true", hidden)

	doc, err = (&Layout{Nav: testNav(), SpacerHeight: "96px"}).Render(newScope(nil, "/", nil), nil)
	require.NoError(t, err)
	style, _ = GetAttr(bodyChildren(t, doc)[1], "style")
	require.Equal(t, "height: 96px", style)
}

func TestLayout_TitleAndAssets(t *testing.T) {
	assets := NewAssetRegistry("/assets", nil)
	assets.RegisterCollector("css", NewStylesheetAssetCollector())
	assets.RegisterCollector("js", NewJavascriptAssetCollector())
	require.NoError(t, assets.AddAsset("site.css", []byte("body { color: red; }")))
	require.NoError(t, assets.AddAsset("live.js", []byte("console.log(1)")))

	l := &Layout{
		Title:       "Site",
		Nav:         testNav(),
		Assets:      assets,
		Stylesheets: []string{"site.css", "missing.css"},
		Scripts:     []string{"live.js"},
	}

	s := newScope(nil, "/", nil)
	s.SetTitle("Project")

	doc, err := l.Render(s, nil)
	require.NoError(t, err)

	out, err := RenderString(doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html><html lang=\"en\">"), out)
	require.Contains(t, out, "<title>Project · Site</title>")
	require.Contains(t, out, `<link rel="stylesheet" href="`+assets.AssetPath("site.css")+`"/>`)
	require.Contains(t, out, `<script src="`+assets.AssetPath("live.js")+`" defer="">`)

	// scripts come after the outlet
	require.Less(t, strings.Index(out, `id="outlet"`), strings.Index(out, "<script"))
}

func TestLayout_Errors(t *testing.T) {
	_, err := (&Layout{}).Render(newScope(nil, "/", nil), nil)
	require.Error(t, err)

	navErr := errors.New("nav failed")
	l := &Layout{Nav: ComponentFunc(func(*Scope) (*html.Node, error) { return nil, navErr })}
	_, err = l.Render(newScope(nil, "/", nil), nil)
	require.ErrorIs(t, err, navErr)
}

func TestLayout_PageTitle(t *testing.T) {
	l := &Layout{Title: "Site"}
	require.Equal(t, "Site", l.PageTitle(nil))

	s := newScope(nil, "/", nil)
	require.Equal(t, "Site", l.PageTitle(s))

	s.SetTitle("Page")
	require.Equal(t, "Page · Site", l.PageTitle(s))
	require.Equal(t, "Page", (&Layout{}).PageTitle(s))
}

func TestLayout_RenderNavAndOutlet(t *testing.T) {
	l := &Layout{Title: "Site", Nav: ComponentFunc(func(s *Scope) (*html.Node, error) {
		return El("nav", Attr("data-path", s.Path())), nil
	})}

	nav, err := l.RenderNav(newScope(nil, "/projects/x", nil))
	require.NoError(t, err)
	out, err := RenderString(nav)
	require.NoError(t, err)
	require.Equal(t, `<nav data-path="/projects/x"></nav>`, out)

	_, err = (&Layout{}).RenderNav(newScope(nil, "/", nil))
	require.Error(t, err)

	out, err = l.RenderOutlet(Fragment(El("h1", "a"), El("p", "b")))
	require.NoError(t, err)
	require.Equal(t, "<h1>a</h1><p>b</p>", out)

	out, err = l.RenderOutlet(nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
