package folio

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr builds an attribute for El.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// El builds an element node. Each child may be an html.Attribute, a []html.Attribute,
// a *html.Node (nil is skipped), a []*html.Node or a string, which becomes a text node.
// Document nodes are flattened into their children.
func El(tag string, children ...any) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	for _, c := range children {
		switch v := c.(type) {
		case html.Attribute:
			SetAttr(n, v.Key, v.Val)
		case []html.Attribute:
			for _, a := range v {
				SetAttr(n, a.Key, a.Val)
			}
		case *html.Node:
			appendContent(n, v)
		case []*html.Node:
			for _, cn := range v {
				appendContent(n, cn)
			}
		case string:
			n.AppendChild(Text(v))
		default:
			panic(fmt.Sprintf("folio.El: unsupported child type %T", c))
		}
	}

	return n
}

// Text builds a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Fragment groups nodes without a wrapping element.
func Fragment(nodes ...*html.Node) *html.Node {
	f := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		appendContent(f, n)
	}
	return f
}

// appendContent appends n to parent, moving the children of a fragment instead of
// the fragment itself.
func appendContent(parent, n *html.Node) {
	if n == nil {
		return
	}
	if n.Type != html.DocumentNode {
		parent.AppendChild(n)
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.AppendChild(c)
		c = next
	}
}

// GetAttr returns the value of the attribute key.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// AddClass appends classes that n does not have yet.
func AddClass(n *html.Node, classes ...string) {
	cur, _ := GetAttr(n, "class")
	fields := strings.Fields(cur)
	for _, c := range classes {
		if c != "" && !slices.Contains(fields, c) {
			fields = append(fields, c)
		}
	}
	SetAttr(n, "class", strings.Join(fields, " "))
}

// HasClass reports whether n has the class c.
func HasClass(n *html.Node, c string) bool {
	cur, _ := GetAttr(n, "class")
	return slices.Contains(strings.Fields(cur), c)
}

// SetStyle sets one CSS property in the style attribute, keeping the others.
func SetStyle(n *html.Node, prop, val string) {
	cur, _ := GetAttr(n, "style")

	var decls []string
	for _, d := range strings.Split(cur, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.TrimSpace(name) == prop {
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, prop+": "+val)

	SetAttr(n, "style", strings.Join(decls, "; "))
}

// Find returns the first node in the subtree of n, n included, that satisfies pred.
func Find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := Find(c, pred); m != nil {
			return m
		}
	}
	return nil
}

// FindAll returns every node in the subtree of n that satisfies pred, in document order.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// FindByID returns the element with the given id attribute.
func FindByID(n *html.Node, id string) *html.Node {
	return Find(n, func(n *html.Node) bool {
		v, ok := GetAttr(n, "id")
		return n.Type == html.ElementNode && ok && v == id
	})
}

// IsElement returns a predicate matching elements with the given tag name.
func IsElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	for _, t := range FindAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// RenderString renders n as HTML. A fragment renders its children only.
func RenderString(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}

	var sb strings.Builder
	if n.Type == html.DocumentNode && (n.FirstChild == nil || n.FirstChild.Type != html.DoctypeNode) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&sb, c); err != nil {
				return "", err
			}
		}
		return sb.String(), nil
	}

	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}
