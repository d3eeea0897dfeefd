package remote

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walk calls fn for every element below n in document order until fn
// returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// find returns the elements below n accepted by match.
func find(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		if match(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// first returns the first element below n accepted by match.
func first(n *html.Node, match func(*html.Node) bool) *html.Node {
	var hit *html.Node
	walk(n, func(c *html.Node) bool {
		if match(c) {
			hit = c
			return false
		}
		return true
	})
	return hit
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func hasID(n *html.Node, id string) bool {
	v, ok := attr(n, "id")
	return ok && v == id
}

func is(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

// childOf reports whether n's parent element has atom a.
func childOf(n *html.Node, a atom.Atom) bool {
	return n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.DataAtom == a
}

// text concatenates the text nodes below n.
func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
