// Package dom provides the HTML tree operations shared by design merging and
// module extraction. Documents are parsed with golang.org/x/net/html and are
// owned by the caller: nothing in this package keeps references across calls.
package dom

import (
	"bytes"
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Structural markers written by the SendGrid design editor.
const (
	AttrRole = "role"
	AttrType = "data-type"

	RoleModulesContainer = "modules-container"
	RoleModule           = "module"
	RoleModuleContent    = "module-content"

	TypePreheader = "preheader"
)

// Parse parses a full HTML document.
func Parse(content string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeContentParseFailed, "failed to parse HTML document")
	}
	return doc, nil
}

// Render serializes n and everything below it.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Canonical parses fragment in a <div> context and renders it again, so that
// literal markup compares equal to InnerHTML output of an equivalent tree.
func Canonical(fragment string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, c := range nodes {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n is an element with attribute key equal to val.
func HasAttr(n *html.Node, key, val string) bool {
	v, ok := Attr(n, key)
	return ok && v == val
}

// Matcher selects nodes during a search.
type Matcher func(*html.Node) bool

// ByAttr matches elements whose attribute key equals val.
func ByAttr(key, val string) Matcher {
	return func(n *html.Node) bool { return HasAttr(n, key, val) }
}

// And matches nodes accepted by every matcher.
func And(matchers ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Find returns the first descendant of root, in document order, accepted by match.
func Find(root *html.Node, match Matcher) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of root accepted by match, in document order.
func FindAll(root *html.Node, match Matcher) []*html.Node {
	var found []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				found = append(found, c)
			}
			traverse(c)
		}
	}
	traverse(root)
	return found
}

// Children returns the direct children of n accepted by match.
func Children(n *html.Node, match Matcher) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			found = append(found, c)
		}
	}
	return found
}

// HasAncestor reports whether some ancestor of n is accepted by match.
func HasAncestor(n *html.Node, match Matcher) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if match(p) {
			return true
		}
	}
	return false
}
