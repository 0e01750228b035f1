package dom

import (
	"sort"
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"golang.org/x/net/html"
)

// Span is the byte range an element occupies in the source it was parsed from.
// [Start, InnerStart) is the start tag and [InnerEnd, End) the end tag.
type Span struct {
	Start      int
	InnerStart int
	InnerEnd   int
	End        int
}

// SourceSpan finds the bytes of src that produced n, an element of doc, where
// doc is the result of Parse(src). The element is matched by its position
// among elements of the same name and must carry the same attributes in the
// source; elements the parser implied or moved are rejected.
func SourceSpan(src string, doc, n *html.Node) (Span, error) {
	if n == nil || n.Type != html.ElementNode {
		return Span{}, apperr.New(apperr.CodeContentParseFailed, "only elements have a source span")
	}
	ordinal := -1
	seen := 0
	var walk func(*html.Node) bool
	walk = func(p *html.Node) bool {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c == n {
				ordinal = seen
				return true
			}
			if c.Type == html.ElementNode && c.Data == n.Data {
				seen++
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	if !walk(doc) {
		return Span{}, apperr.New(apperr.CodeContentParseFailed, "<%s> is not part of the document", n.Data)
	}

	notFound := apperr.New(apperr.CodeContentParseFailed, "failed to locate <%s> in the source document", n.Data)
	z := html.NewTokenizer(strings.NewReader(src))
	var span Span
	offset, seen, depth := 0, 0, 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return Span{}, notFound
		}
		start := offset
		offset += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken && tt != html.EndTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != n.Data {
			continue
		}

		if depth == 0 {
			if tt == html.EndTagToken {
				continue
			}
			if seen < ordinal {
				seen++
				continue
			}
			if !sameAttrs(z, hasAttr, n.Attr) {
				return Span{}, notFound
			}
			span = Span{Start: start, InnerStart: offset, InnerEnd: offset, End: offset}
			if tt == html.SelfClosingTagToken || voidElements[n.Data] {
				return span, nil
			}
			depth = 1
			continue
		}

		// Self-closing tags do not nest.
		switch tt {
		case html.StartTagToken:
			depth++
		case html.EndTagToken:
			depth--
			if depth == 0 {
				span.InnerEnd = start
				span.End = offset
				return span, nil
			}
		}
	}
}

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

func sameAttrs(z *html.Tokenizer, more bool, want []html.Attribute) bool {
	got := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if _, dup := got[string(key)]; !dup {
			got[string(key)] = string(val)
		}
	}
	if len(got) != len(want) {
		return false
	}
	for _, a := range want {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		if v, ok := got[key]; !ok || v != a.Val {
			return false
		}
	}
	return true
}

// Edit replaces src[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Splice applies edits to src. Bytes outside every edit are kept as they are.
func Splice(src string, edits []Edit) (string, error) {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, e := range sorted {
		if e.Start < last || e.End < e.Start || e.End > len(src) {
			return "", apperr.New(apperr.CodeContentParseFailed, "overlapping or out-of-range edit [%d, %d)", e.Start, e.End)
		}
		b.WriteString(src[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(src[last:])
	return b.String(), nil
}
