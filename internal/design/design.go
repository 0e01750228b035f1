// Package design merges template modules into design layouts.
//
// A design marks its injection point with exactly one empty placeholder module
// of a given kind. Merging parses a fresh copy of the design to find the
// placeholder, then splices the rendered modules over the placeholder's bytes
// in the source. Nothing outside the injection point is touched unless a
// preheader is explicitly transferred.
package design

import (
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/dom"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"golang.org/x/net/html"
)

// DefaultKind is the module kind of the placeholder looked up by default.
const DefaultKind = "text"

// TextPlaceholder is the content of a text module the design editor has never
// typed into.
const TextPlaceholder = `<div><div style="font-family: inherit; text-align: inherit"><br></div><div></div></div>`

// DefaultPlaceholders maps module kinds to their empty content signature.
func DefaultPlaceholders() map[string]string {
	return map[string]string{DefaultKind: TextPlaceholder}
}

// MergeOptions tweaks a single merge.
type MergeOptions struct {
	// Preheader, when non-nil, replaces the design's preheader text.
	Preheader *string
}

// Merger locates injection points and merges modules for one placeholder kind.
type Merger struct {
	kind         string
	placeholders map[string]string
}

// NewMerger returns a Merger for kind. Extra signatures are added to, and
// override, DefaultPlaceholders.
func NewMerger(kind string, extra map[string]string) *Merger {
	if kind == "" {
		kind = DefaultKind
	}
	placeholders := DefaultPlaceholders()
	for k, v := range extra {
		placeholders[k] = v
	}
	return &Merger{kind: kind, placeholders: placeholders}
}

// Kind returns the placeholder kind m looks for.
func (m *Merger) Kind() string {
	return m.kind
}

// ExtractModules returns the top-level modules of a parsed content document.
func ExtractModules(doc *html.Node) ([]*html.Node, error) {
	container, err := dom.ModuleContainer(doc)
	if err != nil {
		return nil, err
	}
	return dom.Modules(container), nil
}

// LocateTarget returns the single empty placeholder module in doc.
// Both a missing and an ambiguous placeholder fail with design.no-target.
func (m *Merger) LocateTarget(doc *html.Node) (*html.Node, error) {
	container, err := dom.ModuleContainer(doc)
	if err != nil {
		return nil, err
	}
	signature, ok := m.placeholders[m.kind]
	if !ok {
		return nil, apperr.New(apperr.CodeDesignNoTarget, "no empty signature is known for %q modules", m.kind)
	}
	want, err := dom.Canonical(signature)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeDesignNoTarget, "invalid empty signature for %q modules", m.kind)
	}

	var matches []*html.Node
	for _, module := range dom.ModulesOfKind(container, m.kind) {
		content := dom.ModuleContent(module)
		if content == nil {
			continue
		}
		got, err := dom.InnerHTML(content)
		if err != nil {
			return nil, err
		}
		if got == want {
			matches = append(matches, module)
		}
	}

	switch len(matches) {
	case 0:
		return nil, apperr.New(apperr.CodeDesignNoTarget,
			"the design is missing an empty %s module to inject the template into", m.kind)
	case 1:
		return matches[0], nil
	default:
		return nil, apperr.New(apperr.CodeDesignNoTarget,
			"the design has %d empty %s modules, exactly one injection point is required", len(matches), m.kind)
	}
}

// CheckTarget validates that d can be merged into without mutating anything.
func (m *Merger) CheckTarget(d types.Design) error {
	doc, err := parseDesign(d)
	if err != nil {
		return err
	}
	_, err = m.LocateTarget(doc)
	return err
}

// Merge injects modules into d and returns the new HTML document. The
// placeholder's bytes are replaced by the rendered modules; every other byte
// of d.HTMLContent is copied unchanged.
func (m *Merger) Merge(d types.Design, modules []*html.Node, opts MergeOptions) (string, error) {
	doc, err := parseDesign(d)
	if err != nil {
		return "", err
	}
	target, err := m.LocateTarget(doc)
	if err != nil {
		return "", err
	}
	span, err := dom.SourceSpan(d.HTMLContent, doc, target)
	if err != nil {
		return "", err
	}
	rendered, err := RenderModules(modules)
	if err != nil {
		return "", err
	}
	edits := []dom.Edit{{Start: span.Start, End: span.End, Text: rendered}}

	if opts.Preheader != nil {
		elem, err := dom.PreheaderElement(doc)
		if err != nil {
			return "", err
		}
		span, err := dom.SourceSpan(d.HTMLContent, doc, elem)
		if err != nil {
			return "", err
		}
		edits = append(edits, dom.Edit{Start: span.InnerStart, End: span.InnerEnd, Text: *opts.Preheader})
	}
	return dom.Splice(d.HTMLContent, edits)
}

// RenderModules serializes modules in order. The nodes are only read.
func RenderModules(modules []*html.Node) (string, error) {
	var b strings.Builder
	for _, module := range modules {
		out, err := dom.Render(module)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func parseDesign(d types.Design) (*html.Node, error) {
	if !d.HasContent() {
		return nil, apperr.New(apperr.CodeDesignNoContent,
			"design '%s' was fetched without its HTML content", d.Name)
	}
	return dom.Parse(d.HTMLContent)
}
