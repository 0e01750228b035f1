package dom

import (
	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ModuleContainer returns the first element marked as the modules container.
func ModuleContainer(doc *html.Node) (*html.Node, error) {
	container := Find(doc, ByAttr(AttrRole, RoleModulesContainer))
	if container == nil {
		return nil, apperr.New(apperr.CodeContentParseFailed, "failed to locate the modules container")
	}
	return container, nil
}

// Modules returns the module elements directly inside container, in document order.
func Modules(container *html.Node) []*html.Node {
	return Children(container, ByAttr(AttrRole, RoleModule))
}

// ModulesOfKind returns every module of the given kind anywhere below container.
func ModulesOfKind(container *html.Node, kind string) []*html.Node {
	return FindAll(container, And(ByAttr(AttrRole, RoleModule), ByAttr(AttrType, kind)))
}

// ModuleContent returns the content element of module, or nil.
func ModuleContent(module *html.Node) *html.Node {
	return Find(module, ByAttr(AttrRole, RoleModuleContent))
}

func isPreheaderParagraph(n *html.Node) bool {
	return n.Type == html.ElementNode &&
		n.DataAtom == atom.P &&
		HasAttr(n.Parent, AttrRole, RoleModuleContent) &&
		HasAncestor(n.Parent, ByAttr(AttrType, TypePreheader))
}

// PreheaderElement returns the paragraph holding the document's preheader text.
func PreheaderElement(doc *html.Node) (*html.Node, error) {
	elem := Find(doc, isPreheaderParagraph)
	if elem == nil {
		return nil, apperr.New(apperr.CodeTemplateNoPreheader, "preheader element not found")
	}
	return elem, nil
}

// Preheader returns the inner HTML of the document's preheader paragraph.
func Preheader(doc *html.Node) (string, error) {
	elem, err := PreheaderElement(doc)
	if err != nil {
		return "", err
	}
	return InnerHTML(elem)
}
