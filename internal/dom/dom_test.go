package dom

import (
	"testing"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sampleDoc = `<!DOCTYPE html><html><head><title>t</title></head><body>` +
	`<div data-type="preheader" role="module"><div role="module-content"><p>Hello</p></div></div>` +
	`<div role="modules-container">` +
	`<div role="module" data-type="image" id="a"><div role="module-content"><img src="x.png"></div></div>` +
	`<div role="module" data-type="text" id="b"><div role="module-content"><div>copy</div>` +
	`<div role="module" data-type="text" id="nested"></div></div></div>` +
	`<span id="not-a-module"></span>` +
	`<div role="module" data-type="button" id="c"></div>` +
	`</div></body></html>`

func ids(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		id, _ := Attr(n, "id")
		out = append(out, id)
	}
	return out
}

func TestModuleContainer(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		doc, err := Parse(sampleDoc)
		require.NoError(t, err)

		container, err := ModuleContainer(doc)
		require.NoError(t, err)
		assert.True(t, HasAttr(container, AttrRole, RoleModulesContainer))
	})

	t.Run("missing", func(t *testing.T) {
		doc, err := Parse(`<html><body><div role="module"></div></body></html>`)
		require.NoError(t, err)

		_, err = ModuleContainer(doc)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeContentParseFailed, apperr.CodeOf(err))
	})
}

func TestModules_DirectChildrenInOrder(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)
	container, err := ModuleContainer(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(Modules(container)))
}

func TestModulesOfKind_IncludesNested(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)
	container, err := ModuleContainer(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "nested"}, ids(ModulesOfKind(container, "text")))
	assert.Empty(t, ModulesOfKind(container, "divider"))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"void element", `<div><br></div>`, `<div><br/></div>`},
		{"already canonical", `<div><br/></div>`, `<div><br/></div>`},
		{"attributes kept", `<div style="font-family: inherit; text-align: inherit"></div>`, `<div style="font-family: inherit; text-align: inherit"></div>`},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInnerHTML(t *testing.T) {
	doc, err := Parse(`<div id="x"><b>bold</b> text<br></div>`)
	require.NoError(t, err)
	n := Find(doc, ByAttr("id", "x"))
	require.NotNil(t, n)

	got, err := InnerHTML(n)
	require.NoError(t, err)
	assert.Equal(t, `<b>bold</b> text<br/>`, got)
}

func TestPreheader(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)

	got, err := Preheader(doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)

	elem, err := PreheaderElement(doc)
	require.NoError(t, err)
	span, err := SourceSpan(sampleDoc, doc, elem)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", sampleDoc[span.Start:span.End])
	assert.Equal(t, "Hello", sampleDoc[span.InnerStart:span.InnerEnd])
}

func TestPreheader_Missing(t *testing.T) {
	doc, err := Parse(`<html><body><div role="module-content"><p>not a preheader</p></div></body></html>`)
	require.NoError(t, err)

	_, err = Preheader(doc)
	assert.True(t, apperr.Is(err, apperr.CodeTemplateNoPreheader))
}

func TestFindAll_DocumentOrder(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)

	got := FindAll(doc, ByAttr(AttrRole, RoleModule))
	assert.Equal(t, []string{"", "a", "b", "nested", "c"}, ids(got))
}
