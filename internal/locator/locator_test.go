package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
)

const fixture = `<html><body>
<div id="app">
  <div class="trade-form">
    <button class="side-btn">Long</button>
    <button class="side-btn">Short</button>
  </div>
  <ul class="list">
    <li class="item">one</li>
    <li class="item">two</li>
    <li class="item">three</li>
  </ul>
  <input id="1bad" class="qty-input element-selector-highlight" name="qty">
  <span id="plain-id">x</span>
  <div class="wrap">
    <div class="a1 b2 c3 d4"><span>deep</span></div>
  </div>
  <p class="bad:class">odd</p>
</div>
</body></html>`

func TestGenerate(t *testing.T) {
	doc := htmldom.MustParse(fixture)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"id", "#plain-id", "#plain-id"},
		{"pair long", ".side-btn:nth-child(1)", ".side-btn:nth-child(1)"},
		{"pair short", ".side-btn:nth-child(2)", ".side-btn:nth-child(2)"},
		{"illegal id falls to classes", "input", ".qty-input"},
		{"nth-of-type", "li:nth-child(2)", ".item:nth-of-type(2)"},
		{"unique classes", "ul", ".list"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			el := doc.MustFind(tc.target)
			assert.Equal(t, tc.want, Generate(doc, el))
		})
	}
}

func TestGenerateAncestorFallback(t *testing.T) {
	doc := htmldom.MustParse(fixture)
	span := doc.MustFind(".a1 > span")

	sel := Generate(doc, span)
	assert.Equal(t, "#app > div.wrap > div.a1.b2.c3 > span", sel)
	found, err := doc.QuerySelectorAll(sel)
	require.NoError(t, err)
	assert.True(t, dom.Contains(found, span))
}

func TestGenerateSkipsInvalidClass(t *testing.T) {
	doc := htmldom.MustParse(fixture)
	p := doc.MustFind("p")
	assert.Empty(t, CleanClasses(p))
	assert.True(t, Valid(doc, Generate(doc, p)))
}

// Сгенерированный селектор всегда разбирается и находит сам элемент.
func TestGenerateMatchesEveryElement(t *testing.T) {
	doc := htmldom.MustParse(fixture)
	for _, el := range doc.Elements() {
		sel := Generate(doc, el)
		require.True(t, Valid(doc, sel), sel)
		found, err := doc.QuerySelectorAll(sel)
		require.NoError(t, err)
		assert.True(t, dom.Contains(found, el), "%s does not match %s", sel, htmldom.Path(el))
	}
}

func TestGenerateOddClassAttributes(t *testing.T) {
	cases := []string{
		`<div class="` + "\u00a0" + `q q'q">x</div><div class="q">y</div>`,
		`<div class="q` + "\u00a0" + `">x</div><div class="q">y</div>`,
		`<div class="a` + "\t" + `b">x</div><div class="a">y</div>`,
		`<span id="dup">x</span><span id="dup">y</span>`,
	}
	for _, body := range cases {
		doc := htmldom.MustParse("<html><body>" + body + "</body></html>")
		for _, el := range doc.Elements() {
			sel := Generate(doc, el)
			found, err := doc.QuerySelectorAll(sel)
			require.NoError(t, err, sel)
			assert.True(t, dom.Contains(found, el), "%q does not match %s in %s", sel, htmldom.Path(el), body)
		}
	}
}

func TestIsIdent(t *testing.T) {
	assert.True(t, IsIdent("qty"))
	assert.True(t, IsIdent("_x-1"))
	assert.False(t, IsIdent("1bad"))
	assert.False(t, IsIdent("a:b"))
	assert.False(t, IsIdent(""))
}

func TestImportantClass(t *testing.T) {
	assert.True(t, importantClass("submit-btn"))
	assert.True(t, importantClass("gui_x"))
	assert.True(t, importantClass("css-80d6b0c8"))
	assert.True(t, importantClass("orderbox"))
	assert.False(t, importantClass("a1"))
}
