package htmldom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro_trader/internal/dom"
)

const page = `<html><body>
<div class="panel">
  <button class="btn buy">Long</button>
  <button class="btn sell">Short</button>
  <input id="qty" placeholder="Amount" value="1.5">
  <select name="mode"><option value="a">A</option><option value="b" selected>B</option></select>
  <textarea>note</textarea>
</div>
</body></html>`

func TestQuerySelector(t *testing.T) {
	doc := MustParse(page)

	list, err := doc.QuerySelectorAll(".btn")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	el, err := doc.QuerySelector("#qty")
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "input", el.TagName())

	el, err = doc.QuerySelector("#missing")
	require.NoError(t, err)
	assert.Nil(t, el)

	_, err = doc.QuerySelectorAll("div[[")
	assert.Error(t, err)
}

func TestElementValue(t *testing.T) {
	doc := MustParse(page)

	assert.Equal(t, "1.5", doc.MustFind("#qty").Value())
	assert.Equal(t, "b", doc.MustFind("select").Value())
	assert.Equal(t, "note", doc.MustFind("textarea").Value())

	qty := doc.MustFind("#qty")
	qty.SetLiveValue("3")
	assert.Equal(t, "3", qty.Value())
	assert.Empty(t, qty.Log())
}

func TestElementTreeAndLog(t *testing.T) {
	doc := MustParse(page)
	buy := doc.MustFind(".buy")

	parent := buy.Parent()
	require.NotNil(t, parent)
	assert.Equal(t, "panel", parent.ClassName())
	assert.Len(t, parent.Children(), 5)
	assert.Equal(t, []string{"btn", "buy"}, buy.ClassList())

	require.NoError(t, buy.Focus())
	require.NoError(t, buy.SetValue("x"))
	require.NoError(t, buy.Click())
	require.NoError(t, buy.Dispatch(dom.NewKeyEvent("Enter")))
	assert.Equal(t, []string{"focus", "value=x", "click", "keydown:Enter"}, buy.Log())
	assert.True(t, buy.Focused())
}

func TestListenAndFire(t *testing.T) {
	doc := MustParse(page)
	var got []string
	cancel := doc.Listen([]string{dom.EventClick, dom.EventInput}, func(ev dom.Event) {
		got = append(got, ev.Type)
	})
	assert.Equal(t, 1, doc.Listeners())

	doc.Fire(dom.NewEvent(dom.EventClick))
	doc.Fire(dom.NewEvent(dom.EventChange))
	doc.Fire(dom.NewEvent(dom.EventInput))
	assert.Equal(t, []string{dom.EventClick, dom.EventInput}, got)

	cancel()
	doc.Fire(dom.NewEvent(dom.EventClick))
	assert.Len(t, got, 2)
	assert.Zero(t, doc.Listeners())
}

func TestPathIsUnique(t *testing.T) {
	doc := MustParse(page)
	for _, el := range doc.Elements() {
		found, err := doc.Select(Path(el))
		require.NoError(t, err, Path(el))
		require.Len(t, found, 1, Path(el))
		assert.Same(t, el, found[0])
	}
}

func TestClassListSplitsOnASCIISpaceOnly(t *testing.T) {
	doc := MustParse("<html><body><div class=\"\u00a0q  a\tb\nc\">x</div></body></html>")
	div := doc.MustFind("div")
	assert.Equal(t, []string{"\u00a0q", "a", "b", "c"}, div.ClassList())

	found, err := doc.QuerySelectorAll(".\u00a0q")
	require.NoError(t, err)
	assert.True(t, dom.Contains(found, div))
}
