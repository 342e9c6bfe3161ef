package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
	"macro_trader/internal/models"
)

func TestSelectionNextClick(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><div class="bal"><span class="usdt-balance">  1,234.5 USDT </span></div></body></html>`)
	out := &outbox{}
	sel := NewSelection(doc, out, zap.NewNop())

	var got []Selected
	sel.Start(func(s Selected) { got = append(got, s) })
	assert.True(t, sel.Active())

	doc.Fire(dom.Event{Type: dom.EventClick, Target: doc.MustFind(".usdt-balance")})
	doc.Fire(dom.Event{Type: dom.EventClick, Target: doc.MustFind(".bal")})

	require.Len(t, got, 1)
	assert.Equal(t, ".usdt-balance", got[0].Selector)
	assert.Equal(t, "1,234.5 USDT", got[0].Text)
	assert.False(t, sel.Active())
	assert.Zero(t, doc.Listeners())

	require.Len(t, out.msgs, 1)
	assert.Equal(t, models.MsgElementSelected, out.msgs[0].Action)
	assert.Equal(t, ".usdt-balance", out.msgs[0].Selector)
}

func TestSelectionStop(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><p id="x">x</p></body></html>`)
	sel := NewSelection(doc, nil, zap.NewNop())

	called := false
	sel.Start(func(Selected) { called = true })
	sel.Stop()
	sel.Stop()

	doc.Fire(dom.Event{Type: dom.EventClick, Target: doc.MustFind("#x")})
	assert.False(t, called)
}
