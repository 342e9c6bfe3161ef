package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
	"macro_trader/internal/models"
)

func click(locator string, role models.Role, keywords ...string) models.MacroAction {
	return models.MacroAction{
		Type: models.ActionClick,
		Fingerprint: models.ElementFingerprint{
			Locator:  locator,
			Keywords: keywords,
			Role:     role,
		},
	}
}

func TestResolveByLocator(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button class="buy-btn">Place</button></body></html>`)
	res, err := NewResolver(zap.NewNop()).Resolve(doc, click(".buy-btn", models.RoleGeneralClick))

	require.NoError(t, err)
	assert.Equal(t, StrategyLocator, res.Strategy)
	assert.Same(t, doc.MustFind(".buy-btn"), res.Element)
}

func TestResolveSideGuard(t *testing.T) {
	// кнопки поменялись местами: по старому локатору теперь Short
	doc := htmldom.MustParse(`<html><body><div class="pair">
<button class="side">Short</button><button class="side">Long</button>
</div></body></html>`)
	a := click(".side:nth-child(1)", models.RoleLongButton, "Long", "side")

	res, err := NewResolver(zap.NewNop()).Resolve(doc, a)
	require.NoError(t, err)
	assert.Equal(t, StrategyKeyword, res.Strategy)
	assert.Equal(t, "Long", res.Element.Text())
}

func TestResolveSideGuardWithoutKeywords(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button class="side">Short</button></body></html>`)
	_, err := NewResolver(zap.NewNop()).Resolve(doc, click(".side", models.RoleLongButton))
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestResolveNotFound(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button class="x">Cancel</button></body></html>`)
	_, err := NewResolver(zap.NewNop()).Resolve(doc, click("#gone", models.RoleGeneralClick, "Submit order"))
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestResolveInvalidLocatorFallsBack(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button class="ok">Confirm</button></body></html>`)
	res, err := NewResolver(zap.NewNop()).Resolve(doc, click("div[[", models.RoleGeneralClick, "Confirm"))
	require.NoError(t, err)
	assert.Equal(t, StrategyKeyword, res.Strategy)
}

func TestResolveTieBreak(t *testing.T) {
	const page = `<html><body>
<div><button class="ok">Confirm</button></div>
<div><button class="ok">Confirm</button></div>
</body></html>`

	t.Run("closest to recorded position", func(t *testing.T) {
		doc := htmldom.MustParse(page)
		buttons, err := doc.Select("button")
		require.NoError(t, err)
		buttons[0].SetRect(dom.Rect{Left: 0, Top: 0, Width: 100, Height: 30})
		buttons[1].SetRect(dom.Rect{Left: 0, Top: 500, Width: 100, Height: 30})

		a := click("#gone", models.RoleGeneralClick, "Confirm")
		a.Fingerprint.Position = models.ElementPosition{X: 50, Y: 510}

		res, err := NewResolver(zap.NewNop()).Resolve(doc, a)
		require.NoError(t, err)
		assert.Same(t, buttons[1], res.Element)
		assert.InDelta(t, 5.0, res.Distance, 0.001)
	})

	t.Run("document order", func(t *testing.T) {
		doc := htmldom.MustParse(page)
		buttons, err := doc.Select("button")
		require.NoError(t, err)

		res, err := NewResolver(zap.NewNop()).Resolve(doc, click("#gone", models.RoleGeneralClick, "Confirm"))
		require.NoError(t, err)
		assert.Same(t, buttons[0], res.Element)
	})
}

func TestScore(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button id="b1" class="buy">Buy</button></body></html>`)
	el := doc.MustFind("#b1")

	// текст +10, "Buy" и "buy" среди своих слов по +8
	assert.Equal(t, 26, Score([]string{"Buy"}, el))
	// подстрока: текст +5, "buy" +3 дважды
	assert.Equal(t, 11, Score([]string{"bu"}, el))
	assert.Zero(t, Score([]string{"sell"}, el))
}
