package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro_trader/internal/dom/htmldom"
)

const exchangePage = `<html><body>
<div class="header"><button>Buy crypto</button></div>
<div class="order-form">
  <button class="btn-long">Open Long</button>
  <button class="btn-short">Open Short</button>
  <button>Market</button>
  <input name="leverage" value="10">
  <input placeholder="Quantity">
</div>
</body></html>`

func TestDetectorFindsInTradingArea(t *testing.T) {
	doc := htmldom.MustParse(exchangePage)
	found := NewDetector(time.Second, nil).Find(doc)

	require.NotNil(t, found.Long)
	assert.Equal(t, "Open Long", found.Long.Text())
	require.NotNil(t, found.Short)
	assert.Equal(t, "Open Short", found.Short.Text())
	assert.Same(t, found.Short, found.Button(true))
	require.NotNil(t, found.Market)
	require.NotNil(t, found.Amount)
	assert.Equal(t, "Quantity", found.Amount.Attr("placeholder"))
}

func TestDetectorWholeDocument(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><button>Sell</button><input id="qty"></body></html>`)
	found := NewDetector(time.Second, nil).Find(doc)

	assert.Nil(t, found.Long)
	assert.NotNil(t, found.Short)
	assert.NotNil(t, found.Amount)
	assert.Nil(t, found.Market)
}

func TestDetectorCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDetector(5*time.Second, func() time.Time { return now })

	doc := htmldom.MustParse(exchangePage)
	first := d.Find(doc)
	assert.Same(t, first.Long, d.Find(doc).Long)

	other := htmldom.MustParse(exchangePage)
	assert.NotSame(t, first.Long, d.Find(other).Long)
}
