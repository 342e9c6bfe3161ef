package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro_trader/internal/models"
)

func TestParseForms(t *testing.T) {
	tests := []struct {
		in     string
		symbol string
		side   models.Side
	}{
		{"BTC LONG", "BTC", models.SideLong},
		{"ETH short", "ETH", models.SideShort},
		{"LONG BTC", "BTC", models.SideLong},
		{"sell ETH", "ETH", models.SideShort},
		{"BTC: LONG", "BTC", models.SideLong},
		{"BTC:buy", "BTC", models.SideLong},
		{"SHORT: ETH", "ETH", models.SideShort},
		{"📈 BTC LONG", "BTC", models.SideLong},
		{"📉📉 ETH SELL", "ETH", models.SideShort},
		{"⬆️ BTC BUY", "BTC", models.SideLong},
		{"  BTCUSDT LONG  ", "BTCUSDT", models.SideLong},
		{"btc LONG", "btc", models.SideLong},
	}
	p := NewParser("BTC")
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			sig, ok := p.Parse(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.symbol, sig.Symbol)
			assert.Equal(t, tc.side, sig.Side)
			assert.Equal(t, tc.in, sig.Original)
		})
	}
}

func TestParseRejects(t *testing.T) {
	p := NewParser("BTC")
	for _, in := range []string{"", "hello world", "BTC HOLD", "BTC LONG NOW", "LONG", "BTC-PERP LONG"} {
		_, ok := p.Parse(in)
		assert.False(t, ok, in)
	}
}

func TestValidate(t *testing.T) {
	p := NewParser("BTC")

	sig, ok := p.Parse("BTC LONG")
	require.True(t, ok)
	assert.NoError(t, p.Validate(sig))

	// символ сравнивается точно и с учётом регистра
	for _, in := range []string{"btc LONG", "BTCUSDT LONG", "ETH SHORT"} {
		sig, ok := p.Parse(in)
		require.True(t, ok)
		assert.ErrorIs(t, p.Validate(sig), ErrSymbolMismatch, in)
	}

	assert.ErrorIs(t, p.Validate(models.Signal{Side: models.SideLong}), ErrNoSymbol)
	assert.ErrorIs(t, p.Validate(models.Signal{Symbol: "BTC"}), ErrUnsupportedSide)
	assert.ErrorIs(t, NewParser("").Validate(models.Signal{Symbol: "BTC", Side: models.SideLong}), ErrNoTrigger)
}
