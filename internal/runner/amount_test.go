package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcAmount(t *testing.T) {
	tests := []struct {
		name   string
		assets float64
		lev    float64
		pct    float64
		price  float64
		want   string
	}{
		{"full balance x10", 1000, 10, 100, 50000, "0.2000"},
		{"third of balance", 1000, 5, 33.33, 2500, "0.6666"},
		{"repeating decimal", 1, 1, 100, 3, "0.3333"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalcAmount(tc.assets, tc.lev, tc.pct, tc.price)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalcAmountMissingInputs(t *testing.T) {
	_, err := CalcAmount(0, 10, 100, 50000)
	assert.ErrorIs(t, err, ErrAmountNotComputable)
	_, err = CalcAmount(1000, 10, 100, 0)
	assert.ErrorIs(t, err, ErrAmountNotComputable)
}
