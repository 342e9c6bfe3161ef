package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.56 USDT", 1234.56},
		{"  $ 98.5 ", 98.5},
		{"-0.25", -0.25},
		{"42", 42},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			v, err := ParseNumber(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-9)
		})
	}

	for _, bad := range []string{"", "-", "USDT", "1.2.3"} {
		_, err := ParseNumber(bad)
		assert.Error(t, err, bad)
	}
}
