package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/models"
)

func drivers(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]KV{
		"file":   NewFile(filepath.Join(t.TempDir(), "macros.json")),
		"sqlite": sq,
	}
}

func sampleMacro() models.Macro {
	return models.Macro{Type: models.MacroLong, Actions: []models.MacroAction{
		{
			Type:      models.ActionClick,
			Timestamp: 0,
			Fingerprint: models.ElementFingerprint{
				Locator:  ".buy-btn",
				Keywords: []string{"Buy", "buy-btn"},
				Position: models.ElementPosition{X: 10, Y: 20, Width: 80, Height: 30},
				Role:     models.RoleLongButton,
			},
		},
		{
			Type:        models.ActionAmountField,
			Timestamp:   450,
			Value:       "0.5",
			Fingerprint: models.ElementFingerprint{Locator: "#qty", Keywords: []string{"qty"}},
		},
	}}
}

func TestStoreMacros(t *testing.T) {
	for name, kv := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(kv, zap.NewNop())

			_, err := s.LoadMacro(ctx, models.MacroLong)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveMacro(ctx, sampleMacro()))
			got, err := s.LoadMacro(ctx, models.MacroLong)
			require.NoError(t, err)
			assert.Equal(t, sampleMacro(), got)

			// новая запись заменяет старую целиком
			short := models.Macro{Type: models.MacroLong, Actions: sampleMacro().Actions[:1]}
			require.NoError(t, s.SaveMacro(ctx, short))
			got, err = s.LoadMacro(ctx, models.MacroLong)
			require.NoError(t, err)
			assert.Len(t, got.Actions, 1)

			all, err := s.LoadAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
			assert.Contains(t, all, models.MacroLong)

			assert.Error(t, s.SaveMacro(ctx, models.Macro{Type: "sideways"}))
		})
	}
}

func TestStoreSettings(t *testing.T) {
	for name, kv := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(kv, zap.NewNop())

			_, err := s.LoadSetting(ctx, KeyPriceSelector)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveSetting(ctx, KeyPriceSelector, "#last > span"))
			v, err := s.LoadSetting(ctx, KeyPriceSelector)
			require.NoError(t, err)
			assert.Equal(t, "#last > span", v)

			assert.Error(t, s.SaveSetting(ctx, "theme", "dark"))
		})
	}
}

func TestStoreExportImportReset(t *testing.T) {
	ctx := context.Background()
	src := New(NewFile(filepath.Join(t.TempDir(), "a.json")), zap.NewNop())
	require.NoError(t, src.SaveMacro(ctx, sampleMacro()))
	require.NoError(t, src.SaveSetting(ctx, KeyBalanceSelector, ".avail"))

	raw, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "balanceSelector: .avail")

	sq, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer sq.Close()
	dst := New(sq, zap.NewNop())
	require.NoError(t, dst.SaveMacro(ctx, models.Macro{Type: models.MacroClose, Actions: sampleMacro().Actions[:1]}))

	b, err := dst.Import(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, b.Macros, 1)

	got, err := dst.LoadMacro(ctx, models.MacroLong)
	require.NoError(t, err)
	assert.Equal(t, sampleMacro(), got)
	_, err = dst.LoadMacro(ctx, models.MacroClose)
	assert.ErrorIs(t, err, ErrNotFound, "import replaces everything")

	require.NoError(t, dst.Reset(ctx))
	all, err := dst.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportRejectsUnknownType(t *testing.T) {
	s := New(NewFile(filepath.Join(t.TempDir(), "x.json")), zap.NewNop())
	_, err := s.Import(context.Background(), []byte("macros:\n  sideways: []\n"))
	assert.Error(t, err)
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "macros.json")

	require.NoError(t, New(NewFile(path), zap.NewNop()).SaveMacro(ctx, sampleMacro()))
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := New(NewFile(path), zap.NewNop()).LoadMacro(ctx, models.MacroLong)
	require.NoError(t, err)
	assert.Equal(t, sampleMacro(), got)
}
