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

func TestExecute(t *testing.T) {
	tests := []struct {
		name   string
		action models.MacroAction
		want   []string
	}{
		{"click", models.MacroAction{Type: models.ActionClick}, []string{"click"}},
		{"amount", models.MacroAction{Type: models.ActionAmountField}, []string{"focus", "value=0.25", "input", "change"}},
		{"input keeps own value", models.MacroAction{Type: models.ActionInput, Value: "x"}, []string{"focus", "value=x", "input", "change"}},
		{"change", models.MacroAction{Type: models.ActionChange, Value: "iso"}, []string{"value=iso", "change"}},
		{"keydown", models.MacroAction{Type: models.ActionKeydown, Key: "Enter"}, []string{"keydown:Enter"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := htmldom.MustParse(`<html><body><input id="f"></body></html>`)
			el := doc.MustFind("#f")
			require.NoError(t, NewExecutor(zap.NewNop()).Execute(el, tc.action, "0.25"))
			assert.Equal(t, tc.want, el.Log())
		})
	}
}

func TestExecuteUnknownType(t *testing.T) {
	doc := htmldom.MustParse(`<html><body><input id="f"></body></html>`)
	err := NewExecutor(zap.NewNop()).Execute(doc.MustFind("#f"), models.MacroAction{Type: "hover"}, "")
	assert.Error(t, err)
}

type panicky struct{ dom.Element }

func (panicky) Click() error { panic("detached node") }

func TestExecuteRecoversPanic(t *testing.T) {
	err := NewExecutor(zap.NewNop()).Execute(panicky{}, models.MacroAction{Type: models.ActionClick}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detached node")
}
