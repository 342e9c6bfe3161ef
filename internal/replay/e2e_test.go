package replay

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
	"macro_trader/internal/models"
	"macro_trader/internal/recorder"
)

const e2ePage = `<html><body>
<div class="form">
  <input id="qty" placeholder="Amount">
  <button class="buy-btn">Place</button>
</div>
</body></html>`

type jsonSink struct{ raw map[models.MacroType][]byte }

func (s *jsonSink) SaveMacro(_ context.Context, m models.Macro) error {
	b, err := sonic.Marshal(m.Actions)
	if err != nil {
		return err
	}
	s.raw[m.Type] = b
	return nil
}

func TestRecordThenReplay(t *testing.T) {
	recDoc := htmldom.MustParse(e2ePage)
	sink := &jsonSink{raw: map[models.MacroType][]byte{}}
	s := recorder.NewSession(recDoc, sink, nil, nil, zap.NewNop(), recorder.Options{Debounce: time.Hour})

	require.NoError(t, s.Start(models.MacroLong))
	recDoc.Fire(dom.Event{Type: dom.EventClick, Target: recDoc.MustFind(".buy-btn")})
	recDoc.Fire(dom.Event{Type: dom.EventInput, Target: recDoc.MustFind("#qty"), Value: "1.5"})
	_, err := s.Stop(context.Background())
	require.NoError(t, err)

	var actions []models.MacroAction
	require.NoError(t, sonic.Unmarshal(sink.raw[models.MacroLong], &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, models.RoleGeneralClick, actions[0].Role())
	assert.Equal(t, ".buy-btn", actions[0].Fingerprint.Locator)
	assert.Equal(t, models.ActionAmountField, actions[1].Type)
	assert.Equal(t, "#qty", actions[1].Fingerprint.Locator)

	live := htmldom.MustParse(e2ePage)
	resolver, exec := NewResolver(zap.NewNop()), NewExecutor(zap.NewNop())
	for _, a := range actions {
		res, err := resolver.Resolve(live, a)
		require.NoError(t, err)
		assert.Equal(t, StrategyLocator, res.Strategy)
		require.NoError(t, exec.Execute(res.Element, a, "0.25"))
	}

	assert.Equal(t, []string{"click"}, live.MustFind(".buy-btn").Log())
	assert.Equal(t, []string{"focus", "value=0.25", "input", "change"}, live.MustFind("#qty").Log())
	assert.Equal(t, "0.25", live.MustFind("#qty").Value())
}
