package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/models"
)

func TestOutboxKeepsLastN(t *testing.T) {
	o := NewOutbox(zap.NewNop(), 2)
	var seen []string
	o.Subscribe(func(m models.OutboundMessage) { seen = append(seen, m.Action) })

	o.Publish(models.OutboundMessage{Action: models.MsgContentScriptLoaded})
	o.Publish(models.OutboundMessage{Action: models.MsgElementSelected, Selector: "#a"})
	o.Publish(models.OutboundMessage{Action: models.MsgMacroRecorded, MacroType: models.MacroLong})

	all := o.Since(0)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].Seq)
	assert.Equal(t, int64(3), all[1].Seq)
	assert.False(t, all[1].At.IsZero())

	assert.Len(t, o.Since(2), 1)
	assert.Len(t, seen, 3)
}

func TestMultiSkipsNil(t *testing.T) {
	m := Multi{nil, NewLog(zap.NewNop())}
	assert.NotPanics(t, func() { m.Sendf("x=%d", 1) })
}
