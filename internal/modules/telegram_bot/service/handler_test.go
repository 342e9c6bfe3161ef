package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/runner"
)

type replies struct {
	mu  sync.Mutex
	got []string
}

func (r *replies) Send(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, msg)
}

func (r *replies) Sendf(format string, args ...any) { r.Send(fmt.Sprintf(format, args...)) }

func (r *replies) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

type trader struct {
	mu    sync.Mutex
	sigs  []models.Signal
	err   error
	lock  *runner.TradeLock
	state *runner.State
}

func newTrader() *trader {
	return &trader{
		lock:  runner.NewTradeLock(3*time.Second, time.Minute, nil),
		state: runner.NewState(models.SplitEntryState{}, models.ExitStrategyState{}),
	}
}

func (tr *trader) HandleSignal(_ context.Context, sig models.Signal) (string, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.sigs = append(tr.sigs, sig)
	if tr.err != nil {
		return "", tr.err
	}
	return fmt.Sprintf("%s %s done", sig.Symbol, sig.Side), nil
}

func (tr *trader) Lock() *runner.TradeLock { return tr.lock }
func (tr *trader) State() *runner.State    { return tr.state }

type camera struct{ png []byte }

func (c camera) Screenshot(context.Context) ([]byte, error) { return c.png, nil }

type album struct{ names []string }

func (a *album) SendPhoto(name string, _ []byte, _ string) error {
	a.names = append(a.names, name)
	return nil
}

func newBot(tr *trader, opts Options) (*Telegram, *replies) {
	r := &replies{}
	cfg := config.TelegramConfig{Trigger: "BTC", ChatID: 42}
	return NewTelegram(nil, cfg, tr, r, zap.NewNop(), opts), r
}

func TestHandleValidSignal(t *testing.T) {
	tr := newTrader()
	bot, r := newBot(tr, Options{})

	bot.Handle(context.Background(), Incoming{ID: 1, ChatID: 42, Text: "📈 BTC LONG"})
	bot.Wait()

	require.Len(t, tr.sigs, 1)
	assert.Equal(t, 1, tr.sigs[0].MessageID)
	assert.Equal(t, models.SideLong, tr.sigs[0].Side)
	assert.Equal(t, []string{"✅ BTC LONG done"}, r.all())
}

func TestHandleSilentCases(t *testing.T) {
	tr := newTrader()
	bot, r := newBot(tr, Options{})

	for i, text := range []string{"good morning", "ETH SHORT", "btc long"} {
		bot.Handle(context.Background(), Incoming{ID: i + 1, Text: text})
	}
	bot.Wait()

	assert.Empty(t, tr.sigs)
	assert.Empty(t, r.all())
}

func TestHandleSignalWithoutTriggerIsSilent(t *testing.T) {
	tr := newTrader()
	r := &replies{}
	bot := NewTelegram(nil, config.TelegramConfig{ChatID: 42}, tr, r, zap.NewNop(), Options{})

	bot.Handle(context.Background(), Incoming{ID: 1, ChatID: 42, Text: "BTC LONG"})
	bot.Wait()

	assert.Empty(t, tr.sigs)
	assert.Empty(t, r.all())
}

func TestHandleDedupe(t *testing.T) {
	tr := newTrader()
	bot, _ := newBot(tr, Options{})

	bot.Handle(context.Background(), Incoming{ID: 10, Text: "BTC LONG"})
	bot.Handle(context.Background(), Incoming{ID: 10, Text: "BTC LONG"})
	bot.Handle(context.Background(), Incoming{ID: 9, Text: "BTC SHORT"})
	bot.Wait()

	assert.Len(t, tr.sigs, 1)
}

func TestHandleTradeRejected(t *testing.T) {
	tr := newTrader()
	tr.err = &runner.CooldownError{Remaining: 2 * time.Second}
	bot, r := newBot(tr, Options{})

	bot.Handle(context.Background(), Incoming{ID: 1, Text: "BUY BTC"})
	bot.Wait()
	require.Len(t, r.all(), 1)
	assert.Contains(t, r.all()[0], "please wait 2 seconds")

	tr.err = errors.New("boom")
	bot.Handle(context.Background(), Incoming{ID: 2, Text: "BUY BTC"})
	bot.Wait()
	assert.Contains(t, r.all()[1], "❌")
}

func TestCommands(t *testing.T) {
	tr := newTrader()
	cam, photos := camera{png: []byte{0x89, 'P', 'N', 'G'}}, &album{}
	bot, r := newBot(tr, Options{Shots: cam, Photos: photos})

	require.NoError(t, tr.lock.Acquire(models.MacroShort))

	bot.Handle(context.Background(), Incoming{ID: 1, Text: "test"})
	bot.Handle(context.Background(), Incoming{ID: 2, Text: "debug"})
	bot.Handle(context.Background(), Incoming{ID: 3, Text: "PARSE ETH SHORT"})
	bot.Handle(context.Background(), Incoming{ID: 4, Text: "screenshot"})
	bot.Handle(context.Background(), Incoming{ID: 5, Text: "UNLOCK"})
	bot.Handle(context.Background(), Incoming{ID: 6, Text: "unlock"})

	got := r.all()
	require.Len(t, got, 5)
	assert.Equal(t, "✅ Test message received: test", got[0])
	assert.Contains(t, got[1], "Symbol: BTC")
	assert.Contains(t, got[1], "Macro: ✅ (short")
	assert.Contains(t, got[2], "Symbol: ETH")
	assert.Contains(t, got[2], "Valid: ❌")
	assert.Contains(t, got[2], "does not match")
	assert.Contains(t, got[3], "released successfully")
	assert.Contains(t, got[4], "was not locked")
	assert.Equal(t, []string{"screenshot.png"}, photos.names)
	assert.False(t, tr.lock.Snapshot().IsExecuting)
}

func TestDedupeTrim(t *testing.T) {
	d := newDedupe()
	for id := 1; id <= dedupeCap+1; id++ {
		d.Mark(id)
	}
	assert.Equal(t, dedupeCap+1-dedupeTrim, d.Len())
	assert.True(t, d.Seen(1), "older than last id")
	assert.True(t, d.Seen(dedupeCap+1))
	assert.False(t, d.Seen(dedupeCap+2))

	d.Reset()
	assert.False(t, d.Seen(1))
}
