package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/recorder"
	"macro_trader/internal/runner"
	"macro_trader/internal/strategy"
)

const page = `<html><body>
<div id="px">50000</div>
<div class="order-form">
  <button class="side long">Long</button>
  <input id="qty" placeholder="Amount">
</div>
</body></html>`

type trader struct {
	lock   *runner.TradeLock
	state  *runner.State
	err    error
	trades []string
	played chan models.MacroType
}

func newTrader() *trader {
	cfg := config.TradingConfig{Exit: config.ExitConfig{Type: "simple"}}
	return &trader{
		lock:   runner.NewTradeLock(3*time.Second, time.Minute, nil),
		state:  runner.NewState(strategy.NewSplitEntry(cfg), strategy.NewExitState(cfg)),
		played: make(chan models.MacroType, 1),
	}
}

func (t *trader) ExecuteTrade(_ context.Context, typ models.MacroType, amount string) (runner.Report, error) {
	t.trades = append(t.trades, string(typ)+":"+amount)
	if t.err != nil {
		return runner.Report{}, t.err
	}
	return runner.Report{Type: typ, Steps: 3, Executed: 3}, nil
}

func (t *trader) PlayMacro(_ context.Context, typ models.MacroType, _ string) (runner.Report, error) {
	t.played <- typ
	return runner.Report{Type: typ}, nil
}

func (t *trader) Lock() *runner.TradeLock { return t.lock }
func (t *trader) State() *runner.State    { return t.state }

type market struct{}

func (market) Balance(context.Context) (float64, error) { return 1000, nil }
func (market) Price(context.Context) (float64, error)   { return 0, runner.ErrAmountNotComputable }

type fixture struct {
	api    *API
	doc    *htmldom.Document
	store  *store.Store
	trader *trader
	out    *notify.Outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	doc := htmldom.MustParse(page)
	st := store.New(store.NewFile(filepath.Join(t.TempDir(), "macros.json")), log)
	out := notify.NewOutbox(log, 0)
	tr := newTrader()

	api := New(context.Background(), Deps{
		Trader:   tr,
		Recorder: recorder.NewSession(doc, st, nil, out, log, recorder.Options{Debounce: time.Millisecond}),
		Selector: recorder.NewSelection(doc, out, log),
		Store:    st,
		Market:   market{},
		Events:   out,
	}, log)
	return &fixture{api: api, doc: doc, store: st, trader: tr, out: out}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.api.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func (f *fixture) message(t *testing.T, body string) Response {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/message", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	resp := f.message(t, `{"action":"ping"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Status)
}

func TestUnknownActionIsBadRequest(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/message", `{"action":"launchRocket"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/message", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordMacroThroughMessages(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.message(t, `{"action":"startMacroRecording","macroType":"long"}`).Success)

	resp := f.message(t, `{"action":"startMacroRecording","macroType":"short"}`)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "already in progress")

	f.doc.Fire(dom.Event{Type: dom.EventClick, Target: f.doc.MustFind("button.long"), Bubbles: true})

	rec := f.do(t, http.MethodGet, "/state", "")
	assert.Contains(t, rec.Body.String(), `"recording":"long"`)

	resp = f.message(t, `{"action":"stopMacroRecording"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Actions)

	rec = f.do(t, http.MethodGet, "/macros", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var macros map[string][]models.MacroAction
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &macros))
	require.Len(t, macros["long"], 1)
	assert.Equal(t, models.ActionClick, macros["long"][0].Type)

	rec = f.do(t, http.MethodGet, "/events", "")
	var events []models.OutboundMessage
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &events))
	require.NotEmpty(t, events)
	assert.Equal(t, models.MsgMacroRecorded, events[len(events)-1].Action)

	rec = f.do(t, http.MethodGet, "/events?after="+itoa(events[len(events)-1].Seq), "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestElementSelectionStoresSelector(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.message(t, `{"action":"startElementSelection","type":"price"}`).Success)
	f.doc.Fire(dom.Event{Type: dom.EventClick, Target: f.doc.MustFind("#px"), Bubbles: true})

	got, err := f.store.LoadSetting(context.Background(), store.KeyPriceSelector)
	require.NoError(t, err)
	assert.Equal(t, "#px", got)

	events := f.out.Since(0)
	require.Len(t, events, 1)
	assert.Equal(t, models.MsgElementSelected, events[0].Action)
	assert.Equal(t, "50000", events[0].Text)

	resp := f.message(t, `{"action":"startElementSelection","type":"volume"}`)
	assert.False(t, resp.Success)
}

func TestExecuteSmartTrade(t *testing.T) {
	f := newFixture(t)

	resp := f.message(t, `{"action":"executeSmartTrade","tradeType":"short","amount":"0.5"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, "short macro executed: 3/3 steps (skipped 0, failed 0)", resp.Message)
	assert.Equal(t, []string{"short:0.5"}, f.trader.trades)

	f.trader.err = errors.New("please wait 2 seconds before next trade")
	resp = f.message(t, `{"action":"executeSmartTrade","tradeType":"long"}`)
	assert.False(t, resp.Success)
	assert.Equal(t, "please wait 2 seconds before next trade", resp.Error)

	resp = f.message(t, `{"action":"executeSmartTrade","tradeType":"sideways"}`)
	assert.False(t, resp.Success)
}

func TestPlayMacroRunsInBackground(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.message(t, `{"action":"playMacro","macroType":"close","amount":"1"}`).Success)
	select {
	case typ := <-f.trader.played:
		assert.Equal(t, models.MacroClose, typ)
	case <-time.After(time.Second):
		t.Fatal("playMacro was not started")
	}
	f.api.Wait()
}

func TestBalanceAndPrice(t *testing.T) {
	f := newFixture(t)

	resp := f.message(t, `{"action":"getBalance"}`)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, 1000.0, *resp.Balance)

	resp = f.message(t, `{"action":"getPrice"}`)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Price)
}

func TestExportImportReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveSetting(ctx, store.KeyBalanceSelector, ".balance"))
	require.NoError(t, f.store.SaveMacro(ctx, models.Macro{Type: models.MacroLong, Actions: []models.MacroAction{
		{Type: models.ActionClick, Timestamp: 10, Fingerprint: models.ElementFingerprint{Locator: "button.long", Keywords: []string{"long"}}},
	}}))

	rec := f.do(t, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	bundle := rec.Body.String()
	assert.Contains(t, bundle, "button.long")

	rec = f.do(t, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := f.store.LoadMacro(ctx, models.MacroLong)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = f.do(t, http.MethodPost, "/import", bundle)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "imported 1 macros, 1 settings")

	m, err := f.store.LoadMacro(ctx, models.MacroLong)
	require.NoError(t, err)
	assert.Equal(t, "button.long", m.Actions[0].Fingerprint.Locator)

	rec = f.do(t, http.MethodPost, "/import", "macros: [")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
