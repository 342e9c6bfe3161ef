package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/replay"
	"macro_trader/internal/strategy"
	"macro_trader/pkg/tracing"
)

var (
	ErrNoMacro = errors.New("no macro recorded")
	// ErrStepsFailed: элементы найдены, но ни одно действие не прошло.
	ErrStepsFailed = errors.New("macro steps failed")
)

// MacroStore: чтение записанных макросов и настроек.
type MacroStore interface {
	SettingsReader
	LoadMacro(ctx context.Context, t models.MacroType) (models.Macro, error)
}

// SleepFunc: ожидание между шагами; прерывается контекстом.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report: итог одного проигрывания макроса.
type Report struct {
	ID       string           `json:"id"`
	Type     models.MacroType `json:"type"`
	Steps    int              `json:"steps"`
	Executed int              `json:"executed"`
	Skipped  int              `json:"skipped"`
	Failed   int              `json:"failed"`
	Fallback bool             `json:"fallback,omitempty"`
	Duration time.Duration    `json:"duration"`
}

func (r Report) String() string {
	if r.Fallback {
		return fmt.Sprintf("%s trade executed by element detection", r.Type)
	}
	return fmt.Sprintf("%s macro executed: %d/%d steps (skipped %d, failed %d)",
		r.Type, r.Executed, r.Steps, r.Skipped, r.Failed)
}

// Orchestrator: проигрывание макросов как одной сделки под TradeLock.
type Orchestrator struct {
	cfg config.TradingConfig
	log *zap.Logger

	lock     *TradeLock
	state    *State
	store    MacroStore
	pages    Pages
	market   *Extractor
	resolver *replay.Resolver
	exec     *replay.Executor
	detector *replay.Detector
	engine   strategy.Engine
	notifier notify.Notifier

	sleep SleepFunc
	now   func() time.Time
}

type Deps struct {
	Lock     *TradeLock
	State    *State
	Store    MacroStore
	Pages    Pages
	Market   *Extractor
	Resolver *replay.Resolver
	Executor *replay.Executor
	Detector *replay.Detector
	Engine   strategy.Engine
	Notifier notify.Notifier

	Sleep SleepFunc
	Now   func() time.Time
}

func NewOrchestrator(cfg config.TradingConfig, d Deps, log *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		log:      log,
		lock:     d.Lock,
		state:    d.State,
		store:    d.Store,
		pages:    d.Pages,
		market:   d.Market,
		resolver: d.Resolver,
		exec:     d.Executor,
		detector: d.Detector,
		engine:   d.Engine,
		notifier: d.Notifier,
		sleep:    d.Sleep,
		now:      d.Now,
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.resolver == nil {
		o.resolver = replay.NewResolver(log)
	}
	if o.exec == nil {
		o.exec = replay.NewExecutor(log)
	}
	if o.detector == nil {
		o.detector = replay.NewDetector(replay.DefaultDetectorCache, o.now)
	}
	if o.notifier == nil {
		o.notifier = notify.NewLog(log)
	}
	return o
}

func (o *Orchestrator) Lock() *TradeLock { return o.lock }
func (o *Orchestrator) State() *State    { return o.state }

// ExecuteTrade: executeTrade/executeSmartTrade: весь макрос t как одна сделка.
// Пустой amount для макроса с полем количества считается калькулятором.
// Исполненный close сбрасывает позицию, слайсы входа и трекинг выхода.
func (o *Orchestrator) ExecuteTrade(ctx context.Context, t models.MacroType, amount string) (Report, error) {
	return o.executeTrade(ctx, t, amount, true)
}

// executeTrade: clearOnClose=false, когда позицией после close управляет вызывающий (выход по split TP).
func (o *Orchestrator) executeTrade(ctx context.Context, t models.MacroType, amount string, clearOnClose bool) (rep Report, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.ExecuteTrade")
	span.SetTag("macro.type", string(t))
	start := o.now()
	defer func() {
		result := "ok"
		if err != nil {
			result = resultLabel(err)
			ext.Error.Set(span, true)
			span.LogKV("error", err.Error())
		}
		metrics.Trades.WithLabelValues(string(t), result).Inc()
		metrics.TradeDuration.WithLabelValues(string(t)).Observe(o.now().Sub(start).Seconds())
		span.Finish()
	}()

	if err = o.lock.Acquire(t); err != nil {
		o.log.Warn("[LOCK] trade rejected", zap.String("type", string(t)), zap.Error(err))
		return Report{}, err
	}
	attempted := false
	defer func() { o.lock.Release(attempted) }()

	rep = Report{ID: uuid.NewString(), Type: t}
	o.log.Info("[TRADE] start",
		zap.String("id", rep.ID),
		zap.String("type", string(t)),
		zap.String("amount", amount),
		zap.String("trace", tracing.TraceID(ctx)))

	macro, err := o.loadMacro(ctx, t)
	if errors.Is(err, ErrNoMacro) && o.cfg.FallbackDetection && t != models.MacroClose {
		if amount == "" {
			if amount, err = o.amountFor(ctx, o.cfg.PositionPct); err != nil {
				return rep, err
			}
		}
		rep.Fallback = true
		attempted, err = o.smartTrade(ctx, t, amount)
		rep.Duration = o.now().Sub(start)
		return rep, err
	}
	if err != nil {
		return rep, err
	}

	if amount == "" && needsAmount(macro) {
		if amount, err = o.amountFor(ctx, o.cfg.PositionPct); err != nil {
			return rep, err
		}
	}

	// дальше шаги уходят на страницу: кулдаун ставится при любом исходе
	attempted = true
	err = o.runMacro(ctx, macro, amount, false, &rep)
	rep.Duration = o.now().Sub(start)
	if t == models.MacroClose && clearOnClose && rep.Executed > 0 {
		o.state.ClearPosition()
		o.log.Info("[TRADE] position cleared", zap.String("id", rep.ID))
	}
	if err != nil {
		return rep, err
	}
	o.log.Info("[TRADE] done", zap.String("id", rep.ID), zap.String("result", rep.String()))
	return rep, nil
}

func (o *Orchestrator) loadMacro(ctx context.Context, t models.MacroType) (models.Macro, error) {
	m, err := o.store.LoadMacro(ctx, t)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(m.Actions) == 0) {
		return models.Macro{}, fmt.Errorf("%w: %s", ErrNoMacro, t)
	}
	if err != nil {
		return models.Macro{}, fmt.Errorf("load %s macro: %w", t, err)
	}
	return m, nil
}

// amountFor: размер ордера на pct% баланса по текущей цене.
func (o *Orchestrator) amountFor(ctx context.Context, pct float64) (string, error) {
	if o.market == nil {
		return "", fmt.Errorf("%w: no market data", ErrAmountNotComputable)
	}
	balance, err := o.market.Balance(ctx)
	if err != nil {
		return "", err
	}
	price, err := o.market.Price(ctx)
	if err != nil {
		return "", err
	}
	return CalcAmount(balance, o.cfg.Leverage, pct, price)
}

// runMacro проигрывает шаги по порядку. Не найденный элемент пропускается.
// strict: ошибка шага прерывает последовательность (вход частями),
// иначе пишется в лог и идём дальше.
func (o *Orchestrator) runMacro(ctx context.Context, m models.Macro, amount string, strict bool, rep *Report) error {
	rep.Steps = len(m.Actions)
	for i, a := range m.Actions {
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.SettleDelay); err != nil {
				return err
			}
		}
		doc, err := o.pages.Document(ctx)
		if err != nil {
			return fmt.Errorf("page document: %w", err)
		}

		res, err := o.resolver.Resolve(doc, a)
		if err != nil {
			rep.Skipped++
			o.log.Warn("[REPLAY] step skipped",
				zap.Int("step", i+1), zap.String("type", string(a.Type)),
				zap.String("selector", a.Fingerprint.Locator), zap.Error(err))
			continue
		}

		if err := o.execStep(ctx, res, a, amount, i); err != nil {
			rep.Failed++
			if strict {
				return fmt.Errorf("step %d %s: %w", i+1, a.Type, err)
			}
			continue
		}
		rep.Executed++
	}
	if rep.Executed == 0 && rep.Steps > 0 {
		if rep.Failed > 0 {
			return fmt.Errorf("%s macro: %d of %d steps failed: %w", m.Type, rep.Failed, rep.Steps, ErrStepsFailed)
		}
		return fmt.Errorf("%s macro: no step executed: %w", m.Type, replay.ErrElementNotFound)
	}
	return nil
}

func (o *Orchestrator) execStep(ctx context.Context, res replay.Resolution, a models.MacroAction, amount string, i int) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "runner.step")
	defer span.Finish()
	span.SetTag("step", i+1)
	span.SetTag("action", string(a.Type))
	span.SetTag("resolved_by", string(res.Strategy))

	if err := o.exec.Execute(res.Element, a, amount); err != nil {
		ext.Error.Set(span, true)
		return err
	}
	o.log.Debug("[REPLAY] step done", zap.Int("step", i+1), zap.String("type", string(a.Type)),
		zap.String("by", string(res.Strategy)))
	return nil
}

func needsAmount(m models.Macro) bool {
	for _, a := range m.Actions {
		if a.Type == models.ActionAmountField {
			return true
		}
	}
	return false
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyExecuting):
		return "locked"
	case errors.Is(err, ErrCooldown):
		return "cooldown"
	case errors.Is(err, ErrNoMacro):
		return "no_macro"
	case errors.Is(err, ErrAmountNotComputable):
		return "no_amount"
	case errors.Is(err, replay.ErrElementNotFound):
		return "not_found"
	case errors.Is(err, ErrStepsFailed):
		return "failed"
	}
	return "error"
}
