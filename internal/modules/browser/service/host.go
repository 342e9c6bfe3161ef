// Package service — вкладка биржи под управлением chromedp: снапшоты DOM,
// события для записи, действия для воспроизведения, скриншоты.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
)

// ErrDisabled: браузер выключен в конфиге или ещё не запущен.
var ErrDisabled = errors.New("browser: not running")

// Publisher: исходящие сообщения хосту.
type Publisher interface {
	Publish(msg models.OutboundMessage)
}

// Host: одна вкладка Chrome.
type Host struct {
	cfg config.BrowserConfig
	out Publisher
	log *zap.Logger

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	page   *Page
	wg     sync.WaitGroup
}

func NewHost(cfg config.BrowserConfig, out Publisher, log *zap.Logger) *Host {
	h := &Host{cfg: cfg, out: out, log: log}
	h.page = NewPage(h, cfg.Timeout, log)
	return h
}

// Page: живая страница вкладки.
func (h *Host) Page() *Page { return h.page }

func (h *Host) allocator() (context.Context, context.CancelFunc) {
	if h.cfg.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), h.cfg.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", h.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("no-first-run", true),
	)
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// Start поднимает вкладку, ставит мост и запускает опрос событий.
func (h *Host) Start(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("browser.Start: %w", err)
		}
	}()

	allocCtx, allocCancel := h.allocator()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			h.log.Sugar().Debugf("[CDP] "+format, args...)
		}),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(bridgeScript).Do(ctx)
			return err
		}),
	}
	if h.cfg.StartURL != "" {
		actions = append(actions,
			chromedp.Navigate(h.cfg.StartURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	}
	// вкладка могла быть открыта до подключения
	actions = append(actions, chromedp.Evaluate(bridgeScript, nil))

	if err = chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		return err
	}

	h.mu.Lock()
	h.ctx, h.cancel = tabCtx, cancel
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.page.Poll(tabCtx, h.cfg.EventPoll)
	}()

	url := h.cfg.StartURL
	if err := h.page.Refresh(ctx); err == nil {
		url = h.page.URL()
	}
	if h.out != nil {
		h.out.Publish(models.OutboundMessage{Action: models.MsgContentScriptLoaded, URL: url})
	}
	h.log.Info("[BROWSER] tab ready", zap.String("url", url), zap.Bool("remote", h.cfg.RemoteURL != ""))
	return nil
}

// Stop закрывает вкладку (и Chrome, если он наш).
func (h *Host) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.ctx, h.cancel = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	h.wg.Wait()
	h.log.Info("[BROWSER] stopped")
}

func (h *Host) run(ctx context.Context, actions ...chromedp.Action) error {
	h.mu.RLock()
	tab := h.ctx
	h.mu.RUnlock()
	if tab == nil {
		return ErrDisabled
	}

	var cancel context.CancelFunc
	if dl, ok := ctx.Deadline(); ok {
		tab, cancel = context.WithDeadline(tab, dl)
	} else {
		tab, cancel = context.WithTimeout(tab, h.cfg.Timeout)
	}
	defer cancel()

	// отмена вызывающего прерывает и команду во вкладке
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(tab, actions...)
}

// Eval выполняет выражение во вкладке и возвращает результат как JSON.
func (h *Host) Eval(ctx context.Context, expr string) ([]byte, error) {
	var raw []byte
	if err := h.run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, err
	}
	return raw, nil
}

// Screenshot: PNG видимой области.
func (h *Host) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := h.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browser.Screenshot: %w", err)
	}
	return buf, nil
}

func (h *Host) ShowRecording(t models.MacroType) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := h.Eval(ctx, showIndicatorScript("● REC "+string(t)))
	return err
}

func (h *Host) HideRecording() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := h.Eval(ctx, hideIndicatorScript())
	return err
}
