package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
	"macro_trader/internal/runner"
	"macro_trader/internal/signal"
)

// Handle: одно сообщение: сначала команды, потом сигнал.
// Повторный message_id игнорируется.
func (t *Telegram) Handle(ctx context.Context, in Incoming) {
	if t.seen.Seen(in.ID) {
		t.log.Debug("[TG] duplicate message", zap.Int("message_id", in.ID))
		return
	}
	defer t.seen.Mark(in.ID)

	text := strings.TrimSpace(in.Text)
	upper := strings.ToUpper(text)
	t.log.Info("[TG] message", zap.Int("message_id", in.ID), zap.String("text", text))

	switch {
	case strings.Contains(upper, "TEST"):
		t.reply.Sendf("✅ Test message received: %s", text)
	case strings.Contains(upper, "DEBUG"):
		t.handleDebug()
	case strings.HasPrefix(upper, "PARSE "):
		t.handleParse(text[len("PARSE "):])
	case strings.Contains(upper, "SCREENSHOT"):
		t.handleScreenshot(ctx)
	case strings.Contains(upper, "UNLOCK"):
		t.handleUnlock()
	default:
		t.handleSignal(ctx, in, text)
	}
}

func (t *Telegram) handleDebug() {
	t.reply.Send(formatDebug(t.parser.Trigger(), t.Polling(), t.trader.Lock().Snapshot(), t.trader.State().Snapshot(), t.now()))
}

func (t *Telegram) handleParse(input string) {
	sig, ok := t.parser.Parse(input)
	var verr error
	if ok {
		verr = t.parser.Validate(sig)
	}
	t.reply.Send(formatParse(input, sig, ok, verr))
}

func (t *Telegram) handleScreenshot(ctx context.Context) {
	if t.shots == nil || t.photos == nil {
		t.reply.Send("📸 Screenshot is not available: browser is not connected")
		return
	}
	png, err := t.shots.Screenshot(ctx)
	if err != nil {
		t.reply.Sendf("❌ Screenshot capture failed: %v", err)
		return
	}
	if err := t.photos.SendPhoto("screenshot.png", png, "📸 Trading page"); err != nil {
		t.reply.Sendf("❌ Screenshot send failed: %v", err)
	}
}

func (t *Telegram) handleUnlock() {
	prev := t.trader.Lock().ForceRelease(true)
	t.log.Warn("[LOCK] manual unlock", zap.Bool("was_locked", prev.IsExecuting))
	t.reply.Send(formatUnlock(prev))
}

// handleSignal: непонятые сообщения и чужие символы — молча.
func (t *Telegram) handleSignal(ctx context.Context, in Incoming, text string) {
	sig, ok := t.parser.Parse(text)
	if !ok {
		metrics.Signals.WithLabelValues("ignored").Inc()
		return
	}
	sig.MessageID = in.ID

	if err := t.parser.Validate(sig); err != nil {
		switch {
		case errors.Is(err, signal.ErrSymbolMismatch), errors.Is(err, signal.ErrNoSymbol):
			metrics.Signals.WithLabelValues("mismatch").Inc()
			t.log.Info("[TG] signal skipped", zap.Error(err))
			return
		case errors.Is(err, signal.ErrNoTrigger):
			// без trigger ни один символ не совпадёт
			metrics.Signals.WithLabelValues("mismatch").Inc()
			t.log.Warn("[TG] signal skipped: trigger symbol is not configured", zap.String("symbol", sig.Symbol))
			return
		}
		metrics.Signals.WithLabelValues("invalid").Inc()
		t.reply.Sendf("⚠️ Signal processing failed: %v", err)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.execute(ctx, sig)
	}()
}

func (t *Telegram) execute(ctx context.Context, sig models.Signal) {
	msg, err := t.trader.HandleSignal(ctx, sig)
	switch {
	case err == nil:
		metrics.Signals.WithLabelValues("executed").Inc()
		t.reply.Sendf("✅ %s", msg)
	case errors.Is(err, runner.ErrAlreadyExecuting), errors.Is(err, runner.ErrCooldown):
		metrics.Signals.WithLabelValues("rejected").Inc()
		t.reply.Sendf("⏳ %s %s skipped: %v", sig.Symbol, sig.Side, err)
	default:
		metrics.Signals.WithLabelValues("failed").Inc()
		t.log.Error("[TG] trade failed", zap.String("symbol", sig.Symbol), zap.Error(err))
		t.reply.Send(fmt.Sprintf("❌ %s %s failed: %v", sig.Symbol, sig.Side, err))
	}
}
