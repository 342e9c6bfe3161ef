package runner

import (
	"context"

	"go.uber.org/zap"

	"macro_trader/internal/notify"
)

// Watchdog снимает замок, зависший дольше max_execution_time, и сообщает в чат.
type Watchdog struct {
	lock     *TradeLock
	notifier notify.Notifier
	log      *zap.Logger
}

func NewWatchdog(lock *TradeLock, n notify.Notifier, log *zap.Logger) *Watchdog {
	return &Watchdog{lock: lock, notifier: n, log: log}
}

func (w *Watchdog) Name() string { return "lock-watchdog" }

func (w *Watchdog) Run(_ context.Context) error {
	t, held, ok := w.lock.Expire()
	if !ok {
		return nil
	}
	w.log.Warn("[LOCK] force released", zap.String("type", string(t)), zap.Duration("held", held))
	w.notifier.Sendf("⚠️ Trade lock force-released: %s held for %ds", t, int(held.Seconds()))
	return nil
}
