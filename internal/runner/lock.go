package runner

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
)

var (
	ErrAlreadyExecuting = errors.New("trade already executing")
	ErrCooldown         = errors.New("trade cooldown")
)

// CooldownError: отказ по кулдауну, Remaining округляется вверх до секунды в тексте.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before next trade", int(math.Ceil(e.Remaining.Seconds())))
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldown }

// TradeLock: не больше одной сделки одновременно + минимальный интервал между сделками.
// Проверка и захват происходят под одним мьютексом.
type TradeLock struct {
	mu sync.Mutex
	st models.TradeLock

	interval time.Duration // кулдаун после сделки
	maxExec  time.Duration // после этого замок считается зависшим
	now      func() time.Time
}

func NewTradeLock(interval, maxExec time.Duration, now func() time.Time) *TradeLock {
	if now == nil {
		now = time.Now
	}
	return &TradeLock{interval: interval, maxExec: maxExec, now: now}
}

// Acquire захватывает замок под тип t.
// Зависший дольше maxExec замок снимается автоматически и захват продолжается.
func (l *TradeLock) Acquire(t models.MacroType) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.st.IsExecuting {
		if l.maxExec <= 0 || now.Sub(l.st.StartedAt) < l.maxExec {
			return ErrAlreadyExecuting
		}
		metrics.LockForceReleases.Inc()
		l.st.IsExecuting = false
		l.st.ExecutingType = ""
	}
	if !l.st.LastTradeAt.IsZero() {
		if since := now.Sub(l.st.LastTradeAt); since < l.interval {
			return &CooldownError{Remaining: l.interval - since}
		}
	}

	l.st.IsExecuting = true
	l.st.ExecutingType = t
	l.st.StartedAt = now
	return nil
}

// Release снимает замок. attempted=false: не прошло предусловие (нет макроса,
// не посчитать количество), до страницы не дошли, кулдаун не ставим.
func (l *TradeLock) Release(attempted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.st.IsExecuting = false
	l.st.ExecutingType = ""
	if attempted {
		l.st.LastTradeAt = l.now()
	}
}

// Expire: для watchdog: снять замок, если он держится дольше maxExec.
// Возвращает тип и длительность снятого исполнения.
func (l *TradeLock) Expire() (models.MacroType, time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.st.IsExecuting || l.maxExec <= 0 {
		return "", 0, false
	}
	held := l.now().Sub(l.st.StartedAt)
	if held < l.maxExec {
		return "", 0, false
	}
	t := l.st.ExecutingType
	l.st.IsExecuting = false
	l.st.ExecutingType = ""
	metrics.LockForceReleases.Inc()
	return t, held, true
}

// ForceRelease: ручной UNLOCK. clearCooldown сбрасывает и время последней сделки.
func (l *TradeLock) ForceRelease(clearCooldown bool) models.TradeLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.st
	l.st.IsExecuting = false
	l.st.ExecutingType = ""
	if clearCooldown {
		l.st.LastTradeAt = time.Time{}
	}
	metrics.LockForceReleases.Inc()
	return prev
}

func (l *TradeLock) Snapshot() models.TradeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}
