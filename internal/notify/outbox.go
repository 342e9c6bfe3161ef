package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"macro_trader/internal/models"
)

const defaultOutboxSize = 200

// Outbox: исходящие сообщения к хосту (elementSelected, macroRecorded, ...).
// Хранит последние N, читается через GET /events.
type Outbox struct {
	log *zap.Logger
	now func() time.Time

	mu    sync.Mutex
	seq   int64
	items []models.OutboundMessage
	size  int
	subs  []func(models.OutboundMessage)
}

func NewOutbox(log *zap.Logger, size int) *Outbox {
	if size <= 0 {
		size = defaultOutboxSize
	}
	return &Outbox{log: log, now: time.Now, size: size}
}

// Subscribe: обработчик на каждое новое сообщение (вызывается синхронно).
func (o *Outbox) Subscribe(fn func(models.OutboundMessage)) {
	o.mu.Lock()
	o.subs = append(o.subs, fn)
	o.mu.Unlock()
}

func (o *Outbox) Publish(msg models.OutboundMessage) {
	o.mu.Lock()
	o.seq++
	msg.Seq = o.seq
	if msg.At.IsZero() {
		msg.At = o.now()
	}
	o.items = append(o.items, msg)
	if len(o.items) > o.size {
		o.items = append([]models.OutboundMessage(nil), o.items[len(o.items)-o.size:]...)
	}
	subs := append(([]func(models.OutboundMessage))(nil), o.subs...)
	o.mu.Unlock()

	o.log.Info("[OUTBOX] "+msg.Action,
		zap.Int64("seq", msg.Seq),
		zap.String("macro_type", string(msg.MacroType)),
		zap.Int("actions", len(msg.Actions)),
		zap.String("selector", msg.Selector))

	for _, fn := range subs {
		fn(msg)
	}
}

// Since: сообщения с Seq > after.
func (o *Outbox) Since(after int64) []models.OutboundMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.OutboundMessage
	for _, m := range o.items {
		if m.Seq > after {
			out = append(out, m)
		}
	}
	return out
}
