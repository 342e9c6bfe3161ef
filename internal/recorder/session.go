// Package recorder — запись макроса: Idle -> Armed(type) -> Idle.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/fingerprint"
	"macro_trader/internal/models"
)

var ErrAlreadyRecording = errors.New("macro recording already in progress")

const DefaultDebounce = 100 * time.Millisecond

// RecordedKeys: клавиши, которые попадают в макрос.
var RecordedKeys = map[string]bool{"Enter": true, "Tab": true, "Escape": true}

// Sink: граница хранения.
type Sink interface {
	SaveMacro(ctx context.Context, m models.Macro) error
}

// Indicator: индикатор записи на странице.
type Indicator interface {
	ShowRecording(t models.MacroType) error
	HideRecording() error
}

// Publisher: исходящие сообщения хосту.
type Publisher interface {
	Publish(msg models.OutboundMessage)
}

type Options struct {
	Debounce time.Duration
	Now      func() time.Time
}

// Session: одна вкладка, одна запись за раз.
type Session struct {
	page dom.Page
	sink Sink
	ind  Indicator
	out  Publisher
	log  *zap.Logger
	opts Options

	mu        sync.Mutex
	id        string
	armed     bool
	macroType models.MacroType
	startedAt time.Time
	actions   []models.MacroAction
	cancel    func()

	pending *dom.Event
	gen     int
	timer   *time.Timer
}

func NewSession(page dom.Page, sink Sink, ind Indicator, out Publisher, log *zap.Logger, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{page: page, sink: sink, ind: ind, out: out, log: log, opts: opts}
}

// Armed: идёт ли запись и какого типа.
func (s *Session) Armed() (models.MacroType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.macroType, s.armed
}

// Start переводит сессию в Armed. Повторный старт во время записи отклоняется.
func (s *Session) Start(t models.MacroType) error {
	s.mu.Lock()
	if s.armed {
		cur := s.macroType
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRecording, cur)
	}
	s.armed = true
	s.id = uuid.NewString()
	s.macroType = t
	s.startedAt = s.opts.Now()
	s.actions = nil
	s.pending = nil
	s.cancel = s.page.Listen(dom.RecordedEvents, s.onEvent)
	id := s.id
	s.mu.Unlock()

	if s.ind != nil {
		if err := s.ind.ShowRecording(t); err != nil {
			s.log.Warn("[REC] indicator show failed", zap.Error(err))
		}
	}
	s.log.Info("[REC] start", zap.String("type", string(t)), zap.String("session", id))
	return nil
}

// Stop снимает все обработчики и отдаёт макрос в Sink, если он не пустой.
// Остановка без записи — no-op.
func (s *Session) Stop(ctx context.Context) (*models.Macro, error) {
	s.mu.Lock()
	if !s.armed {
		s.mu.Unlock()
		return nil, nil
	}
	s.flushLocked()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	s.cancel = nil

	t, id := s.macroType, s.id
	actions := s.actions
	s.armed = false
	s.macroType = ""
	s.actions = nil
	s.mu.Unlock()

	if s.ind != nil {
		if err := s.ind.HideRecording(); err != nil {
			s.log.Warn("[REC] indicator hide failed", zap.Error(err))
		}
	}

	if len(actions) == 0 {
		s.log.Info("[REC] stop: nothing recorded", zap.String("type", string(t)), zap.String("session", id))
		return nil, nil
	}

	m := models.Macro{Type: t, Actions: actions}
	if err := s.sink.SaveMacro(ctx, m); err != nil {
		return nil, fmt.Errorf("recorder.Stop: save %s: %w", t, err)
	}
	if s.out != nil {
		s.out.Publish(models.OutboundMessage{Action: models.MsgMacroRecorded, MacroType: t, Actions: actions})
	}
	s.log.Info("[REC] saved", zap.String("type", string(t)), zap.Int("actions", len(actions)), zap.String("session", id))
	return &m, nil
}

func (s *Session) onEvent(ev dom.Event) {
	if ev.Target == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return
	}

	switch ev.Type {
	case dom.EventInput:
		s.pending = &ev
		s.gen++
		gen := s.gen
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.opts.Debounce, func() { s.settle(gen) })
		return
	}

	// порядок действий сохраняем: отложенный ввод — раньше следующего события
	s.flushLocked()

	switch ev.Type {
	case dom.EventClick:
		fp := fingerprint.ExtractClick(s.page, ev.Target)
		s.appendLocked(models.MacroAction{Type: models.ActionClick, Fingerprint: fp})
		s.log.Debug("[REC] click", zap.String("role", string(fp.Role)), zap.String("selector", fp.Locator))

	case dom.EventChange:
		fp := fingerprint.Extract(s.page, ev.Target)
		s.appendLocked(models.MacroAction{Type: models.ActionChange, Fingerprint: fp, Value: eventValue(ev)})

	case dom.EventKeydown:
		if !RecordedKeys[ev.Key] {
			return
		}
		fp := fingerprint.Extract(s.page, ev.Target)
		s.appendLocked(models.MacroAction{Type: models.ActionKeydown, Fingerprint: fp, Key: ev.Key})
	}
}

func (s *Session) settle(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed || gen != s.gen {
		return
	}
	s.flushLocked()
}

func (s *Session) flushLocked() {
	ev := s.pending
	if ev == nil {
		return
	}
	s.pending = nil
	s.gen++

	value := eventValue(*ev)
	fp := fingerprint.Extract(s.page, ev.Target)
	if fingerprint.IsAmountField(ev.Target, value) {
		s.upsertLocked(models.MacroAction{Type: models.ActionAmountField, Fingerprint: fp})
		s.log.Debug("[REC] amount field", zap.String("selector", fp.Locator))
		return
	}
	s.upsertLocked(models.MacroAction{Type: models.ActionInput, Fingerprint: fp, Value: value})
}

func (s *Session) elapsedLocked() int64 {
	return s.opts.Now().Sub(s.startedAt).Milliseconds()
}

func (s *Session) appendLocked(a models.MacroAction) {
	a.Timestamp = s.elapsedLocked()
	s.actions = append(s.actions, a)
}

// upsertLocked: один шаг того же типа на локатор, последнее значение побеждает.
// Место и timestamp первого вхождения сохраняются.
func (s *Session) upsertLocked(a models.MacroAction) {
	for i := range s.actions {
		cur := &s.actions[i]
		if cur.Type == a.Type && cur.Fingerprint.Locator == a.Fingerprint.Locator {
			a.Timestamp = cur.Timestamp
			*cur = a
			return
		}
	}
	s.appendLocked(a)
}

func eventValue(ev dom.Event) string {
	if ev.Value != "" {
		return ev.Value
	}
	return ev.Target.Value()
}
