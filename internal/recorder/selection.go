package recorder

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/locator"
	"macro_trader/internal/models"
)

const maxSelectedText = 100

// Selected: результат выбора элемента.
type Selected struct {
	Selector string
	Text     string
}

// Selection: режим выбора элемента: следующий клик превращается в селектор.
type Selection struct {
	page dom.Page
	out  Publisher
	log  *zap.Logger

	mu       sync.Mutex
	cancel   func()
	onSelect func(Selected)
}

func NewSelection(page dom.Page, out Publisher, log *zap.Logger) *Selection {
	return &Selection{page: page, out: out, log: log}
}

// Start включает режим; повторный Start заменяет обработчик.
func (s *Selection) Start(onSelect func(Selected)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.onSelect = onSelect
	s.cancel = s.page.Listen([]string{dom.EventClick}, s.onClick)
	s.log.Info("[SELECT] start")
}

func (s *Selection) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Selection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Selection) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.log.Info("[SELECT] stop")
}

func (s *Selection) onClick(ev dom.Event) {
	if ev.Target == nil {
		return
	}
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	res := Selected{
		Selector: locator.Generate(s.page, ev.Target),
		Text:     truncate(strings.TrimSpace(ev.Target.Text()), maxSelectedText),
	}
	cb := s.onSelect
	s.stopLocked()
	s.mu.Unlock()

	s.log.Info("[SELECT] selected", zap.String("selector", res.Selector), zap.String("text", res.Text))
	if s.out != nil {
		s.out.Publish(models.OutboundMessage{Action: models.MsgElementSelected, Selector: res.Selector, Text: res.Text})
	}
	if cb != nil {
		cb(res)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
