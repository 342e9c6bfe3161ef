package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
)

// Evaluator: выполнение JS во вкладке; результат — сырой JSON.
type Evaluator interface {
	Eval(ctx context.Context, expr string) ([]byte, error)
}

type queuedEvent struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type listener struct {
	types map[string]bool
	fn    func(dom.Event)
}

// Page: живая вкладка как dom.Page. Элементы живут между снапшотами:
// один и тот же путь всегда даёт один и тот же *Element.
type Page struct {
	ev      Evaluator
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	snap   *snapshot
	byPath map[string]*Element
	byNode map[*htmldom.Element]*Element

	lmu       sync.Mutex
	listeners map[int]*listener
	nextID    int
}

func NewPage(ev Evaluator, timeout time.Duration, log *zap.Logger) *Page {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Page{
		ev:        ev,
		timeout:   timeout,
		log:       log,
		byPath:    map[string]*Element{},
		byNode:    map[*htmldom.Element]*Element{},
		listeners: map[int]*listener{},
	}
	p.apply(emptySnapshot())
	return p
}

// Document: свежий снапшот вкладки.
func (p *Page) Document(ctx context.Context) (dom.Document, error) {
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh перечитывает разметку страницы.
func (p *Page) Refresh(ctx context.Context) error {
	raw, err := p.ev.Eval(ctx, snapshotScript)
	if err != nil {
		return fmt.Errorf("page.Refresh: %w", err)
	}
	snap, err := parseSnapshot(raw)
	if err != nil {
		return err
	}
	p.apply(snap)
	return nil
}

func (p *Page) apply(snap *snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byPath := make(map[string]*Element, len(snap.paths))
	byNode := make(map[*htmldom.Element]*Element, len(snap.paths))
	for path, node := range snap.paths {
		el, ok := p.byPath[path]
		if !ok {
			el = &Element{page: p, path: path}
		}
		el.node = node
		byPath[path] = el
		byNode[node] = el
	}
	// пропавшие элементы остаются на старом узле, действия над ними вернут ErrDetached
	p.snap, p.byPath, p.byNode = snap, byPath, byNode
}

// URL: адрес последнего снапшота.
func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.url
}

func (p *Page) wrapLocked(nodes []*htmldom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := p.byNode[n]; ok {
			out = append(out, el)
		}
	}
	return out
}

func (p *Page) wrapOne(n dom.Element) dom.Element {
	hn, ok := n.(*htmldom.Element)
	if !ok || hn == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if el, ok := p.byNode[hn]; ok {
		return el
	}
	return nil
}

func (p *Page) QuerySelectorAll(selector string) ([]dom.Element, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	nodes, err := p.snap.doc.Select(selector)
	if err != nil {
		return nil, err
	}
	return p.wrapLocked(nodes), nil
}

func (p *Page) QuerySelector(selector string) (dom.Element, error) {
	list, err := p.QuerySelectorAll(selector)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// Listen: события вкладки приходят через Poll.
func (p *Page) Listen(types []string, fn func(dom.Event)) func() {
	l := &listener{types: make(map[string]bool, len(types)), fn: fn}
	for _, t := range types {
		l.types[t] = true
	}
	p.lmu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.lmu.Unlock()

	return func() {
		p.lmu.Lock()
		delete(p.listeners, id)
		p.lmu.Unlock()
	}
}

func (p *Page) subscribers(typ string) []func(dom.Event) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	var fns []func(dom.Event)
	for id := 0; id < p.nextID; id++ {
		if l, ok := p.listeners[id]; ok && l.types[typ] {
			fns = append(fns, l.fn)
		}
	}
	return fns
}

func (p *Page) hasListeners() bool {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	return len(p.listeners) > 0
}

// Poll забирает очередь событий страницы каждые interval, пока жив ctx.
func (p *Page) Poll(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.PollOnce(ctx); err != nil {
				p.log.Debug("[PAGE] poll failed", zap.Error(err))
			}
		}
	}
}

// PollOnce: один цикл: очередь -> снапшот -> подписчики.
func (p *Page) PollOnce(ctx context.Context) error {
	raw, err := p.ev.Eval(ctx, drainScript)
	if err != nil {
		return err
	}
	var events []queuedEvent
	if err := sonic.Unmarshal(raw, &events); err != nil {
		return fmt.Errorf("page.PollOnce: %w", err)
	}
	if len(events) == 0 || !p.hasListeners() {
		return nil
	}
	if err := p.Refresh(ctx); err != nil {
		return err
	}

	for _, qe := range events {
		p.mu.RLock()
		target, ok := p.byPath[qe.Path]
		p.mu.RUnlock()
		if !ok {
			p.log.Debug("[PAGE] event target gone", zap.String("type", qe.Type), zap.String("path", qe.Path))
			continue
		}
		ev := dom.Event{Type: qe.Type, Target: target, Key: qe.Key, Value: qe.Value, Bubbles: true}
		for _, fn := range p.subscribers(qe.Type) {
			fn(ev)
		}
	}
	return nil
}

func (p *Page) act(path, op, arg, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	raw, err := p.ev.Eval(ctx, actScript(path, op, arg, key))
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, path, err)
	}
	var ok bool
	if err := sonic.Unmarshal(raw, &ok); err != nil || !ok {
		return fmt.Errorf("%s %q: %w", op, path, dom.ErrDetached)
	}
	return nil
}

// Element: узел живой вкладки. Чтение — из последнего снапшота, действия — во вкладку.
type Element struct {
	page *Page
	path string
	node *htmldom.Element
}

func (e *Element) n() *htmldom.Element {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	return e.node
}

// Path: абсолютный селектор элемента во вкладке.
func (e *Element) Path() string { return e.path }

func (e *Element) TagName() string         { return e.n().TagName() }
func (e *Element) ID() string              { return e.n().ID() }
func (e *Element) ClassName() string       { return e.n().ClassName() }
func (e *Element) ClassList() []string     { return e.n().ClassList() }
func (e *Element) Attr(name string) string { return e.n().Attr(name) }
func (e *Element) Text() string            { return e.n().Text() }
func (e *Element) Value() string           { return e.n().Value() }
func (e *Element) BoundingRect() dom.Rect  { return e.n().BoundingRect() }

func (e *Element) Parent() dom.Element {
	parent := e.n().Parent()
	if parent == nil {
		return nil
	}
	return e.page.wrapOne(parent)
}

func (e *Element) Children() []dom.Element {
	kids := e.n().Children()
	out := make([]dom.Element, 0, len(kids))
	for _, k := range kids {
		if el := e.page.wrapOne(k); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func (e *Element) Focus() error { return e.page.act(e.path, "focus", "", "") }

func (e *Element) SetValue(v string) error {
	if err := e.page.act(e.path, "setValue", v, ""); err != nil {
		return err
	}
	e.n().SetLiveValue(v)
	return nil
}

func (e *Element) Click() error { return e.page.act(e.path, "click", "", "") }

func (e *Element) Dispatch(ev dom.Event) error {
	return e.page.act(e.path, "dispatch", ev.Type, ev.Key)
}

var (
	_ dom.Page    = (*Page)(nil)
	_ dom.Element = (*Element)(nil)
)
