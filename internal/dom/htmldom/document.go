// Package htmldom — dom.Document поверх golang.org/x/net/html с CSS-селекторами cascadia.
// Раскладки нет: BoundingRect берётся из оверлея (SetRect), который выставляет
// снапшот живой страницы или тест.
package htmldom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"macro_trader/internal/dom"
)

type listener struct {
	types map[string]bool
	fn    func(dom.Event)
}

// Document: разобранный HTML-документ.
type Document struct {
	root  *html.Node
	nodes map[*html.Node]*Element
	order []*Element

	mu        sync.Mutex
	listeners map[int]*listener
	nextID    int
}

// Parse разбирает HTML целиком.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom.Parse: %w", err)
	}
	d := &Document{
		root:      root,
		nodes:     make(map[*html.Node]*Element),
		listeners: make(map[int]*listener),
	}
	d.index(root)
	return d, nil
}

func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

// MustParse: для тестов и фикстур.
func MustParse(s string) *Document {
	d, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		el := &Element{doc: d, node: n, index: len(d.order)}
		d.nodes[n] = el
		d.order = append(d.order, el)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

// Elements: все элементы в порядке документа (как querySelectorAll('*')).
func (d *Document) Elements() []*Element { return d.order }

func (d *Document) wrap(nodes []*html.Node) []dom.Element {
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := d.nodes[n]; ok {
			out = append(out, el)
		}
	}
	return out
}

// Select: как QuerySelectorAll, но с конкретным типом.
func (d *Document) Select(selector string) ([]*Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	nodes := sel.MatchAll(d.root)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := d.nodes[n]; ok {
			out = append(out, el)
		}
	}
	return out, nil
}

func (d *Document) QuerySelectorAll(selector string) ([]dom.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return d.wrap(sel.MatchAll(d.root)), nil
}

func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	n := sel.MatchFirst(d.root)
	if n == nil {
		return nil, nil
	}
	el, ok := d.nodes[n]
	if !ok {
		return nil, nil
	}
	return el, nil
}

// Find: первый элемент по селектору или nil (ошибки селектора глотаются).
func (d *Document) Find(selector string) *Element {
	list, err := d.Select(selector)
	if err != nil || len(list) == 0 {
		return nil
	}
	return list[0]
}

// MustFind: для тестов.
func (d *Document) MustFind(selector string) *Element {
	el := d.Find(selector)
	if el == nil {
		panic("htmldom: nothing matches " + selector)
	}
	return el
}

// Listen: подписка на события, которые документ получит через Fire.
func (d *Document) Listen(types []string, fn func(dom.Event)) func() {
	l := &listener{types: make(map[string]bool, len(types)), fn: fn}
	for _, t := range types {
		l.types[t] = true
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Fire доставляет событие подписчикам (эмуляция пользовательского ввода).
func (d *Document) Fire(ev dom.Event) {
	d.mu.Lock()
	var fns []func(dom.Event)
	for id := 0; id < d.nextID; id++ {
		if l, ok := d.listeners[id]; ok && l.types[ev.Type] {
			fns = append(fns, l.fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Listeners: сколько подписок активно.
func (d *Document) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Path: абсолютный селектор по nth-child от <html>; однозначно задаёт элемент.
func Path(el *Element) string {
	var parts []string
	for n := el.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.Parent == nil || n.Parent.Type != html.ElementNode {
			parts = append(parts, n.Data)
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", n.Data, childIndex(n)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func childIndex(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

var (
	_ dom.Page    = (*Document)(nil)
	_ dom.Element = (*Element)(nil)
)
