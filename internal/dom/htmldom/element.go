package htmldom

import (
	"strings"
	"sync"

	"golang.org/x/net/html"

	"macro_trader/internal/dom"
)

// Element: узел документа с "живым" состоянием: значение, фокус, раскладка.
type Element struct {
	doc   *Document
	node  *html.Node
	index int

	mu      sync.Mutex
	rect    dom.Rect
	value   *string
	focused bool
	log     []string
}

// Index: позиция в порядке документа.
func (e *Element) Index() int { return e.index }

func (e *Element) TagName() string { return strings.ToLower(e.node.Data) }

func (e *Element) ID() string { return e.Attr("id") }

func (e *Element) ClassName() string { return e.Attr("class") }

// ClassList делит class только по ASCII-пробелам, как браузер и cascadia.
func (e *Element) ClassList() []string { return strings.FieldsFunc(e.ClassName(), isHTMLSpace) }

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func (e *Element) Attr(name string) string {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.node, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func (e *Element) Value() string {
	e.mu.Lock()
	v := e.value
	e.mu.Unlock()
	if v != nil {
		return *v
	}

	switch e.TagName() {
	case "textarea":
		return e.Text()
	case "select":
		var first *Element
		for _, opt := range e.options() {
			if first == nil {
				first = opt
			}
			if _, ok := opt.attr("selected"); ok {
				return opt.optionValue()
			}
		}
		if first != nil {
			return first.optionValue()
		}
		return ""
	}
	return e.Attr("value")
}

func (e *Element) attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) optionValue() string {
	if v, ok := e.attr("value"); ok {
		return v
	}
	return strings.TrimSpace(e.Text())
}

func (e *Element) options() []*Element {
	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				out = append(out, e.doc.nodes[c])
			}
			walk(c)
		}
	}
	walk(e.node)
	return out
}

func (e *Element) Parent() dom.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	if el, ok := e.doc.nodes[p]; ok {
		return el
	}
	return nil
}

func (e *Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if el, ok := e.doc.nodes[c]; ok {
			out = append(out, el)
		}
	}
	return out
}

func (e *Element) BoundingRect() dom.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rect
}

// SetRect: раскладка из снапшота страницы или теста.
func (e *Element) SetRect(r dom.Rect) *Element {
	e.mu.Lock()
	e.rect = r
	e.mu.Unlock()
	return e
}

// SetLiveValue: текущее значение поля без записи в журнал действий.
func (e *Element) SetLiveValue(v string) *Element {
	e.mu.Lock()
	e.value = &v
	e.mu.Unlock()
	return e
}

func (e *Element) Focus() error {
	e.mu.Lock()
	e.focused = true
	e.log = append(e.log, "focus")
	e.mu.Unlock()
	return nil
}

func (e *Element) Focused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

func (e *Element) SetValue(v string) error {
	e.mu.Lock()
	e.value = &v
	e.log = append(e.log, "value="+v)
	e.mu.Unlock()
	return nil
}

func (e *Element) Click() error {
	e.mu.Lock()
	e.log = append(e.log, "click")
	e.mu.Unlock()
	return nil
}

func (e *Element) Dispatch(ev dom.Event) error {
	entry := ev.Type
	if ev.Key != "" {
		entry += ":" + ev.Key
	}
	e.mu.Lock()
	e.log = append(e.log, entry)
	e.mu.Unlock()
	return nil
}

// Log: журнал действий над элементом: "focus", "value=..", "click", "input", "keydown:Enter".
func (e *Element) Log() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.log))
	copy(out, e.log)
	return out
}
