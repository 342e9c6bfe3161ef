// Package dom описывает минимальные возможности страницы, которые нужны
// записи и воспроизведению макросов: чтение элемента, поиск по CSS и
// отправка событий. Реализации: htmldom (разобранный HTML) и живая
// страница chromedp поверх него.
package dom

import "errors"

// ErrDetached: элемент больше не принадлежит странице.
var ErrDetached = errors.New("dom: element detached")

// Rect: getBoundingClientRect(): left/top/width/height во вьюпорте.
type Rect struct {
	Left, Top, Width, Height float64
}

// Center: центр прямоугольника.
func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Element: то, что нужно ядру от DOM-узла.
type Element interface {
	TagName() string // lower case
	ID() string
	ClassName() string // сырое значение class
	ClassList() []string
	Attr(name string) string
	Text() string // textContent
	Value() string
	Parent() Element // nil у корня
	Children() []Element
	BoundingRect() Rect

	Focus() error
	SetValue(v string) error
	Click() error
	Dispatch(ev Event) error
}

// Document: поиск элементов. Синтаксически неверный селектор -> ошибка.
type Document interface {
	QuerySelectorAll(selector string) ([]Element, error)
	QuerySelector(selector string) (Element, error)
}

// EventSource: подписка на события документа (capture-фаза).
// cancel снимает все обработчики разом.
type EventSource interface {
	Listen(types []string, fn func(Event)) (cancel func())
}

// Page: документ, который умеет отдавать события.
type Page interface {
	Document
	EventSource
}
