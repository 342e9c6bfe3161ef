package replay

import (
	"strings"
	"sync"
	"time"

	"macro_trader/internal/dom"
)

// TradingAreaSelectors: где обычно лежит форма ордера; первое совпадение.
var TradingAreaSelectors = []string{
	`[class*="trading"]`, `[class*="order"]`, `[class*="trade"]`,
	`[id*="trading"]`, `[id*="order"]`,
}

const fallbackButtonSelector = `button, [role="button"], .btn, div[class*="button"]`

var (
	longWords   = []string{"long", "buy", "매수", "롱"}
	shortWords  = []string{"short", "sell", "매도", "숏"}
	marketWords = []string{"market", "시장가"}

	fallbackAmountWords  = []string{"amount", "quantity", "qty", "size", "volume", "수량", "금액"}
	fallbackExcludeWords = []string{"leverage", "price", "stop", "limit", "percent", "%", "레버리지", "가격"}
)

const DefaultDetectorCache = 5 * time.Second

// TradingElements: кнопки и поле количества, найденные без макроса.
type TradingElements struct {
	Long   dom.Element
	Short  dom.Element
	Market dom.Element
	Amount dom.Element
}

// Button: кнопка нужной стороны.
func (t TradingElements) Button(short bool) dom.Element {
	if short {
		return t.Short
	}
	return t.Long
}

// Detector: поиск торговых элементов по словарю, с коротким кэшем на документ.
type Detector struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	doc    dom.Document
	at     time.Time
	cached TradingElements
}

func NewDetector(ttl time.Duration, now func() time.Time) *Detector {
	if ttl <= 0 {
		ttl = DefaultDetectorCache
	}
	if now == nil {
		now = time.Now
	}
	return &Detector{ttl: ttl, now: now}
}

func (d *Detector) Find(doc dom.Document) TradingElements {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.doc == doc && now.Sub(d.at) < d.ttl {
		return d.cached
	}
	d.cached = scan(doc)
	d.doc = doc
	d.at = now
	return d.cached
}

// Reset сбрасывает кэш.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.doc = nil
	d.mu.Unlock()
}

func scan(doc dom.Document) TradingElements {
	area := tradingArea(doc)

	buttons := within(doc, fallbackButtonSelector, area)
	inputs := within(doc, "input", area)

	return TradingElements{
		Long:   findByWords(buttons, longWords),
		Short:  findByWords(buttons, shortWords),
		Market: findByWords(buttons, marketWords),
		Amount: findAmountInput(inputs),
	}
}

func tradingArea(doc dom.Document) dom.Element {
	for _, sel := range TradingAreaSelectors {
		if el, err := doc.QuerySelector(sel); err == nil && el != nil {
			return el
		}
	}
	return nil
}

// within: совпадения селектора внутри area (nil — весь документ).
func within(doc dom.Document, selector string, area dom.Element) []dom.Element {
	all, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	if area == nil {
		return all
	}
	var out []dom.Element
	for _, el := range all {
		if isDescendant(el, area) {
			out = append(out, el)
		}
	}
	return out
}

func isDescendant(el, ancestor dom.Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

func findByWords(els []dom.Element, words []string) dom.Element {
	for _, el := range els {
		all := strings.ToLower(el.Text() + " " + el.ID() + " " + el.ClassName())
		for _, w := range words {
			if strings.Contains(all, w) {
				return el
			}
		}
	}
	return nil
}

func findAmountInput(inputs []dom.Element) dom.Element {
next:
	for _, in := range inputs {
		ctx := strings.ToLower(strings.Join([]string{in.ID(), in.ClassName(), in.Attr("name"), in.Attr("placeholder")}, " "))
		for _, w := range fallbackExcludeWords {
			if strings.Contains(ctx, w) {
				continue next
			}
		}
		for _, w := range fallbackAmountWords {
			if strings.Contains(ctx, w) {
				return in
			}
		}
	}
	return nil
}
