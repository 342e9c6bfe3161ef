// Package signal разбирает текстовые сигналы из чата: "BTC LONG", "SELL ETH",
// "BTC: SHORT", "LONG: BTC", с необязательным эмодзи впереди.
package signal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"macro_trader/internal/models"
)

var (
	ErrNoSymbol        = errors.New("signal has no symbol")
	ErrUnsupportedSide = errors.New("unsupported action")
	ErrSymbolMismatch  = errors.New("symbol does not match trigger")
	ErrNoTrigger       = errors.New("trigger symbol not configured")
)

const actionRe = `(?i:(LONG|SHORT|BUY|SELL))`

type pattern struct {
	re          *regexp.Regexp
	symbolFirst bool
}

var patterns = []pattern{
	{regexp.MustCompile(`^(\w+)\s+` + actionRe + `$`), true},
	{regexp.MustCompile(`^` + actionRe + `\s+(\w+)$`), false},
	{regexp.MustCompile(`^(\w+):\s*` + actionRe + `$`), true},
	{regexp.MustCompile(`^` + actionRe + `:\s*(\w+)$`), false},
}

// направления в начале сообщения
var leadingEmoji = map[rune]bool{
	'📈': true, '📉': true, '🟢': true, '🔴': true, '⬆': true, '⬇': true, '\uFE0F': true,
}

// Parser: разбор и проверка сигнала против настроенного символа.
type Parser struct {
	trigger string
	now     func() time.Time
}

func NewParser(trigger string) *Parser {
	return &Parser{trigger: strings.TrimSpace(trigger), now: time.Now}
}

func (p *Parser) Trigger() string { return p.trigger }

// Parse: ok=false, если сообщение не похоже на сигнал.
// Действие без учёта регистра, символ как есть.
func (p *Parser) Parse(text string) (models.Signal, bool) {
	clean := strings.TrimLeftFunc(strings.TrimSpace(text), func(r rune) bool {
		return leadingEmoji[r] || unicode.IsSpace(r)
	})

	for _, pt := range patterns {
		m := pt.re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		symbol, action := m[1], m[2]
		if !pt.symbolFirst {
			symbol, action = m[2], m[1]
		}
		return models.Signal{
			Original: text,
			Symbol:   symbol,
			Side:     normalize(action),
			At:       p.now(),
		}, true
	}
	return models.Signal{}, false
}

func normalize(action string) models.Side {
	switch strings.ToUpper(action) {
	case "LONG", "BUY":
		return models.SideLong
	case "SHORT", "SELL":
		return models.SideShort
	}
	return models.SideNone
}

// Validate: сигнал годится для входа: есть символ, LONG/SHORT и точное совпадение с trigger.
func (p *Parser) Validate(sig models.Signal) error {
	if sig.Symbol == "" {
		return ErrNoSymbol
	}
	if sig.Side != models.SideLong && sig.Side != models.SideShort {
		return ErrUnsupportedSide
	}
	if p.trigger == "" {
		return ErrNoTrigger
	}
	if sig.Symbol != p.trigger {
		return fmt.Errorf("%w: want %s, got %s", ErrSymbolMismatch, p.trigger, sig.Symbol)
	}
	return nil
}
