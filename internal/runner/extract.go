package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/helper"
	store "macro_trader/internal/modules/macro_store/service"
)

// Pages: доступ к текущему документу торговой страницы.
// Каждый вызов отдаёт свежее состояние DOM.
type Pages interface {
	Document(ctx context.Context) (dom.Document, error)
}

// PriceFeed: внешний источник цены (OKX tickers). Ok=false — цены ещё нет.
type PriceFeed interface {
	Last() (float64, bool)
}

// SettingsReader: сохранённые селекторы баланса и цены.
type SettingsReader interface {
	LoadSetting(ctx context.Context, key string) (string, error)
}

// Extractor читает баланс и цену со страницы через выбранные пользователем селекторы.
type Extractor struct {
	pages    Pages
	settings SettingsReader
	feed     PriceFeed // nil — только DOM
	log      *zap.Logger
}

func NewExtractor(pages Pages, settings SettingsReader, feed PriceFeed, log *zap.Logger) *Extractor {
	return &Extractor{pages: pages, settings: settings, feed: feed, log: log}
}

// Balance: доступные активы.
func (x *Extractor) Balance(ctx context.Context) (float64, error) {
	return x.read(ctx, store.KeyBalanceSelector)
}

// Price: текущая цена: фид, если он есть и уже получил тик, иначе DOM.
func (x *Extractor) Price(ctx context.Context) (float64, error) {
	if x.feed != nil {
		if px, ok := x.feed.Last(); ok && px > 0 {
			return px, nil
		}
	}
	return x.read(ctx, store.KeyPriceSelector)
}

// Text: сырой текст по селектору (для DEBUG).
func (x *Extractor) Text(ctx context.Context, key string) (string, error) {
	selector, err := x.settings.LoadSetting(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not selected", ErrAmountNotComputable, key)
		}
		return "", err
	}
	if strings.TrimSpace(selector) == "" {
		return "", fmt.Errorf("%w: %s not selected", ErrAmountNotComputable, key)
	}

	doc, err := x.pages.Document(ctx)
	if err != nil {
		return "", err
	}
	el, err := doc.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", key, err)
	}
	if el == nil {
		return "", fmt.Errorf("%w: %s %q matches nothing", ErrAmountNotComputable, key, selector)
	}
	return strings.TrimSpace(el.Text()), nil
}

func (x *Extractor) read(ctx context.Context, key string) (float64, error) {
	text, err := x.Text(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := helper.ParseNumber(text)
	if err != nil {
		x.log.Warn("[EXTRACT] not a number", zap.String("key", key), zap.String("text", text))
		return 0, fmt.Errorf("%w: %v", ErrAmountNotComputable, err)
	}
	return v, nil
}
