// Package service — HTTP-граница хоста: сообщения popup/расширения,
// управление макросами и чтение исходящих событий.
package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/recorder"
	"macro_trader/internal/runner"
)

// Trader: исполнение макросов.
type Trader interface {
	ExecuteTrade(ctx context.Context, t models.MacroType, amount string) (runner.Report, error)
	PlayMacro(ctx context.Context, t models.MacroType, amount string) (runner.Report, error)
	Lock() *runner.TradeLock
	State() *runner.State
}

type Recorder interface {
	Start(t models.MacroType) error
	Stop(ctx context.Context) (*models.Macro, error)
	Armed() (models.MacroType, bool)
}

type Selector interface {
	Start(onSelect func(recorder.Selected))
	Stop()
	Active() bool
}

type Store interface {
	LoadAll(ctx context.Context) (map[models.MacroType]models.Macro, error)
	SaveSetting(ctx context.Context, key, value string) error
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, raw []byte) (store.Bundle, error)
	Reset(ctx context.Context) error
}

// Market: чтение баланса и цены со страницы.
type Market interface {
	Balance(ctx context.Context) (float64, error)
	Price(ctx context.Context) (float64, error)
}

type Events interface {
	Since(after int64) []models.OutboundMessage
}

// PageInfo: адрес вкладки.
type PageInfo interface {
	URL() string
}

type Deps struct {
	Trader   Trader
	Recorder Recorder
	Selector Selector
	Store    Store
	Market   Market
	Events   Events
	Page     PageInfo
}

type API struct {
	Deps
	log *zap.Logger

	router *chi.Mux
	bg     context.Context
	wg     sync.WaitGroup
}

// New: bg живёт дольше запросов: фоновые playMacro работают до его отмены.
func New(bg context.Context, d Deps, log *zap.Logger) *API {
	a := &API{Deps: d, log: log, router: chi.NewRouter(), bg: bg}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *API) Handler() http.Handler { return a.router }

// Wait: дождаться фоновых проигрываний.
func (a *API) Wait() { a.wg.Wait() }

func (a *API) setupMiddleware() {
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.RequestID)
	a.router.Use(a.loggingMiddleware)
	// popup расширения ходит с chrome-extension:// origin
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (a *API) setupRoutes() {
	a.router.Post("/message", a.handleMessage)

	a.router.Get("/macros", a.handleMacros)
	a.router.Get("/export", a.handleExport)
	a.router.Post("/import", a.handleImport)
	a.router.Post("/reset", a.handleReset)

	a.router.Get("/state", a.handleState)
	a.router.Get("/events", a.handleEvents)
}

func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		a.log.Debug("[API] request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(data); err != nil {
		a.log.Error("[API] encode response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, Response{Success: false, Error: err.Error()})
}
