// Package service — последняя цена инструмента с OKX: REST-снимок на старте,
// дальше канал tickers по WebSocket.
package service

import (
	"context"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"macro_trader/internal/modules/config"
)

// StatusSink: куда отдаём состояние соединения (health).
type StatusSink interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Client struct {
	cfg    config.PriceConfig
	status StatusSink
	log    *zap.Logger

	http     *http.Client
	wsDialer *websocket.Dialer

	last    atomic.Uint64 // math.Float64bits
	updated atomic.Int64  // unix ms

	wg sync.WaitGroup
}

func NewClient(cfg config.PriceConfig, status StatusSink, log *zap.Logger) *Client {
	return &Client{
		cfg:      cfg,
		status:   status,
		log:      log,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Last: последняя известная цена; false, пока цены не было.
func (c *Client) Last() (float64, bool) {
	px := math.Float64frombits(c.last.Load())
	return px, px > 0
}

// UpdatedAt: когда цена менялась последний раз.
func (c *Client) UpdatedAt() time.Time {
	ms := c.updated.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (c *Client) setPrice(px float64, at time.Time) {
	if px <= 0 {
		return
	}
	c.last.Store(math.Float64bits(px))
	c.updated.Store(at.UnixMilli())
	if c.status != nil {
		c.status.TouchTick(at)
	}
}

func (c *Client) setConnected(v bool) {
	if c.status != nil {
		c.status.SetWSConnected(v)
	}
}

// Start: снимок цены по REST и стрим в фоне до отмены ctx.
func (c *Client) Start(ctx context.Context) {
	if px, err := c.GetTicker(ctx, c.cfg.InstID); err != nil {
		c.log.Warn("[PRICE] rest ticker failed", zap.String("inst", c.cfg.InstID), zap.Error(err))
	} else {
		c.setPrice(px, time.Now())
		c.log.Info("[PRICE] rest ticker", zap.String("inst", c.cfg.InstID), zap.Float64("last", px))
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.StreamTicker(ctx, c.cfg.InstID)
	}()
}

// Wait: дождаться остановки стрима после отмены ctx.
func (c *Client) Wait() { c.wg.Wait() }
