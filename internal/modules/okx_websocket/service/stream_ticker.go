package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const pingInterval = 20 * time.Second

// StreamTicker: канал tickers по одному инструменту с переподключением.
// Возвращается после отмены ctx.
func (c *Client) StreamTicker(ctx context.Context, instID string) {
	sub := map[string]any{
		"op":   "subscribe",
		"args": []map[string]string{{"channel": "tickers", "instId": instID}},
	}

	for {
		if ctx.Err() != nil {
			return
		}
		c.log.Info("[WS] connect", zap.String("inst", instID))
		conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.WSURL, nil)
		if err != nil {
			c.log.Warn("[WS] dial error", zap.Error(err))
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if err := conn.WriteJSON(sub); err != nil {
			c.log.Warn("[WS] subscribe error", zap.Error(err))
			_ = conn.Close()
			continue
		}
		c.setConnected(true)

		c.readLoop(ctx, conn, instID)

		c.setConnected(false)
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, instID string) {
	done := make(chan struct{})
	defer close(done)

	// keepalive: без ping OKX рвёт соединение через 30s тишины
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				_ = conn.Close()
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn("[WS] read error", zap.Error(err))
			}
			return
		}
		if string(msg) == "pong" {
			continue
		}

		var frame struct {
			Event string `json:"event"`
			Msg   string `json:"msg"`
			Arg   struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data []tickerRow `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Event == "error" {
			c.log.Error("[WS] okx error", zap.String("msg", frame.Msg))
			return
		}
		if frame.Arg.Channel != "tickers" || frame.Arg.InstID != instID {
			continue
		}

		for _, row := range frame.Data {
			px, err := strconv.ParseFloat(row.Last, 64)
			if err != nil || px <= 0 {
				continue
			}
			at := time.Now()
			if ms, err := strconv.ParseInt(row.Ts, 10, 64); err == nil {
				at = time.UnixMilli(ms)
			}
			c.setPrice(px, at)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
