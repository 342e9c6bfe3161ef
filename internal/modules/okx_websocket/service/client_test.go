package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macro_trader/internal/modules/config"
)

type status struct {
	mu        sync.Mutex
	connected bool
	ticks     int
}

func (s *status) SetWSConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *status) TouchTick(time.Time) {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

func (s *status) get() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected, s.ticks
}

func TestGetTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/ticker", r.URL.Path)
		assert.Equal(t, "BTC-USDT-SWAP", r.URL.Query().Get("instId"))
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[{"instId":"BTC-USDT-SWAP","last":"64250.5","ts":"1700000000000"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.PriceConfig{RestURL: srv.URL}, nil, zap.NewNop())
	px, err := c.GetTicker(context.Background(), "BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, 64250.5, px)
}

func TestGetTickerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(config.PriceConfig{RestURL: srv.URL}, nil, zap.NewNop())
	_, err := c.GetTicker(context.Background(), "NOPE")
	assert.ErrorContains(t, err, "51001")
}

func TestStreamTicker(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub struct {
			Op   string              `json:"op"`
			Args []map[string]string `json:"args"`
		}
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		assert.Equal(t, "subscribe", sub.Op)
		assert.Equal(t, "tickers", sub.Args[0]["channel"])

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"subscribe","arg":{"channel":"tickers","instId":"ETH-USDT-SWAP"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"arg":{"channel":"tickers","instId":"BTC-USDT-SWAP"},"data":[{"instId":"BTC-USDT-SWAP","last":"1"}]}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"arg":{"channel":"tickers","instId":"ETH-USDT-SWAP"},"data":[{"instId":"ETH-USDT-SWAP","last":"3120.25","ts":"1700000000000"}]}`))

		// держим соединение до закрытия клиентом
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	st := &status{}
	c := NewClient(config.PriceConfig{
		InstID: "ETH-USDT-SWAP",
		WSURL:  "ws" + strings.TrimPrefix(srv.URL, "http"),
	}, st, zap.NewNop())

	_, ok := c.Last()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.StreamTicker(ctx, "ETH-USDT-SWAP")
		close(done)
	}()

	require.Eventually(t, func() bool {
		px, ok := c.Last()
		return ok && px == 3120.25
	}, 2*time.Second, 10*time.Millisecond)

	connected, ticks := st.get()
	assert.True(t, connected)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, time.UnixMilli(1700000000000), c.UpdatedAt())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}
