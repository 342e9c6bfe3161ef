package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
)

type tickerRow struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	Ts     string `json:"ts"`
}

// GetTicker: GET /api/v5/market/ticker, поле last.
func (c *Client) GetTicker(ctx context.Context, instID string) (float64, error) {
	u := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", c.cfg.RestURL, url.QueryEscape(instID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("okx ticker http %d: %s", resp.StatusCode, string(b))
	}

	var wrap struct {
		Code string      `json:"code"`
		Msg  string      `json:"msg"`
		Data []tickerRow `json:"data"`
	}
	if err := sonic.Unmarshal(b, &wrap); err != nil {
		return 0, err
	}
	if wrap.Code != "0" || len(wrap.Data) == 0 {
		return 0, fmt.Errorf("okx ticker: code=%s msg=%s", wrap.Code, wrap.Msg)
	}

	px, err := strconv.ParseFloat(wrap.Data[0].Last, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("okx ticker: bad last %q", wrap.Data[0].Last)
	}
	return px, nil
}
