// Package discord posts embeds to a Discord webhook with rate limiting and
// bounded retries. Delivery is best-effort: a payload that cannot be
// delivered within the retry budget is dropped and reported, never queued.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	logx "finbeat/pkg/logx"
)

type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type payload struct {
	Embeds []Embed `json:"embeds"`
}

type Config struct {
	WebhookURL string
	RatePerSec int
	RetryMax   int
	Timeout    time.Duration
}

type Client struct {
	url      string
	http     *http.Client
	limiter  *rate.Limiter
	retryMax int
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		url:  cfg.WebhookURL,
		http: &http.Client{Timeout: cfg.Timeout},
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		retryMax: cfg.RetryMax,
		log:      log,
	}
}

// networkRetryDelay is the pause after a transport-level failure before the
// same payload is retried.
const networkRetryDelay = 2 * time.Second

// Post delivers one embed. A 429 pauses for the server-provided wait and
// retries the same payload; transport errors retry after a short delay;
// any other non-2xx status is abandoned immediately. Context cancellation
// aborts waits promptly.
func (c *Client) Post(ctx context.Context, embed Embed) error {
	body, err := json.Marshal(payload{Embeds: []Embed{embed}})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.retryMax; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("webhook request failed", logx.Int("attempt", attempt+1), logx.Err(err))
			if err := sleepCtx(ctx, networkRetryDelay); err != nil {
				return err
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			drain(resp)
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			drain(resp)
			lastErr = fmt.Errorf("rate limited (429), waited %s", wait)
			c.log.Warn("webhook rate limited", logx.Duration("retry_after", wait))
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			drain(resp)
			return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(b))
		}
	}
	return fmt.Errorf("webhook delivery abandoned after %d attempts: %w", c.retryMax, lastErr)
}

// retryAfter reads the server-provided wait: the JSON body's retry_after
// seconds, else the Retry-After header, else a 5s default.
func retryAfter(resp *http.Response) time.Duration {
	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(b, &body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if d, err := time.ParseDuration(s + "s"); err == nil && d > 0 {
			return d
		}
	}
	return 5 * time.Second
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
