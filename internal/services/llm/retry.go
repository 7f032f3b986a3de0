package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"lectern/internal/logging"
)

// retryPolicy is an exponential backoff that honours a server supplied
// Retry-After for the next wait only.
type retryPolicy struct {
	inner    *backoff.ExponentialBackOff
	maxDelay time.Duration
	hint     time.Duration
}

func (p *retryPolicy) NextBackOff() time.Duration {
	if p.hint > 0 {
		d := p.hint
		p.hint = 0
		if p.maxDelay > 0 && d > p.maxDelay {
			d = p.maxDelay
		}
		return d
	}
	return p.inner.NextBackOff()
}

func (p *retryPolicy) Reset() {
	p.hint = 0
	p.inner.Reset()
}

func (c *Client) newRetryPolicy() *retryPolicy {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = max(c.retryBaseDelay, 0)
	exp.MaxInterval = c.retryMaxDelay
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = defaultRetryMaxDelay
	}
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	return &retryPolicy{inner: exp, maxDelay: exp.MaxInterval}
}

// sleeperTimer adapts a plain sleep function to backoff.Timer.
type sleeperTimer struct {
	sleep func(time.Duration)
	c     chan time.Time
}

func (t *sleeperTimer) Start(d time.Duration) {
	t.sleep(d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *sleeperTimer) Stop() {}

func (t *sleeperTimer) C() <-chan time.Time { return t.c }

func (c *Client) completionContentWithRetry(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	policy := c.newRetryPolicy()
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	var (
		content string
		tries   int
	)
	operation := func() error {
		tries++
		out, err := c.completeOnce(ctx, payload, op)
		if err == nil {
			content = out
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
			policy.hint = statusErr.RetryAfter
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("llm request failed; retrying",
			logging.String("operation", op),
			logging.Int("attempt", tries),
			logging.Duration("wait", wait),
			logging.Error(err),
		)
	}

	var timer backoff.Timer
	if c.sleeper != nil {
		timer = &sleeperTimer{sleep: c.sleeper}
	}
	err := backoff.RetryNotifyWithTimer(operation, b, notify, timer)
	if err == nil {
		return content, nil
	}
	if tries > 1 {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, tries, err)
	}
	return "", err
}

// retryable reports whether err is worth another attempt: rate limiting,
// server errors, empty completions and network timeouts.
func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return true
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
