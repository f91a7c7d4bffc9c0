// Package fetch wraps one bounded HTTP call to one upstream endpoint
// with a retry loop: client errors surface immediately, server and
// transport errors back off exponentially until the attempt ceiling.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("yardsearch.lib.fetch")

type ErrorKind string

const (
	KindClient  ErrorKind = "client"
	KindServer  ErrorKind = "server"
	KindTimeout ErrorKind = "timeout"
	KindNetwork ErrorKind = "network"
)

type Error struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s error (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could plausibly succeed.
// A rejected request stays rejected, everything else is transient.
func (e *Error) Retryable() bool {
	return e.Kind != KindClient
}

type Options struct {
	// Timeout bounds the whole call, backoff waits included.
	Timeout time.Duration
	// MaxAttempts counts the first try plus retries.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Cooldown is slept after every terminal outcome to throttle the
	// request rate against a single upstream host. Defaults to 250ms;
	// a negative value disables it.
	Cooldown time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = 5 * time.Second
	}
	if o.Cooldown == 0 {
		o.Cooldown = 250 * time.Millisecond
	}
	return o
}

type Client struct {
	http *resty.Client
	opts Options
}

func NewClient(http *resty.Client, opts Options) *Client {
	return &Client{
		http: http,
		opts: opts.withDefaults(),
	}
}

// Get retrieves url, retrying per the configured policy. The returned
// error, if any, is always a *Error.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "fetch:Get")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var body []byte
	attempt := func() error {
		res, err := c.http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(url)
		if err != nil {
			return c.classifyTransport(url, err)
		}

		status := res.StatusCode()
		switch {
		case status >= 500:
			return &Error{Kind: KindServer, StatusCode: status, URL: url}
		case status >= 400:
			return backoff.Permanent(&Error{Kind: KindClient, StatusCode: status, URL: url})
		}

		body = res.Body()
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.BaseDelay
	policy.Multiplier = 2
	policy.MaxInterval = c.opts.MaxDelay
	policy.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithMaxRetries(
		backoff.WithContext(policy, ctx),
		uint64(c.opts.MaxAttempts-1),
	))

	c.cooldown(parent)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		var fe *Error
		if !errors.As(err, &fe) {
			fe = c.classifyTransport(url, err)
		}
		return nil, fe
	}
	return body, nil
}

func (c *Client) classifyTransport(url string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: url, Err: err}
}

func (c *Client) cooldown(ctx context.Context) {
	if c.opts.Cooldown <= 0 {
		return
	}
	timer := time.NewTimer(c.opts.Cooldown)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
