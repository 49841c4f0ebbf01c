package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// transports holds the two call paths of the dual-transport guard. The
// primary shares a pooled http.Transport; the fallback disables keep-alives
// and pooling entirely so a reissued call never lands on a wedged
// connection.
type transports struct {
	primary  *http.Client
	fallback *http.Client
}

func newTransports() *transports {
	return &transports{
		primary: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		fallback: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
				MaxIdleConns:      -1,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
			},
		},
	}
}

// opState carries per-operation call state. The fallback flag is scoped
// here, never on the client, so one record's hung save cannot force another
// concurrent save off its primary transport.
type opState struct {
	mu          sync.Mutex
	useFallback bool
}

func (s *opState) fallbackEngaged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useFallback
}

func (s *opState) engageFallback() {
	s.mu.Lock()
	s.useFallback = true
	s.mu.Unlock()
}

// httpResult is a fully drained response. Draining inside the guard lets it
// cancel the call context immediately after.
type httpResult struct {
	Status int
	Body   []byte
}

// send issues one primitive call under the guard:
//
//   - a hard per-call ceiling bounds the whole thing;
//   - if the operation already fell back, the raw transport is used directly;
//   - otherwise the primary attempt races the fallback threshold, and when
//     the threshold wins the operation flips to the fallback transport
//     permanently and the call is reissued there.
//
// Errors coming out of send are already classified.
func (c *RESTClient) send(ctx context.Context, op *opState, build func() (*http.Request, error)) (*httpResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	if op.fallbackEngaged() {
		return c.doOnce(ctx, c.http.fallback, build)
	}

	primaryCtx, cancelPrimary := context.WithCancel(ctx)
	defer cancelPrimary()

	type result struct {
		res *httpResult
		err error
	}
	ch := make(chan result, 1)
	go func() {
		res, err := c.doOnce(primaryCtx, c.http.primary, build)
		ch <- result{res, err}
	}()

	timer := time.NewTimer(c.fallbackThreshold)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.res, r.err

	case <-timer.C:
		// primary is hung: abandon it and reissue raw for the rest of
		// this operation
		cancelPrimary()
		op.engageFallback()
		c.log.Warn(ctx, "primary transport stalled, switching to fallback",
			"threshold", c.fallbackThreshold)
		return c.doOnce(ctx, c.http.fallback, build)

	case <-ctx.Done():
		return nil, classifyErr(ctx.Err())
	}
}

// doOnce builds a fresh request, executes it on the given transport, and
// drains the body. The request must be rebuilt per attempt: a body reader
// consumed by a hung primary cannot be reused by the fallback.
func (c *RESTClient) doOnce(ctx context.Context, hc *http.Client, build func() (*http.Request, error)) (*httpResult, error) {
	req, err := build()
	if err != nil {
		return nil, &Error{Kind: TransportFailure, cause: err}
	}

	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, classifyErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyErr(err)
	}

	res := &httpResult{Status: resp.StatusCode, Body: body}
	if err := classifyStatus(res); err != nil {
		return nil, err
	}
	return res, nil
}

func classifyErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Timeout, cause: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: Timeout, cause: err}
	}
	return &Error{Kind: TransportFailure, cause: err}
}

func classifyStatus(res *httpResult) error {
	switch {
	case res.Status >= 200 && res.Status < 300:
		return nil
	case res.Status == http.StatusUnauthorized || res.Status == http.StatusForbidden:
		return &Error{Kind: PermissionDenied, Status: res.Status}
	default:
		return &Error{Kind: TransportFailure, Status: res.Status}
	}
}
