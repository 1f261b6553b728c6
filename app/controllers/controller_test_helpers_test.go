package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/swiden/trackstore/internal/pkg/billing"
	"github.com/swiden/trackstore/internal/pkg/fulfillment"
)

const testOrigin = "http://swiden.test"

type fakeGateway struct {
	mu       sync.Mutex
	requests []billing.CheckoutRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &billing.CheckoutSession{
		ID:      "cs_test_1",
		URL:     "https://checkout.stripe.com/c/pay/cs_test_1",
		TrackID: req.TrackID,
	}, nil
}

func (g *fakeGateway) last(t *testing.T) billing.CheckoutRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests)
	return g.requests[len(g.requests)-1]
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []fulfillment.Fulfillment
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, f fulfillment.Fulfillment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, f)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type memoryLedger struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (l *memoryLedger) Claim(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	if l.seen[id] {
		return false, nil
	}
	l.seen[id] = true
	return true, nil
}

func (l *memoryLedger) Release(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, id)
	return nil
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, testOrigin+target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
