package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"trustgraph/logger"
	"trustgraph/models"
)

// Client talks to a ledger node over HTTP JSON. Every RPC goes through a
// circuit breaker; transport failures, non-2xx responses, breaker-open and
// caller cancellation all surface as ErrLedgerUnavailable so the engine has
// a single retryable failure mode.
type Client struct {
	endpoint string
	httpc    *http.Client
	breaker  *gobreaker.CircuitBreaker[map[string]any]
}

// NewClient creates a ledger client for the given node endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "ledger",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn("Ledger breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpc:    &http.Client{Timeout: timeout},
		breaker:  gobreaker.NewCircuitBreaker[map[string]any](settings),
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) (map[string]any, error) {
	raw, err := c.breaker.Execute(func() (map[string]any, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("ledger node returned %d: %s", resp.StatusCode, msg)
		}

		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	return raw, nil
}

// SubmitTransaction submits a transaction and normalizes the response.
func (c *Client) SubmitTransaction(ctx context.Context, tx Transaction) (*TransactionResult, error) {
	raw, err := c.post(ctx, "/invoke", tx)
	if err != nil {
		return nil, err
	}
	return NormalizeTransactionResult(raw), nil
}

// QueryState runs a read-only contract query and returns its data payload.
func (c *Client) QueryState(ctx context.Context, query StateQuery) (map[string]any, error) {
	raw, err := c.post(ctx, "/query", query)
	if err != nil {
		return nil, err
	}
	if data, ok := raw["data"].(map[string]any); ok {
		return data, nil
	}
	return map[string]any{}, nil
}

// WatchEvents opens a streaming connection and emits normalized events until
// the context is cancelled or the stream ends. The long-lived stream does
// not go through the breaker.
func (c *Client) WatchEvents(ctx context.Context, filter EventFilter) (<-chan Event, error) {
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: event stream returned %d", models.ErrLedgerUnavailable, resp.StatusCode)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			var raw map[string]any
			if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
				logger.Logger.Warn("Dropping malformed ledger event", zap.Error(err))
				continue
			}
			event := Event{Type: firstString(raw, "type", "name")}
			if data, ok := raw["data"].(map[string]any); ok {
				event.Data = data
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
