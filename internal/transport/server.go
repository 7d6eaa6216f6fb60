package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// readySentinel is printed by the helper once its listener is bound.
	readySentinel = "READY"

	// shutdownGrace is how long a helper gets to exit cleanly after
	// /shutdown before it is killed.
	shutdownGrace = 2 * time.Second
)

// ServerClient drives a long-lived helper process serving loopback JSON.
// The helper owns the real outbound TLS connection and may reuse it
// across calls, which matters both for latency and for looking like one
// browser instead of many.
type ServerClient struct {
	logger      *zap.Logger
	cmd         *exec.Cmd
	baseURL     string
	impersonate string
	http        *http.Client

	mu     sync.Mutex
	closed bool
}

// StartServer spawns the helper in server mode and waits (bounded) for
// its readiness sentinel plus a passing /health probe. On any failure
// the child is reaped and an error returned so the caller can fall back
// to process-per-request mode.
func StartServer(ctx context.Context, cfg Config, logger *zap.Logger) (*ServerClient, error) {
	cmd := exec.Command(cfg.HelperPath, append(cfg.HelperArgs, "serve", "--port", fmt.Sprint(cfg.Port))...)
	// Without WaitDelay, Wait blocks until every inheritor of the stdout
	// pipe closes it, and helpers are free to spawn children that do not.
	cmd.WaitDelay = shutdownGrace
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdout pipe: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn helper %q: %w", cfg.HelperPath, err)
	}

	c := &ServerClient{
		logger:      logger.Named("transport.server"),
		cmd:         cmd,
		baseURL:     fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
		impersonate: cfg.Impersonate,
		http:        &http.Client{Timeout: cfg.RequestTimeout},
	}

	if err := c.awaitReady(ctx, stdout, cfg.ReadyTimeout); err != nil {
		c.reap()
		return nil, err
	}

	c.logger.Info("Helper server ready",
		zap.String("addr", c.baseURL),
		zap.String("impersonate", cfg.Impersonate))
	return c, nil
}

// awaitReady scans helper stdout for the sentinel, then verifies
// /health. Both waits share one bounded timeout; a helper that never
// says READY is treated as unavailable, not retried.
func (c *ServerClient) awaitReady(ctx context.Context, stdout io.Reader, timeout time.Duration) error {
	ready := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), readySentinel) {
				close(ready)
				// Keep draining so the child never blocks on a full pipe.
				for scanner.Scan() {
				}
				return
			}
		}
	}()

	select {
	case <-ready:
	case <-time.After(timeout):
		return fmt.Errorf("helper did not report %s within %s", readySentinel, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("helper health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helper health check: status %d", resp.StatusCode)
	}
	return nil
}

// Do forwards one exchange to the helper over loopback.
func (c *ServerClient) Do(ctx context.Context, req *Request) *Response {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure("transport closed")
	}
	c.mu.Unlock()

	wr := wireRequest{
		ID:          uuid.NewString(),
		Method:      req.Method,
		URL:         req.URL,
		Headers:     req.Headers,
		Cookies:     req.Cookies,
		Impersonate: c.impersonate,
	}
	encodeWireBody(req.Body, &wr)

	payload, err := json.Marshal(wr)
	if err != nil {
		return failure("marshal helper request: " + err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/request", bytes.NewReader(payload))
	if err != nil {
		return failure("build helper request: " + err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return failure("helper call: " + err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return failure("read helper response: " + err.Error())
	}
	if httpResp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("helper returned status %d: %s", httpResp.StatusCode, truncate(raw, 200)))
	}

	var decoded wireResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return failure("parse helper response: " + err.Error())
	}
	return decodeWireResponse(&decoded)
}

// Close sends the shutdown signal, waits a short grace period and then
// force-terminates. The child is always reaped.
func (c *ServerClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	req, err := http.NewRequestWithContext(shutdownCtx, http.MethodPost, c.baseURL+"/shutdown", nil)
	if err == nil {
		if resp, err := c.http.Do(req); err == nil {
			resp.Body.Close()
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		c.logger.Warn("Helper ignored shutdown, killing it")
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		// WaitDelay caps this once the process is dead, even while a
		// grandchild still holds the pipe.
		<-done
	}
	return nil
}

// reap is the startup failure path; Close owns the only other Wait.
func (c *ServerClient) reap() {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
