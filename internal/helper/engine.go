// Package helper implements the browser-impersonation engine the
// transport delegates to. It is built to run in a separate OS process
// (server mode or one-shot) so the main process never opens an outbound
// TLS socket itself; the actual ClientHello comes from a maintained
// Chrome profile, not from crypto/tls.
//
// The JSON request/response shapes here are the wire contract with
// internal/transport. Any drop-in replacement helper (a curl-impersonate
// wrapper, for instance) just has to speak the same JSON.
package helper

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"
)

// DefaultProfile is used when a request names no impersonation target
// or an unknown one.
const DefaultProfile = "chrome_124"

// Request is one exchange for the engine to perform.
type Request struct {
	ID          string            `json:"id,omitempty"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	Body        string            `json:"body,omitempty"`
	BodyB64     string            `json:"body_b64,omitempty"`
	Impersonate string            `json:"impersonate,omitempty"`
}

// Result mirrors the transport's expectations: status_code -1 plus an
// error string when the exchange never reached the server.
type Result struct {
	StatusCode int                 `json:"status_code"`
	Body       string              `json:"body,omitempty"`
	BodyB64    string              `json:"body_b64,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Engine performs impersonated HTTP exchanges. One underlying TLS
// client exists per impersonation target and is reused across calls,
// which keeps connection reuse (and the fingerprint story) intact in
// server mode.
type Engine struct {
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]tls_client.HttpClient
}

// New builds an engine with the given per-request timeout.
func New(logger *zap.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		logger:  logger.Named("helper"),
		timeout: timeout,
		clients: map[string]tls_client.HttpClient{},
	}
}

func (e *Engine) clientFor(target string) (tls_client.HttpClient, error) {
	if target == "" {
		target = DefaultProfile
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[target]; ok {
		return c, nil
	}

	profile, ok := profiles.MappedTLSClients[target]
	if !ok {
		e.logger.Warn("Unknown impersonation target, using default",
			zap.String("target", target), zap.String("default", DefaultProfile))
		profile = profiles.MappedTLSClients[DefaultProfile]
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithTimeoutSeconds(int(e.timeout.Seconds())),
		tls_client.WithClientProfile(profile),
		// Redirect decisions belong to the orchestrator: the login flow
		// must see the raw 302 and its Location header.
		tls_client.WithNotFollowRedirects(),
	)
	if err != nil {
		return nil, fmt.Errorf("build tls client for %s: %w", target, err)
	}
	e.clients[target] = client
	return client, nil
}

// Perform executes one exchange. All failures are reported in-band.
func (e *Engine) Perform(ctx context.Context, req Request) Result {
	body, err := requestBody(req)
	if err != nil {
		return errorResult(err)
	}

	client, err := e.clientFor(req.Impersonate)
	if err != nil {
		return errorResult(err)
	}

	httpReq, err := fhttp.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(body))
	if err != nil {
		return errorResult(fmt.Errorf("build request: %w", err))
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Cookies) > 0 {
		pairs := make([]string, 0, len(req.Cookies))
		for k, v := range req.Cookies {
			pairs = append(pairs, k+"="+v)
		}
		httpReq.Header.Set("Cookie", strings.Join(pairs, "; "))
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return errorResult(fmt.Errorf("perform %s %s: %w", req.Method, req.URL, err))
	}
	defer resp.Body.Close()

	raw, err := decompress(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return errorResult(fmt.Errorf("decompress response: %w", err))
	}

	result := Result{
		StatusCode: resp.StatusCode,
		Headers:    map[string][]string(resp.Header),
	}
	if utf8.Valid(raw) {
		result.Body = string(raw)
	} else {
		result.BodyB64 = base64.StdEncoding.EncodeToString(raw)
	}
	return result
}

func requestBody(req Request) ([]byte, error) {
	if req.BodyB64 != "" {
		return base64.StdEncoding.DecodeString(req.BodyB64)
	}
	return []byte(req.Body), nil
}

// decompress mirrors what a browser does with Content-Encoding. The
// engine sends explicit Accept-Encoding headers (they are part of the
// fingerprint), so the HTTP layer does not decompress for us.
func decompress(encoding string, r io.Reader) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "br":
		return io.ReadAll(brotli.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

func errorResult(err error) Result {
	return Result{StatusCode: -1, Error: err.Error()}
}
