package transport

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeScript drops an executable fake helper into the test's temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-helper")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestProcessClientRoundTrip(t *testing.T) {
	// The fake helper echoes the body file content back inside the JSON
	// response so the test can verify the temp-file path end to end.
	script := writeScript(t, `
BODY=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--body-file" ]; then BODY="$2"; fi
  shift
done
if [ -n "$BODY" ]; then
  printf '{"status_code":200,"body":"got:%s","headers":{"X-Test":["yes"]}}' "$(cat "$BODY")"
else
  printf '{"status_code":200,"body":"no-body"}'
fi
`)

	c := NewProcessClient(Config{HelperPath: script, Impersonate: "chrome_124"}, zaptest.NewLogger(t))
	defer c.Close()

	resp := Post(context.Background(), c, "https://portal.example/open/bwp", []byte("payload"), nil, nil)
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "got:payload", string(resp.Body))
	assert.Equal(t, "yes", resp.Header("X-Test"))

	resp = Get(context.Background(), c, "https://portal.example/", nil, nil)
	require.False(t, resp.Failed())
	assert.Equal(t, "no-body", string(resp.Body))
}

func TestProcessClientFailureIsInBand(t *testing.T) {
	script := writeScript(t, `
echo "certificate pinning mismatch" >&2
exit 3
`)
	c := NewProcessClient(Config{HelperPath: script}, zaptest.NewLogger(t))

	resp := Get(context.Background(), c, "https://portal.example/", nil, nil)
	require.True(t, resp.Failed())
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.Contains(t, resp.Error, "certificate pinning mismatch")
}

func TestProcessClientBadJSON(t *testing.T) {
	script := writeScript(t, `printf 'not json at all'`)
	c := NewProcessClient(Config{HelperPath: script}, zaptest.NewLogger(t))

	resp := Get(context.Background(), c, "https://portal.example/", nil, nil)
	require.True(t, resp.Failed())
	assert.Contains(t, resp.Error, "parse helper output")
}

// fakeHelperServer emulates the server-mode helper's loopback surface.
func fakeHelperServer(t *testing.T, handler func(wireRequest) wireResponse) (*httptest.Server, int) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/request", func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(handler(req))
	})
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)
	return srv, port
}

func TestServerClient(t *testing.T) {
	_, port := fakeHelperServer(t, func(req wireRequest) wireResponse {
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "chrome_124", req.Impersonate)
		assert.NotEmpty(t, req.ID)
		return wireResponse{
			StatusCode: 302,
			Headers:    map[string][]string{"Location": {"/open/homepage"}, "Set-Cookie": {"sid=1", "extra=2"}},
		}
	})

	// The child process only has to say READY; the HTTP side is played
	// by the fake above.
	script := writeScript(t, "echo READY\nsleep 30\n")

	cfg := Config{
		HelperPath:     script,
		Port:           port,
		Impersonate:    "chrome_124",
		RequestTimeout: 5 * time.Second,
		ReadyTimeout:   5 * time.Second,
	}
	c, err := StartServer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	resp := Post(context.Background(), c, "https://portal.example/login", []byte("u=x"), nil, nil)
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/open/homepage", resp.Header("Location"))
	assert.Len(t, resp.SetCookies(), 2)
}

// TestServerClientCloseIsBounded covers a helper that ignores shutdown
// and leaves a background child holding its stdout pipe open. Close must
// still return within the grace budget instead of waiting out the child.
func TestServerClientCloseIsBounded(t *testing.T) {
	_, port := fakeHelperServer(t, func(wireRequest) wireResponse {
		return wireResponse{StatusCode: 200}
	})
	script := writeScript(t, "echo READY\nsleep 30 &\nsleep 30\n")
	cfg := Config{
		HelperPath:     script,
		Port:           port,
		RequestTimeout: 5 * time.Second,
		ReadyTimeout:   5 * time.Second,
	}
	c, err := StartServer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, c.Close())
	assert.Less(t, time.Since(start), 3*shutdownGrace)
}

func TestServerClientReadyTimeout(t *testing.T) {
	// Helper that never reports readiness.
	script := writeScript(t, "sleep 30\n")
	cfg := Config{
		HelperPath:   script,
		Port:         1, // never dialed
		ReadyTimeout: 200 * time.Millisecond,
	}
	_, err := StartServer(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READY")
}

// TestAutoProbeFallsBack pins the startup policy: an unprobeable server
// helper degrades to process mode instead of failing.
func TestAutoProbeFallsBack(t *testing.T) {
	script := writeScript(t, `printf '{"status_code":200,"body":"ok"}'`)
	cfg := Config{
		HelperPath:   script,
		HelperArgs:   []string{},
		Mode:         "auto",
		Port:         1,
		ReadyTimeout: 200 * time.Millisecond,
	}
	c, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	_, isProcess := c.(*ProcessClient)
	assert.True(t, isProcess, "expected fallback to process mode, got %T", c)

	resp := Get(context.Background(), c, "https://portal.example/", nil, nil)
	require.False(t, resp.Failed())
	assert.Equal(t, "ok", string(resp.Body))
}

func TestResponseHelpers(t *testing.T) {
	r := &Response{
		StatusCode: 200,
		Headers:    normalizeHeaders(map[string][]string{"X-Csrf-Token": {"tok"}, "SET-COOKIE": {"a=1"}}),
	}
	assert.Equal(t, "tok", r.Header("x-csrf-token"))
	assert.Equal(t, "tok", r.Header("X-CSRF-Token"))
	assert.Equal(t, []string{"a=1"}, r.SetCookies())
	assert.False(t, r.Failed())

	var nilResp *Response
	assert.True(t, nilResp.Failed())
	assert.Empty(t, nilResp.Header("anything"))

	f := failure("boom")
	assert.True(t, f.Failed())
	assert.Equal(t, "boom", f.Error)
}
