package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// ProcessClient runs one helper subprocess per request. Slower than
// server mode (every call pays process startup and a fresh TLS
// handshake) but with no long-lived state to manage; it is the fallback
// when the server helper cannot be probed.
type ProcessClient struct {
	logger      *zap.Logger
	helperPath  string
	helperArgs  []string
	impersonate string
}

// NewProcessClient builds the per-request fallback client.
func NewProcessClient(cfg Config, logger *zap.Logger) *ProcessClient {
	return &ProcessClient{
		logger:      logger.Named("transport.process"),
		helperPath:  cfg.HelperPath,
		helperArgs:  cfg.HelperArgs,
		impersonate: cfg.Impersonate,
	}
}

// Do spawns the helper once for this exchange. The body never crosses
// the command line: argv encoding corrupts the BWP marker byte values,
// so bodies always travel through a temp file written without any BOM.
func (c *ProcessClient) Do(ctx context.Context, req *Request) *Response {
	args := append(append([]string{}, c.helperArgs...), "request", req.Method, req.URL)
	if c.impersonate != "" {
		args = append(args, "--impersonate", c.impersonate)
	}
	for k, v := range req.Headers {
		args = append(args, "--header", k+": "+v)
	}
	for k, v := range req.Cookies {
		args = append(args, "--cookie", k+"="+v)
	}

	if len(req.Body) > 0 {
		f, err := os.CreateTemp("", "elogio-body-*")
		if err != nil {
			return failure("create body file: " + err.Error())
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(req.Body); err != nil {
			f.Close()
			return failure("write body file: " + err.Error())
		}
		if err := f.Close(); err != nil {
			return failure("close body file: " + err.Error())
		}
		args = append(args, "--body-file", f.Name())
	}

	cmd := exec.CommandContext(ctx, c.helperPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		c.logger.Debug("Helper subprocess failed",
			zap.String("url", req.URL), zap.String("stderr", msg))
		return failure(fmt.Sprintf("helper exited: %s", msg))
	}

	var decoded wireResponse
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		return failure("parse helper output: " + err.Error())
	}
	return decodeWireResponse(&decoded)
}

// Close is a no-op: process mode holds no long-lived resources.
func (c *ProcessClient) Close() error { return nil }
