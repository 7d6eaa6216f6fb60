package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/christophergoltz/elogio-sub000/internal/helper"
)

// utf8BOM at the start of a body file means some editor or shell
// touched it; sending it would corrupt the first wire byte.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func newHelperCmd() *cobra.Command {
	helperCmd := &cobra.Command{
		Use:   "helper",
		Short: "Run the impersonating HTTP engine",
		Long:  `The helper owns the browser-grade TLS fingerprint. The main process talks to it either as a long-lived loopback server ("serve") or as one subprocess per exchange ("request"). Results are JSON on stdout; failures that never reached the server come back in-band with status_code -1.`,
	}
	helperCmd.AddCommand(newHelperServeCmd())
	helperCmd.AddCommand(newHelperRequestCmd())
	return helperCmd
}

func newHelperServeCmd() *cobra.Command {
	var (
		port    int
		timeout time.Duration
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve exchanges on a loopback port until told to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := helperLogger()
			defer logger.Sync() //nolint:errcheck

			engine := helper.New(logger, timeout)
			// READY goes to stdout once the listener is bound; the
			// parent scans for it before sending traffic.
			return engine.Serve(cmd.Context(), port, os.Stdout)
		},
	}

	serveCmd.Flags().IntVar(&port, "port", 8753, "loopback port to listen on")
	serveCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	return serveCmd
}

func newHelperRequestCmd() *cobra.Command {
	var (
		impersonate string
		headers     []string
		cookies     []string
		body        string
		bodyB64     bool
		bodyFile    string
		timeout     time.Duration
	)

	requestCmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Perform a single exchange and print the JSON result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := helperLogger()
			defer logger.Sync() //nolint:errcheck

			req := helper.Request{
				Method:      strings.ToUpper(args[0]),
				URL:         args[1],
				Impersonate: impersonate,
				Headers:     map[string]string{},
				Cookies:     map[string]string{},
			}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("malformed --header %q, want \"Name: value\"", h)
				}
				req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			for _, c := range cookies {
				k, v, ok := strings.Cut(c, "=")
				if !ok {
					return fmt.Errorf("malformed --cookie %q, want name=value", c)
				}
				req.Cookies[strings.TrimSpace(k)] = v
			}

			resolved, err := resolveRequestBody(body, bodyFile, bodyB64)
			if err != nil {
				return err
			}
			req.Body = resolved

			result := helper.New(logger, timeout).Perform(cmd.Context(), req)
			out, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	requestCmd.Flags().StringVar(&impersonate, "impersonate", helper.DefaultProfile, "browser profile to impersonate")
	requestCmd.Flags().StringArrayVar(&headers, "header", nil, `request header, "Name: value" (repeatable)`)
	requestCmd.Flags().StringArrayVar(&cookies, "cookie", nil, "request cookie, name=value (repeatable)")
	requestCmd.Flags().StringVar(&body, "body", "", "raw request body")
	requestCmd.Flags().BoolVar(&bodyB64, "body-b64", false, "treat the body as base64 and decode it before sending")
	requestCmd.Flags().StringVar(&bodyFile, "body-file", "", "file holding the raw request body")
	requestCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return requestCmd
}

// resolveRequestBody turns the --body/--body-file/--body-b64 flag trio
// into the payload string. Inline and file bodies are mutually
// exclusive; --body-b64 decodes whichever source was given, so binary
// payloads survive shell quoting.
func resolveRequestBody(body, bodyFile string, b64 bool) (string, error) {
	if body != "" && bodyFile != "" {
		return "", fmt.Errorf("--body and --body-file are mutually exclusive")
	}
	if bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", fmt.Errorf("read body file: %w", err)
		}
		if bytes.HasPrefix(data, utf8BOM) {
			return "", fmt.Errorf("body file %s starts with a UTF-8 BOM; the portal rejects such payloads", bodyFile)
		}
		body = string(data)
	}
	if b64 && body != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
		if err != nil {
			return "", fmt.Errorf("decode base64 body: %w", err)
		}
		body = string(decoded)
	}
	return body, nil
}

// helperLogger logs to stderr only: stdout belongs to the wire
// protocol (READY sentinel, JSON results).
func helperLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("helper")
}
