// Package transport performs HTTP with a browser-matching TLS
// fingerprint by delegating the actual connection to a helper engine in
// a separate OS process. The portal fingerprints TLS stacks and rejects
// anything that does not look like a desktop Chrome, so no request may
// ever leave this process's own socket layer.
//
// Two execution strategies exist: a long-lived local helper server
// reached over loopback JSON (preferred, keeps the outbound TLS
// connection warm) and a one-shot subprocess per request (fallback).
// Both are selected at startup by probing; see New.
//
// All ordinary failures are in-band: a Response with StatusCode
// StatusTransportFailure and a populated Error field. Callers never see
// a Go error for a failed round-trip, only for misuse.
package transport

import (
	"context"
	"strings"
)

// StatusTransportFailure is the in-band status for "the request never
// produced an HTTP response": helper launch failure, bad exit code,
// unparseable output, health-check timeout. Distinct from every real
// HTTP status.
const StatusTransportFailure = -1

// Request is one HTTP exchange to run through the helper.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Cookies map[string]string
	Body    []byte
}

// Response is the in-band result of a Request.
type Response struct {
	StatusCode int
	Body       []byte
	// Headers preserves repeated values (Set-Cookie in particular).
	// Keys are canonicalized to lower case.
	Headers map[string][]string
	Error   string
}

// Failed reports whether the exchange never reached the server.
func (r *Response) Failed() bool {
	return r == nil || r.StatusCode == StatusTransportFailure
}

// Header returns the first value for the (case-insensitive) key.
func (r *Response) Header(key string) string {
	if r == nil {
		return ""
	}
	vs := r.Headers[strings.ToLower(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// SetCookies returns every Set-Cookie value on the response.
func (r *Response) SetCookies() []string {
	if r == nil {
		return nil
	}
	return r.Headers["set-cookie"]
}

// Client is the narrow capability the rest of the system depends on.
// Implementations own at most one helper OS process and must release it
// deterministically in Close.
type Client interface {
	Do(ctx context.Context, req *Request) *Response
	Close() error
}

// Get runs a GET through the client.
func Get(ctx context.Context, c Client, url string, headers, cookies map[string]string) *Response {
	return c.Do(ctx, &Request{Method: "GET", URL: url, Headers: headers, Cookies: cookies})
}

// Post runs a POST with the given body.
func Post(ctx context.Context, c Client, url string, body []byte, headers, cookies map[string]string) *Response {
	return c.Do(ctx, &Request{Method: "POST", URL: url, Headers: headers, Cookies: cookies, Body: body})
}

// PostForm runs a POST with an urlencoded form body; it only differs
// from Post in the content type it stamps when the caller did not.
func PostForm(ctx context.Context, c Client, url string, form string, headers, cookies map[string]string) *Response {
	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if _, ok := h["Content-Type"]; !ok {
		h["Content-Type"] = "application/x-www-form-urlencoded"
	}
	return c.Do(ctx, &Request{Method: "POST", URL: url, Headers: h, Cookies: cookies, Body: []byte(form)})
}

func failure(msg string) *Response {
	return &Response{StatusCode: StatusTransportFailure, Error: msg}
}

// normalizeHeaders lower-cases keys, merging collisions.
func normalizeHeaders(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, vs := range in {
		lk := strings.ToLower(k)
		out[lk] = append(out[lk], vs...)
	}
	return out
}
