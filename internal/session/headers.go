package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The portal's WAF matches these values byte for byte against what the
// impersonated TLS fingerprint claims to be. UA, client hints and the
// stale If-Modified-Since all have to stay in lockstep with the helper's
// chrome_124 profile.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	secChUA         = `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`
	secChUAMobile   = "?0"
	secChUAPlatform = `"Windows"`

	// The browser client always sends this fixed, long-stale validator.
	staleIfModifiedSince = "Sat, 01 Jan 2000 00:00:00 GMT"

	rpcContentType = "text/bwp;charset=UTF-8"
)

// baseHeaders are sent on every exchange.
func baseHeaders() map[string]string {
	return map[string]string{
		"User-Agent":         userAgent,
		"Accept-Language":    "de-DE,de;q=0.9,en;q=0.8",
		"sec-ch-ua":          secChUA,
		"sec-ch-ua-mobile":   secChUAMobile,
		"sec-ch-ua-platform": secChUAPlatform,
		"If-Modified-Since":  staleIfModifiedSince,
		"x-kelio-stat":       statHeader(),
	}
}

// htmlHeaders are used for page navigations (login, portal, calendar).
func htmlHeaders() map[string]string {
	h := baseHeaders()
	h["Accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	h["Sec-Fetch-Dest"] = "document"
	h["Sec-Fetch-Mode"] = "navigate"
	h["Sec-Fetch-Site"] = "same-origin"
	h["Upgrade-Insecure-Requests"] = "1"
	return h
}

// formHeaders are used for the credential POST.
func formHeaders(origin string) map[string]string {
	h := htmlHeaders()
	h["Content-Type"] = "application/x-www-form-urlencoded"
	h["Origin"] = origin
	return h
}

// rpcHeaders are used for BWP dispatch. The CSRF token from the BWP
// handshake rides along once it exists.
func rpcHeaders(origin, bwpCSRF string) map[string]string {
	h := baseHeaders()
	h["Accept"] = "*/*"
	h["Content-Type"] = rpcContentType
	h["X-Requested-With"] = "XMLHttpRequest"
	h["Origin"] = origin
	h["Sec-Fetch-Dest"] = "empty"
	h["Sec-Fetch-Mode"] = "cors"
	h["Sec-Fetch-Site"] = "same-origin"
	if bwpCSRF != "" {
		h["x-csrf-token"] = bwpCSRF
	}
	return h
}

// statHeader renders the client-side timing beacon the portal expects
// on every call. The server ignores the value but rejects its absence.
func statHeader() string {
	return fmt.Sprintf("%d|%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
