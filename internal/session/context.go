// Package session owns the authenticated relationship with the portal:
// the mutable session context, the multi-step login bootstrap, the lazy
// calendar-app bootstrap and the steady-state RPC dispatch. One Client
// drives one SessionContext; there is no ambient singleton.
package session

import "sync"

// SessionContext accumulates the artifacts of a login. It is created
// with only the base URL set and mutated incrementally by whichever
// bootstrap step holds control; Logout clears it wholesale. The portal
// uses two distinct identifiers for the same person (EmployeeID for
// portal RPCs, RealEmployeeID for HR/absence RPCs) and conflating them
// produces silent wrong answers, not errors.
type SessionContext struct {
	BaseURL string

	CSRFToken string
	SessionID string // per-login UUID from the portal page, not the cookie

	// Cookies and the BWP CSRF token are tracked manually end to end:
	// requests flow through an external helper process, so there is no
	// shared cookie jar, and the token is written by one handshake
	// goroutine while siblings read it. Last write wins.
	mu           sync.Mutex
	cookies      map[string]string
	bwpCSRFToken string

	EmployeeID     int64
	RealEmployeeID int64
	EmployeeName   string

	CalendarContextID            string
	IsAuthenticated              bool
	CalendarAppInitialized       bool
	CalendarNavigationPrefetched bool
}

// NewSessionContext returns a context with only the base URL populated.
func NewSessionContext(baseURL string) *SessionContext {
	return &SessionContext{BaseURL: baseURL, cookies: map[string]string{}}
}

// SetCookie records one cookie name/value.
func (s *SessionContext) SetCookie(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[name] = value
}

// Cookies returns a copy of the tracked cookies.
func (s *SessionContext) Cookies() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out
}

// BwpToken returns the CSRF token from the BWP handshake, empty before
// the handshake completed.
func (s *SessionContext) BwpToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bwpCSRFToken
}

// SetBwpToken records a fresh BWP CSRF token.
func (s *SessionContext) SetBwpToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bwpCSRFToken = token
}

// Reset clears everything except the base URL. Used on logout.
func (s *SessionContext) Reset() {
	s.mu.Lock()
	s.cookies = map[string]string{}
	s.bwpCSRFToken = ""
	s.mu.Unlock()

	s.CSRFToken = ""
	s.SessionID = ""
	s.EmployeeID = 0
	s.RealEmployeeID = 0
	s.EmployeeName = ""
	s.CalendarContextID = ""
	s.IsAuthenticated = false
	s.CalendarAppInitialized = false
	s.CalendarNavigationPrefetched = false
}
