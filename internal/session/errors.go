package session

import "errors"

// Fatal bootstrap failures. These abort login and leave the context
// unauthenticated; everything else during bootstrap is best-effort.
var (
	// ErrCSRFMissing: the login page did not contain the CSRF field.
	ErrCSRFMissing = errors.New("login page carried no csrf token")

	// ErrAuthFailed: the credential POST did not produce the one
	// accepted success signal (302 with a homepage Location). A 200
	// never means success here, whatever the body says.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSessionIDMissing: the portal page had no session-id div.
	ErrSessionIDMissing = errors.New("portal page carried no session id")

	// ErrBWPConnect: the BWP handshake failed, so no later encoded call
	// could carry a valid CSRF token.
	ErrBWPConnect = errors.New("bwp connect failed")

	// ErrTransport wraps in-band transport failures when a required
	// step cannot proceed. Distinct from ErrAuthFailed so callers can
	// tell "unreachable" from "rejected".
	ErrTransport = errors.New("transport failure")

	// ErrPrecondition: a data call was attempted before the session
	// state it needs exists. Raised immediately, before any request is
	// built or sent.
	ErrPrecondition = errors.New("session precondition not met")
)
