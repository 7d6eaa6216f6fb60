package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/christophergoltz/elogio-sub000/internal/bwp"
	"github.com/christophergoltz/elogio-sub000/internal/extract"
	"github.com/christophergoltz/elogio-sub000/internal/requests"
	"github.com/christophergoltz/elogio-sub000/internal/transport"
)

// Portal paths. Fixed by the deployed application, not configurable.
const (
	loginPagePath   = "/open/login"
	portalPagePath  = "/open/portail"
	rpcPath         = "/open/bwp"
	pushConnectPath = "/open/push/connect"
	intranetPath    = "/open/intranet"
	calendarPath    = "/open/calendrier.jsp"
)

// bootstrapResources are static assets the browser loads right after
// the portal page; fetching them is best-effort traffic shaping.
var bootstrapResources = []string{
	"/open/resources/bwp.nocache.js",
	"/open/resources/portal.css",
	"/open/resources/icons.woff2",
}

// calendarResources load during calendar-app bootstrap (steps 3 and 4).
var calendarResources = []string{
	"/open/resources/calendrier.nocache.js",
	"/open/resources/calendrier.css",
}

// translationPrefixes are the message bundles the calendar UI pulls.
var translationPrefixes = []string{
	"portal.commun",
	"conges.calendrier",
	"temps.semaine",
}

// Config parameterizes a Client.
type Config struct {
	BaseURL  string
	Language string
	// FetchConcurrency caps fan-out for multi-item fetches (weeks,
	// translations). Zero means a small default.
	FetchConcurrency int
}

// Client is the session orchestrator: it owns the SessionContext, the
// transport and the background prefetch task, and sequences the state
// machine Unauthenticated -> CsrfObtained -> LoggedIn -> Bootstrapped.
type Client struct {
	cfg       Config
	transport transport.Client
	logger    *zap.Logger
	sess      *SessionContext

	// bootstrapMu serializes login and calendar bootstrap; at most one
	// bootstrap runs per context.
	bootstrapMu sync.Mutex

	prefetchMu     sync.Mutex
	prefetchCancel context.CancelFunc
	prefetchDone   chan struct{}

	now func() time.Time
}

// NewClient builds an orchestrator around the given transport.
func NewClient(cfg Config, tr transport.Client, logger *zap.Logger) *Client {
	if cfg.Language == "" {
		cfg.Language = "de"
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	return &Client{
		cfg:       cfg,
		transport: tr,
		logger:    logger.Named("session"),
		sess:      NewSessionContext(strings.TrimRight(cfg.BaseURL, "/")),
		now:       time.Now,
	}
}

// Session exposes the context for read access (CLI output, tests).
func (c *Client) Session() *SessionContext { return c.sess }

// PreInit opportunistically warms the transport and grabs the login
// page for its CSRF token and cookie. Best-effort: any failure is
// logged and forgotten, and Login repeats the work if needed.
func (c *Client) PreInit(ctx context.Context) {
	if err := c.fetchLoginPage(ctx); err != nil {
		c.logger.Debug("Pre-init login page fetch failed", zap.Error(err))
	}
}

// Login drives the full bootstrap: CSRF, credential POST, session id,
// connect RPCs, employee id, background prefetch. On return with nil
// error the context is authenticated and ready for presence/punch
// calls; absence calls additionally trigger the lazy calendar
// bootstrap.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()

	// Step 1: CSRF token, skipped when PreInit already got one.
	if c.sess.CSRFToken == "" {
		if err := c.fetchLoginPage(ctx); err != nil {
			return err
		}
	}

	// Step 2: credential POST. The only accepted success signal is a
	// 302 whose Location contains "homepage"; a 200 with a friendly
	// body is a login failure being polite.
	if err := c.submitLogin(ctx, username, password); err != nil {
		return err
	}

	// Step 3: portal page (fatal: session id) and resource preload
	// (best-effort), concurrently.
	var wg sync.WaitGroup
	var portalErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		var links []string
		links, portalErr = c.fetchPortalPage(ctx)
		if portalErr == nil {
			c.preloadResources(ctx, links)
		}
	}()
	go func() {
		defer wg.Done()
		c.preloadResources(ctx, bootstrapResources)
	}()
	wg.Wait()
	if portalErr != nil {
		return portalErr
	}

	// Step 4: bootstrap RPCs. BWP connect is required; push-connect and
	// GlobalService connect are best-effort and their failures must not
	// cancel each other, so plain WaitGroup instead of errgroup.
	var bwpErr error
	wg.Add(3)
	go func() {
		defer wg.Done()
		bwpErr = c.bwpConnect(ctx)
	}()
	go func() {
		defer wg.Done()
		c.pushConnect(ctx)
	}()
	go func() {
		defer wg.Done()
		c.globalConnect(ctx)
	}()
	wg.Wait()
	if bwpErr != nil {
		return bwpErr
	}

	c.sess.IsAuthenticated = true
	c.logger.Info("Login complete",
		zap.Int64("employee_id", c.sess.EmployeeID),
		zap.String("employee", c.sess.EmployeeName))

	// Step 5: fire-and-forget calendar navigation prefetch. Tracked and
	// cancellable; never blocks login, never surfaces errors.
	c.startNavigationPrefetch()
	return nil
}

// Logout cancels background work and clears the context wholesale.
func (c *Client) Logout() {
	c.stopNavigationPrefetch()
	c.sess.Reset()
	c.logger.Info("Logged out")
}

// Close releases the transport (and with it the helper process).
func (c *Client) Close() error {
	c.stopNavigationPrefetch()
	return c.transport.Close()
}

// -- bootstrap steps --

func (c *Client) fetchLoginPage(ctx context.Context) error {
	resp := transport.Get(ctx, c.transport, c.sess.BaseURL+loginPagePath, htmlHeaders(), c.sess.Cookies())
	if resp.Failed() {
		return fmt.Errorf("%w: login page: %s", ErrTransport, resp.Error)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("login page returned status %d", resp.StatusCode)
	}
	c.absorbCookies(resp)

	token := csrfFromLoginPage(resp.Body)
	if token == "" {
		return ErrCSRFMissing
	}
	c.sess.CSRFToken = token
	c.logger.Debug("CSRF token obtained")
	return nil
}

func (c *Client) submitLogin(ctx context.Context, username, password string) error {
	form := url.Values{
		"username":   {username},
		"password":   {password},
		"csrf_token": {c.sess.CSRFToken},
	}
	resp := transport.PostForm(ctx, c.transport, c.sess.BaseURL+loginPagePath,
		form.Encode(), formHeaders(c.sess.BaseURL), c.sess.Cookies())
	if resp.Failed() {
		return fmt.Errorf("%w: login submit: %s", ErrTransport, resp.Error)
	}
	c.absorbCookies(resp)

	if resp.StatusCode != 302 || !strings.Contains(resp.Header("Location"), "homepage") {
		return fmt.Errorf("%w: status %d, location %q", ErrAuthFailed, resp.StatusCode, resp.Header("Location"))
	}
	return nil
}

func (c *Client) fetchPortalPage(ctx context.Context) ([]string, error) {
	resp := transport.Get(ctx, c.transport, c.sess.BaseURL+portalPagePath, htmlHeaders(), c.sess.Cookies())
	if resp.Failed() {
		return nil, fmt.Errorf("%w: portal page: %s", ErrTransport, resp.Error)
	}
	c.absorbCookies(resp)

	id := sessionIDFromPortal(resp.Body)
	if id == "" {
		return nil, ErrSessionIDMissing
	}
	c.sess.SessionID = id
	c.logger.Debug("Session id obtained")
	return resourceLinksFromPage(resp.Body, c.sess.BaseURL), nil
}

// bwpConnect performs the raw BWP handshake; the response header is the
// CSRF token every later encoded call must carry.
func (c *Client) bwpConnect(ctx context.Context) error {
	if _, err := c.dispatch(ctx, "connect", requests.BwpConnect(c.sess.SessionID)); err != nil {
		return fmt.Errorf("%w: %v", ErrBWPConnect, err)
	}
	if c.sess.BwpToken() == "" {
		return fmt.Errorf("%w: no x-csrf-token header", ErrBWPConnect)
	}
	return nil
}

// pushConnect opens the portal's push channel. Best-effort.
func (c *Client) pushConnect(ctx context.Context) {
	resp := transport.Get(ctx, c.transport, c.sess.BaseURL+pushConnectPath,
		rpcHeaders(c.sess.BaseURL, c.sess.BwpToken()), c.sess.Cookies())
	if resp.Failed() || resp.StatusCode >= 400 {
		c.logger.Debug("Push connect failed", zap.String("error", resp.Error), zap.Int("status", resp.StatusCode))
	}
}

// globalConnect mines the GlobalService handshake for the employee id
// and display name. Best-effort: an id of 0 makes later data calls fail
// their precondition instead of sending garbage upstream.
func (c *Client) globalConnect(ctx context.Context) {
	body, err := c.dispatch(ctx, "connect", requests.GlobalConnect(c.sess.SessionID))
	if err != nil {
		c.logger.Warn("GlobalService connect failed", zap.Error(err))
		return
	}
	id, name := extract.EmployeeFromConnect(body)
	if id == 0 {
		c.logger.Warn("GlobalService connect carried no employee id")
		return
	}
	c.sess.EmployeeID = id
	c.sess.EmployeeName = name
}

// preloadResources fetches static assets, ignoring every failure.
func (c *Client) preloadResources(ctx context.Context, paths []string) {
	for _, p := range paths {
		full := p
		if strings.HasPrefix(p, "/") {
			full = c.sess.BaseURL + p
		}
		resp := transport.Get(ctx, c.transport, full, baseHeaders(), c.sess.Cookies())
		if resp.Failed() {
			c.logger.Debug("Resource preload failed", zap.String("url", full), zap.String("error", resp.Error))
		}
	}
}

// -- background prefetch --

// startNavigationPrefetch launches the calendar-navigation warmup as a
// tracked, cancellable task. It exists so the first absence view feels
// instant in a UI; correctness never depends on it.
func (c *Client) startNavigationPrefetch() {
	c.prefetchMu.Lock()
	defer c.prefetchMu.Unlock()
	if c.prefetchCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.prefetchCancel = cancel
	c.prefetchDone = done

	go func() {
		defer close(done)
		resp := transport.Get(ctx, c.transport, c.sess.BaseURL+intranetPath, htmlHeaders(), c.sess.Cookies())
		if resp.Failed() {
			c.logger.Debug("Navigation prefetch failed", zap.String("error", resp.Error))
			return
		}
		c.sess.CalendarNavigationPrefetched = true
	}()
}

// navigationPrefetched reports whether the background prefetch already
// finished and covered the intranet page. The flag is only read after
// the done channel closed, which orders it after the goroutine's write.
func (c *Client) navigationPrefetched() bool {
	c.prefetchMu.Lock()
	done := c.prefetchDone
	c.prefetchMu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return c.sess.CalendarNavigationPrefetched
	default:
		return false
	}
}

// stopNavigationPrefetch cancels the task and waits for it to finish.
func (c *Client) stopNavigationPrefetch() {
	c.prefetchMu.Lock()
	cancel, done := c.prefetchCancel, c.prefetchDone
	c.prefetchCancel, c.prefetchDone = nil, nil
	c.prefetchMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// -- steady-state dispatch --

// dispatch sends one RPC body. Everything except "connect" methods is
// BWP-encoded on the way out; responses are decoded iff they carry the
// marker. Transport and HTTP failures come back as errors; a payload
// carrying the server's exception marker is returned as-is, because at
// this layer it is a valid response (the parsers map it to "no data").
func (c *Client) dispatch(ctx context.Context, method, body string) (string, error) {
	wire := body
	if method != "connect" {
		wire = bwp.Encode(body, nil)
	}

	u := fmt.Sprintf("%s%s?ts=%d", c.sess.BaseURL, rpcPath, c.now().UnixMilli())
	resp := transport.Post(ctx, c.transport, u, []byte(wire),
		rpcHeaders(c.sess.BaseURL, c.sess.BwpToken()), c.sess.Cookies())
	if resp.Failed() {
		return "", fmt.Errorf("%w: %s %s: %s", ErrTransport, method, rpcPath, resp.Error)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("rpc %s returned status %d", method, resp.StatusCode)
	}
	c.absorbCookies(resp)

	if token := resp.Header("x-csrf-token"); token != "" {
		c.sess.SetBwpToken(token)
	}

	payload := string(resp.Body)
	if bwp.IsEncoded(payload) {
		payload = bwp.Decode(payload).Payload
	}
	return payload, nil
}

// absorbCookies folds every Set-Cookie header into the context.
func (c *Client) absorbCookies(resp *transport.Response) {
	for _, sc := range resp.SetCookies() {
		name, value, ok := parseSetCookie(sc)
		if ok {
			c.sess.SetCookie(name, value)
		}
	}
}

func parseSetCookie(sc string) (name, value string, ok bool) {
	head := sc
	if i := strings.IndexByte(sc, ';'); i >= 0 {
		head = sc[:i]
	}
	name, value, found := strings.Cut(head, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}
