package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/christophergoltz/elogio-sub000/internal/extract"
	"github.com/christophergoltz/elogio-sub000/internal/requests"
	"github.com/christophergoltz/elogio-sub000/internal/transport"
)

// ensureCalendarApp runs the calendar application bootstrap once per
// session. Every step is best-effort: the sequence mirrors what the
// real client sends, and individual failures are logged and skipped so
// one flaky asset cannot wedge absence queries. The two values the data
// layer actually needs, CalendarContextID and RealEmployeeID, are
// guarded by their own preconditions at call time.
func (c *Client) ensureCalendarApp(ctx context.Context) {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()
	if c.sess.CalendarAppInitialized {
		return
	}

	// Step 1: intranet navigation page, unless the background prefetch
	// already walked it.
	if !c.navigationPrefetched() {
		resp := transport.Get(ctx, c.transport, c.sess.BaseURL+intranetPath, htmlHeaders(), c.sess.Cookies())
		if resp.Failed() {
			c.logger.Debug("Calendar bootstrap: intranet page failed", zap.String("error", resp.Error))
		} else {
			c.absorbCookies(resp)
		}
	}

	// Step 2: the calendar JSP shell.
	resp := transport.Get(ctx, c.transport, c.sess.BaseURL+calendarPath, htmlHeaders(), c.sess.Cookies())
	if resp.Failed() {
		c.logger.Debug("Calendar bootstrap: calendar page failed", zap.String("error", resp.Error))
	} else {
		c.absorbCookies(resp)
	}

	// Steps 3 and 4: calendar module resources.
	c.preloadResources(ctx, calendarResources)

	// Step 5: calendar-scoped connect; its response names the context
	// id all calendar RPCs are addressed to.
	if body, err := c.dispatch(ctx, "connect", requests.CalendarConnect(c.sess.SessionID)); err != nil {
		c.logger.Warn("Calendar bootstrap: connect failed", zap.Error(err))
	} else if id := extract.ContextIDFromConnect(body); id != "" {
		c.sess.CalendarContextID = id
	} else {
		c.logger.Warn("Calendar bootstrap: connect carried no context id")
	}

	// Step 6: global presentation model.
	if _, err := c.dispatch(ctx, "getModelePresentation", requests.PresentationModel(c.sess.SessionID, "global")); err != nil {
		c.logger.Debug("Calendar bootstrap: global presentation model failed", zap.Error(err))
	}

	// Step 7: intranet parameters, which carry the employee id the
	// calendar services key on. It differs from the portal id on
	// delegated accounts, hence the second lookup.
	if body, err := c.dispatch(ctx, "getParametreIntranet", requests.ParametreIntranet(c.sess.SessionID)); err != nil {
		c.logger.Warn("Calendar bootstrap: parametre intranet failed", zap.Error(err))
	} else if id := extract.EmployeeFromParametreIntranet(body); id != 0 {
		c.sess.RealEmployeeID = id
	} else {
		c.logger.Warn("Calendar bootstrap: parametre intranet carried no employee id")
	}

	// Step 8: translation bundles, fanned out like the UI does, and the
	// absence presentation model.
	var wg sync.WaitGroup
	for _, prefix := range translationPrefixes {
		wg.Add(1)
		go func(prefix string) {
			defer wg.Done()
			if _, err := c.dispatch(ctx, "getTraductions", requests.Translations(c.sess.SessionID, prefix, c.cfg.Language)); err != nil {
				c.logger.Debug("Calendar bootstrap: translations failed",
					zap.String("prefix", prefix), zap.Error(err))
			}
		}(prefix)
	}
	wg.Wait()
	if _, err := c.dispatch(ctx, "getModelePresentation", requests.PresentationModel(c.sess.SessionID, "absence")); err != nil {
		c.logger.Debug("Calendar bootstrap: absence presentation model failed", zap.Error(err))
	}

	// Initialized even when steps failed: retrying the whole sequence
	// on every call would hammer the server for a permanently broken
	// step, and the precondition checks still catch missing ids.
	c.sess.CalendarAppInitialized = true
	c.logger.Info("Calendar application bootstrapped",
		zap.Bool("context_id", c.sess.CalendarContextID != ""),
		zap.Int64("real_employee_id", c.sess.RealEmployeeID))
}
