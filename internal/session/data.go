package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/christophergoltz/elogio-sub000/internal/extract"
	"github.com/christophergoltz/elogio-sub000/internal/requests"
)

// requireLogin gates every data call on an authenticated context.
func (c *Client) requireLogin() error {
	if !c.sess.IsAuthenticated || c.sess.SessionID == "" {
		return fmt.Errorf("%w: not logged in", ErrPrecondition)
	}
	return nil
}

// Presence fetches the presence sheet for the week containing anchor.
// A nil result with nil error means the server had no data for that
// week (typically a week outside the employment period).
func (c *Client) Presence(ctx context.Context, anchor time.Time) (*extract.WeekPresence, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if c.sess.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: employee id unknown", ErrPrecondition)
	}

	body, err := c.dispatch(ctx, "getSemainePresence", requests.WeekPresence(c.sess.SessionID, c.sess.EmployeeID, anchor))
	if err != nil {
		return nil, err
	}
	return extract.WeekPresenceFromResponse(body), nil
}

// PresenceRange fetches presence for every week anchor, fanned out with
// bounded concurrency. A transport error on any week fails the whole
// range; weeks the server has no data for yield nil entries in place.
func (c *Client) PresenceRange(ctx context.Context, anchors []time.Time) ([]*extract.WeekPresence, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if c.sess.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: employee id unknown", ErrPrecondition)
	}

	out := make([]*extract.WeekPresence, len(anchors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchConcurrency)
	for i, anchor := range anchors {
		i, anchor := i, anchor
		g.Go(func() error {
			body, err := c.dispatch(gctx, "getSemainePresence", requests.WeekPresence(c.sess.SessionID, c.sess.EmployeeID, anchor))
			if err != nil {
				return err
			}
			out[i] = extract.WeekPresenceFromResponse(body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Absences fetches the absence calendar for [from, to]. First use
// triggers the calendar application bootstrap.
func (c *Client) Absences(ctx context.Context, from, to time.Time) (*extract.AbsenceCalendar, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	c.ensureCalendarApp(ctx)
	if c.sess.CalendarContextID == "" {
		return nil, fmt.Errorf("%w: calendar context id unknown", ErrPrecondition)
	}
	if c.sess.RealEmployeeID == 0 {
		return nil, fmt.Errorf("%w: calendar employee id unknown", ErrPrecondition)
	}

	body, err := c.dispatch(ctx, "getCalendrierAbsences",
		requests.AbsenceCalendar(c.sess.SessionID, c.sess.CalendarContextID, c.sess.RealEmployeeID, from, to))
	if err != nil {
		return nil, err
	}
	return extract.AbsenceCalendarFromResponse(body), nil
}

// Punch records a clock event for the given instant and reports what
// the terminal answered. A nil result with nil error means the server
// rejected the punch without raising a transport-level error.
func (c *Client) Punch(ctx context.Context, at time.Time) (*extract.PunchResult, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if c.sess.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: employee id unknown", ErrPrecondition)
	}

	body, err := c.dispatch(ctx, "badgerSignaler", requests.Punch(c.sess.SessionID, c.sess.EmployeeID, at))
	if err != nil {
		return nil, err
	}
	return extract.PunchFromResponse(body, at), nil
}

// Colleagues fetches the team absence grid for the month containing
// monthStart. First use triggers the calendar application bootstrap.
func (c *Client) Colleagues(ctx context.Context, monthStart time.Time) (*extract.ColleagueGrid, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	c.ensureCalendarApp(ctx)
	if c.sess.CalendarContextID == "" {
		return nil, fmt.Errorf("%w: calendar context id unknown", ErrPrecondition)
	}

	body, err := c.dispatch(ctx, "getAbsencesCollegues",
		requests.ColleagueAbsences(c.sess.SessionID, c.sess.CalendarContextID, monthStart, c.now()))
	if err != nil {
		return nil, err
	}
	return extract.ColleagueGridFromResponse(body), nil
}
