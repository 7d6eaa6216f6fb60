// Package requests contains the stateless factories that render the
// canonical RPC bodies the portal expects. The server validates these
// shapes byte for byte: a misplaced type ref or a reordered table entry
// yields the opaque ExceptionBWT marker instead of a usable error, so
// every template here reproduces a captured request exactly. Dates are
// always 8-digit YYYYMMDD integer literals; timestamps switch between
// unix seconds and unix millis depending on the call site, and that
// switch is load-bearing.
package requests

import (
	"fmt"
	"time"
)

// Service type names used in request envelopes.
const (
	globalServiceType      = "com.bodet.portal.GlobalServiceRequeteBWT"
	bwpServiceType         = "com.bodet.bwp.BwpServiceRequeteBWT"
	presenceServiceType    = "com.bodet.temps.SemainePresenceRequeteBWT"
	absenceServiceType     = "com.bodet.conges.CalendrierAbsenceRequeteBWT"
	badgeServiceType       = "com.bodet.badge.BadgerSignalerRequeteBWT"
	colleagueServiceType   = "com.bodet.conges.AbsenceCollegueRequeteBWT"
	parametreServiceType   = "com.bodet.portal.ParametreIntranetRequeteBWT"
	presentationModelType  = "com.bodet.portal.ModelePresentationRequeteBWT"
	translationServiceType = "com.bodet.portal.TraductionRequeteBWT"
)

// DateLiteral renders a date as the portal's 8-digit YYYYMMDD integer.
func DateLiteral(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// GlobalConnect is the raw (never BWP-encoded) GlobalService handshake.
// Its response is mined for the employee id and display name.
func GlobalConnect(sessionID string) string {
	return fmt.Sprintf(`5,"%s","connect","ChaineBWT","%s","NULL",1,2,3,4,0`,
		globalServiceType, sessionID)
}

// CalendarConnect is the calendar-scoped GlobalService handshake issued
// during calendar-app bootstrap; its response carries the calendar
// context id.
func CalendarConnect(sessionID string) string {
	return fmt.Sprintf(`6,"%s","connect","ChaineBWT","%s","ChaineBWT","calendrier",1,2,3,4,5,6`,
		globalServiceType, sessionID)
}

// BwpConnect is the raw BWP-service handshake whose response header
// carries the fresh CSRF token used by all later encoded calls.
func BwpConnect(sessionID string) string {
	return fmt.Sprintf(`4,"%s","connect","ChaineBWT","%s",1,2,3,4`,
		bwpServiceType, sessionID)
}

// WeekPresence requests one employee week. anchor is any day of the
// wanted week; the server snaps it to the week start.
func WeekPresence(sessionID string, employeeID int64, anchor time.Time) string {
	return fmt.Sprintf(`6,"%s","getSemainePresence","ChaineBWT","%s","EntierBWT","EntierBWT",1,2,3,4,5,%d,6,%d`,
		presenceServiceType, sessionID, employeeID, DateLiteral(anchor))
}

// AbsenceCalendar requests the absence view between two dates. It takes
// the HR-scoped real employee id and the calendar context id, both of
// which only exist after calendar-app bootstrap.
func AbsenceCalendar(sessionID, calendarContextID string, realEmployeeID int64, from, to time.Time) string {
	return fmt.Sprintf(`7,"%s","getCalendrierAbsences","ChaineBWT","%s","ChaineBWT","%s","EntierBWT",1,2,3,4,5,6,7,%d,%d,%d`,
		absenceServiceType, sessionID, calendarContextID, realEmployeeID, DateLiteral(from), DateLiteral(to))
}

// Punch requests a badge event. The trailing timestamp is unix seconds;
// the server rejects millis here.
func Punch(sessionID string, employeeID int64, at time.Time) string {
	return fmt.Sprintf(`5,"%s","badgerSignaler","ChaineBWT","%s","EntierBWT",1,2,3,4,5,%d,%d`,
		badgeServiceType, sessionID, employeeID, at.Unix())
}

// ColleagueAbsences requests the multi-employee grid for the month
// containing the given date. The trailing timestamp is unix millis; the
// server rejects seconds here.
func ColleagueAbsences(sessionID, calendarContextID string, monthStart time.Time, now time.Time) string {
	return fmt.Sprintf(`6,"%s","getAbsencesCollegues","ChaineBWT","%s","ChaineBWT","%s",1,2,3,4,5,6,%d,%d`,
		colleagueServiceType, sessionID, calendarContextID, DateLiteral(monthStart), now.UnixMilli())
}

// ParametreIntranet requests the intranet parameter block whose response
// carries the HR-scoped real employee id.
func ParametreIntranet(sessionID string) string {
	return fmt.Sprintf(`4,"%s","getParametreIntranet","ChaineBWT","%s",1,2,3,4`,
		parametreServiceType, sessionID)
}

// PresentationModel requests a named presentation model (the calendar
// bootstrap loads the global and absence models).
func PresentationModel(sessionID, model string) string {
	return fmt.Sprintf(`6,"%s","getModelePresentation","ChaineBWT","%s","ChaineBWT","%s",1,2,3,4,5,6`,
		presentationModelType, sessionID, model)
}

// Translations requests one localized message bundle prefix.
func Translations(sessionID, prefix, lang string) string {
	return fmt.Sprintf(`8,"%s","getTraductions","ChaineBWT","%s","ChaineBWT","%s","ChaineBWT","%s",1,2,3,4,5,6,7,8`,
		translationServiceType, sessionID, prefix, lang)
}
