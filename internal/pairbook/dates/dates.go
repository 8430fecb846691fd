// Package dates holds the pure anniversary arithmetic: D-Day counting and
// milestone derivation. All functions take the reference time explicitly so
// results are deterministic under test.
package dates

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

// Milestone is a named future or past date derived from an anniversary.
type Milestone struct {
	Label         string    `json:"label"`
	Date          time.Time `json:"date"`
	DaysRemaining int       `json:"days_remaining"` // negative once passed
	IsPassed      bool      `json:"is_passed"`      // strictly before today
}

// dayMilestones are the fixed day-count milestones. Day counting follows the
// D-Day convention: the anniversary itself is day 1, so the Nth day falls on
// anniversary + (N-1) days.
var dayMilestones = []int{100, 200, 300, 400, 500, 1000}

// yearMilestones are the fixed calendar anniversaries. These deliberately use
// calendar-year addition rather than day counting: the 1-year milestone is
// the same month/day one year later, leap years notwithstanding.
var yearMilestones = []int{1, 2, 3, 5, 10}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// wholeDays returns the number of whole days from a to b, both already
// truncated to midnight. Division by wall-clock hours would drift across DST
// transitions, so the delta is rounded to the nearest day.
func wholeDays(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d.Hours() / 24)
	// Round away DST skew: a "day" may be 23h or 25h long.
	if rem := d - time.Duration(days)*24*time.Hour; rem > 12*time.Hour {
		days++
	} else if rem < -12*time.Hour {
		days--
	}
	return days
}

// DDay returns the Korean-style day count for an anniversary: the anniversary
// date itself is day 1. Evaluated at any instant during the anniversary's own
// calendar day the result is exactly 1; each following midnight adds one.
func DDay(anniversary, now time.Time) int {
	return wholeDays(StartOfDay(anniversary), StartOfDay(now)) + 1
}

// Milestones returns the fixed day-count and year milestones for an
// anniversary, sorted ascending by date. DaysRemaining is signed (negative
// once the date is behind today) and IsPassed is true only for dates strictly
// before the start of the current day.
func Milestones(anniversary, now time.Time) []Milestone {
	today := StartOfDay(now)
	start := StartOfDay(anniversary)

	ms := make([]Milestone, 0, len(dayMilestones)+len(yearMilestones))

	for _, days := range dayMilestones {
		d := start.AddDate(0, 0, days-1)
		ms = append(ms, Milestone{
			Label:         fmt.Sprintf("%d days", days),
			Date:          d,
			DaysRemaining: wholeDays(today, d),
			IsPassed:      d.Before(today),
		})
	}

	for _, years := range yearMilestones {
		d := start.AddDate(years, 0, 0)
		ms = append(ms, Milestone{
			Label:         fmt.Sprintf("%d year anniversary", years),
			Date:          d,
			DaysRemaining: wholeDays(today, d),
			IsPassed:      d.Before(today),
		})
	}

	sort.Slice(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
	return ms
}

// GoogleCalendarLink builds a prefilled Google Calendar event-creation URL
// for an all-day event on the milestone date.
func GoogleCalendarLink(title string, date time.Time) string {
	day := date.Format("20060102")
	next := date.AddDate(0, 0, 1).Format("20060102")
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", day+"/"+next)
	q.Set("details", "Pair anniversary celebration!")
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
