package dates_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/soyj/pairbook/internal/pairbook/dates"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestDDayAnniversaryItselfIsDayOne(t *testing.T) {
	anniversary := date(2024, time.January, 1)

	// At local midnight of the anniversary the count is exactly 1.
	if got := dates.DDay(anniversary, anniversary); got != 1 {
		t.Errorf("DDay at midnight of anniversary = %d, want 1", got)
	}
	// Any instant later the same day still counts as day 1.
	evening := anniversary.Add(23*time.Hour + 59*time.Minute)
	if got := dates.DDay(anniversary, evening); got != 1 {
		t.Errorf("DDay on evening of anniversary = %d, want 1", got)
	}
}

func TestDDayCounting(t *testing.T) {
	anniversary := date(2024, time.January, 1)

	cases := []struct {
		now  time.Time
		want int
	}{
		{date(2024, time.January, 2), 2},
		{date(2024, time.January, 31), 31},
		// 2024-04-09 is day 100 under the day-1 convention.
		{date(2024, time.April, 9), 100},
		{date(2025, time.January, 1), 367}, // 2024 is a leap year
	}
	for _, tc := range cases {
		if got := dates.DDay(anniversary, tc.now); got != tc.want {
			t.Errorf("DDay(%s, %s) = %d, want %d",
				anniversary.Format("2006-01-02"), tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestMilestoneDayDates(t *testing.T) {
	anniversary := date(2024, time.January, 1)
	now := date(2024, time.February, 1)

	ms := dates.Milestones(anniversary, now)
	byLabel := map[string]dates.Milestone{}
	for _, m := range ms {
		byLabel[m.Label] = m
	}

	// Day milestones land on anniversary + (N-1) days.
	for _, n := range []int{100, 200, 300, 400, 500, 1000} {
		label := fmt.Sprintf("%d days", n)
		m, ok := byLabel[label]
		if !ok {
			t.Fatalf("missing milestone %q", label)
		}
		want := anniversary.AddDate(0, 0, n-1)
		if !m.Date.Equal(want) {
			t.Errorf("%s: date = %s, want %s", label, m.Date.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}

	// Year milestones track the calendar date, not a day count.
	for _, y := range []int{1, 2, 3, 5, 10} {
		label := fmt.Sprintf("%d year anniversary", y)
		m, ok := byLabel[label]
		if !ok {
			t.Fatalf("missing milestone %q", label)
		}
		want := date(2024+y, time.January, 1)
		if !m.Date.Equal(want) {
			t.Errorf("%s: date = %s, want %s", label, m.Date.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestMilestonesSortedAscending(t *testing.T) {
	ms := dates.Milestones(date(2020, time.June, 15), date(2024, time.March, 1))
	for i := 1; i < len(ms); i++ {
		if ms[i].Date.Before(ms[i-1].Date) {
			t.Errorf("milestones out of order at %d: %s after %s",
				i, ms[i-1].Date.Format("2006-01-02"), ms[i].Date.Format("2006-01-02"))
		}
	}
}

func TestMilestonePassedAndRemaining(t *testing.T) {
	anniversary := date(2024, time.January, 1)
	// Day 100 is 2024-04-09; evaluate that exact day.
	now := date(2024, time.April, 9)

	ms := dates.Milestones(anniversary, now)
	for _, m := range ms {
		// IsPassed iff strictly before today; DaysRemaining negative iff passed.
		if m.IsPassed != m.Date.Before(now) {
			t.Errorf("%s: IsPassed = %v inconsistent with date %s vs today %s",
				m.Label, m.IsPassed, m.Date.Format("2006-01-02"), now.Format("2006-01-02"))
		}
		if m.IsPassed && m.DaysRemaining >= 0 {
			t.Errorf("%s: passed milestone has DaysRemaining %d, want negative", m.Label, m.DaysRemaining)
		}
		if !m.IsPassed && m.DaysRemaining < 0 {
			t.Errorf("%s: upcoming milestone has DaysRemaining %d, want >= 0", m.Label, m.DaysRemaining)
		}
		if m.Label == "100 days" {
			// The milestone falls on today: not passed, zero days remaining.
			if m.IsPassed {
				t.Error("100 days: milestone on today must not be passed")
			}
			if m.DaysRemaining != 0 {
				t.Errorf("100 days: DaysRemaining = %d, want 0", m.DaysRemaining)
			}
		}
	}

	// One day later the 100-day milestone is passed with negative remaining.
	ms = dates.Milestones(anniversary, date(2024, time.April, 10))
	for _, m := range ms {
		if m.Label == "100 days" {
			if !m.IsPassed || m.DaysRemaining != -1 {
				t.Errorf("100 days on day 101: IsPassed=%v DaysRemaining=%d, want true/-1", m.IsPassed, m.DaysRemaining)
			}
		}
	}
}

func TestGoogleCalendarLink(t *testing.T) {
	link := dates.GoogleCalendarLink("100 days", date(2024, time.April, 9))
	if want := "dates=20240409%2F20240410"; !strings.Contains(link, want) {
		t.Errorf("link %q missing %q", link, want)
	}
	if !strings.Contains(link, "action=TEMPLATE") {
		t.Errorf("link %q missing action param", link)
	}
}
