package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"finbot/internal/core"
)

var foldAccents = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

var (
	lastNDaysRe = regexp.MustCompile(`\b(?:ultimos|last|past)\s+(\d{1,3})\s+(?:dias|days)\b`)
	lastWeekRe  = regexp.MustCompile(`\b(?:semana pasada|semana anterior|last week)\b`)
	thisWeekRe  = regexp.MustCompile(`\b(?:esta semana|this week)\b`)
	lastMonthRe = regexp.MustCompile(`\b(?:mes pasado|mes anterior|last month)\b`)
	thisMonthRe = regexp.MustCompile(`\b(?:este mes|this month)\b`)
	thisYearRe  = regexp.MustCompile(`\b(?:este ano|this year)\b`)
	dayBeforeRe = regexp.MustCompile(`\b(?:anteayer|antes de ayer|day before yesterday)\b`)
	yesterdayRe = regexp.MustCompile(`\b(?:ayer|yesterday)\b`)
	todayRe     = regexp.MustCompile(`\b(?:hoy|today)\b`)
	spanRe      = regexp.MustCompile(`\b(?:desde|hasta|entre|since|from|until)\b`)
)

// NamesSpan reports whether text bounds its period explicitly, as in
// "desde el lunes hasta hoy". A relative phrase in such text is only one
// end of the period.
func NamesSpan(text string) bool {
	return spanRe.MatchString(foldAccents.Replace(strings.ToLower(text)))
}

// ResolveRange turns a relative period named in text into concrete dates
// computed from now. It reports false when no known phrase is present.
//
// Weeks start on Monday. "Last N days" spans from N days ago to today.
func ResolveRange(text string, now time.Time) (core.DateRange, bool) {
	s := foldAccents.Replace(strings.ToLower(text))
	today := core.DateOf(now)
	y, m := today.Year(), int(today.Month())

	if match := lastNDaysRe.FindStringSubmatch(s); match != nil {
		n, err := strconv.Atoi(match[1])
		if err == nil {
			return core.DateRange{Start: today.AddDays(-n), End: today}, true
		}
	}

	weekStart := today.AddDays(-((int(today.Weekday()) + 6) % 7))
	switch {
	case lastWeekRe.MatchString(s):
		return core.DateRange{Start: weekStart.AddDays(-7), End: weekStart.AddDays(-1)}, true
	case thisWeekRe.MatchString(s):
		return core.DateRange{Start: weekStart, End: today}, true
	case lastMonthRe.MatchString(s):
		return core.DateRange{Start: core.NewDate(y, m-1, 1), End: core.NewDate(y, m, 0)}, true
	case thisMonthRe.MatchString(s):
		return core.DateRange{Start: core.NewDate(y, m, 1), End: core.NewDate(y, m+1, 0)}, true
	case thisYearRe.MatchString(s):
		return core.DateRange{Start: core.NewDate(y, 1, 1), End: core.NewDate(y, 12, 31)}, true
	case dayBeforeRe.MatchString(s):
		d := today.AddDays(-2)
		return core.DateRange{Start: d, End: d}, true
	case yesterdayRe.MatchString(s):
		d := today.AddDays(-1)
		return core.DateRange{Start: d, End: d}, true
	case todayRe.MatchString(s):
		return core.DateRange{Start: today, End: today}, true
	}
	return core.DateRange{}, false
}
