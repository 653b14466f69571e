// Package rota turns untrusted clinic rota HTML into structured shift
// records: date/time token recognition, role extraction, table walking,
// and the per-clinic scraper that normalizes every failure into data.
package rota

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rota pages omit the year more often than not, so dates are resolved
// against an explicit "now" that callers inject. The thresholds below are
// fixed constants tuned against observed portals; do not re-derive them.
const (
	// octoberLookaheadDays: in October, a year-less date more than this
	// many days ahead is taken to mean next year.
	octoberLookaheadDays = 30
)

var (
	// ErrYearImplausible means the resolved year fell outside the allowed
	// window; the caller should drop the whole row.
	ErrYearImplausible = errors.New("resolved year outside plausibility window")

	// ErrInvalidDate means the matched token does not name a real calendar
	// day (e.g. 31 February); the caller keeps the raw text as a display
	// fallback.
	ErrInvalidDate = errors.New("matched token is not a valid calendar date")
)

// DatePattern identifies which rule in the ordered pattern list produced a
// match. The first matching pattern wins; callers must not keep searching
// after a hit.
type DatePattern string

const (
	PatternWeekdayDayMonthYear DatePattern = "weekday-day-month-year" // "Wednesday 17 December 2025"
	PatternWeekdayNumericYear  DatePattern = "weekday-numeric-year"   // "Wed 17/12/2025"
	PatternWeekdayNumeric      DatePattern = "weekday-numeric"        // "Wed 17/12"
	PatternWeekdayDayMonth     DatePattern = "weekday-day-month"      // "Wednesday 17 December"
	PatternNumericFull         DatePattern = "numeric-full"           // "17/12/2025", "17-12-2025", "17.12.2025"
	PatternISO                 DatePattern = "iso"                    // "2025-12-17"
	PatternNumericPartial      DatePattern = "numeric-partial"        // "17/12", "17-12"
	PatternDayMonthYear        DatePattern = "day-month-year"         // "17 December 2025"
	PatternMonthDayYear        DatePattern = "month-day-year"         // "December 17, 2025"
)

// DateMatch is the tagged result of a successful pattern match. Year is 0
// when the pattern carries no year; Resolve infers one.
type DateMatch struct {
	Pattern DatePattern
	Raw     string
	Day     int
	Month   int
	Year    int
}

const (
	weekdayExpr = `(?:mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:r(?:s(?:day)?)?)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)`
	monthExpr   = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	ordinalExpr = `(?:st|nd|rd|th)?`
)

type dateRule struct {
	pattern DatePattern
	re      *regexp.Regexp
	// build maps the capture groups onto day/month/year. A false return
	// means the groups do not form a usable match and the next rule is
	// tried.
	build func(groups []string) (day, month, year int, ok bool)
}

var dateRules = []dateRule{
	{
		pattern: PatternWeekdayDayMonthYear,
		re:      regexp.MustCompile(`(?i)\b` + weekdayExpr + `[,.]?\s+(\d{1,2})` + ordinalExpr + `\s+(` + monthExpr + `)\s+(\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), monthIndex(g[2]), atoi(g[3]), monthIndex(g[2]) > 0
		},
	},
	{
		pattern: PatternWeekdayNumericYear,
		re:      regexp.MustCompile(`(?i)\b` + weekdayExpr + `[,.]?\s+(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), atoi(g[2]), atoi(g[3]), true
		},
	},
	{
		pattern: PatternWeekdayNumeric,
		re:      regexp.MustCompile(`(?i)\b` + weekdayExpr + `[,.]?\s+(\d{1,2})[/\-.](\d{1,2})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), atoi(g[2]), 0, true
		},
	},
	{
		pattern: PatternWeekdayDayMonth,
		re:      regexp.MustCompile(`(?i)\b` + weekdayExpr + `[,.]?\s+(\d{1,2})` + ordinalExpr + `\s+(` + monthExpr + `)\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), monthIndex(g[2]), 0, monthIndex(g[2]) > 0
		},
	},
	{
		pattern: PatternNumericFull,
		re:      regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), atoi(g[2]), atoi(g[3]), true
		},
	},
	{
		pattern: PatternISO,
		re:      regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[3]), atoi(g[2]), atoi(g[1]), true
		},
	},
	{
		pattern: PatternNumericPartial,
		re:      regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), atoi(g[2]), 0, true
		},
	},
	{
		pattern: PatternDayMonthYear,
		re:      regexp.MustCompile(`(?i)\b(\d{1,2})` + ordinalExpr + `\s+(` + monthExpr + `)\s+(\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[1]), monthIndex(g[2]), atoi(g[3]), monthIndex(g[2]) > 0
		},
	},
	{
		pattern: PatternMonthDayYear,
		re:      regexp.MustCompile(`(?i)\b(` + monthExpr + `)\s+(\d{1,2})` + ordinalExpr + `,?\s+(\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[2]), monthIndex(g[1]), atoi(g[3]), monthIndex(g[1]) > 0
		},
	},
}

// MatchDate runs the ordered pattern list over free-form cell text and
// returns the first usable match. Patterns that match textually but carry
// an impossible month or day-of-month fall through to the next rule.
func MatchDate(text string) (DateMatch, bool) {
	for _, rule := range dateRules {
		loc := rule.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		groups := make([]string, rule.re.NumSubexp()+1)
		for i := 0; i <= rule.re.NumSubexp(); i++ {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		day, month, year, ok := rule.build(groups)
		if !ok || month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		return DateMatch{
			Pattern: rule.pattern,
			Raw:     text[loc[0]:loc[1]],
			Day:     day,
			Month:   month,
			Year:    year,
		}, true
	}
	return DateMatch{}, false
}

// Resolve turns a match into a concrete calendar date. Year-less matches
// go through year inference against now; all results then pass the
// plausibility window. Returns ErrYearImplausible when the year falls
// outside the window and ErrInvalidDate when the day does not exist in the
// resolved month.
func (m DateMatch) Resolve(now time.Time) (time.Time, error) {
	year := m.Year
	if year == 0 {
		year = inferYear(m.Day, m.Month, now)
	}

	minYear, maxYear := plausibleYears(now)
	if year < minYear || year > maxYear {
		return time.Time{}, fmt.Errorf("%w: year %d not in [%d, %d]", ErrYearImplausible, year, minYear, maxYear)
	}

	resolved := time.Date(year, time.Month(m.Month), m.Day, 0, 0, 0, 0, time.UTC)
	if resolved.Year() != year || resolved.Month() != time.Month(m.Month) || resolved.Day() != m.Day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, m.Raw)
	}
	return resolved, nil
}

// ExtractDate is the convenience form: first matching pattern, resolved
// and canonicalized to YYYY-MM-DD. The second return is false when no
// pattern matched or the match could not be resolved.
func ExtractDate(text string, now time.Time) (string, bool) {
	m, ok := MatchDate(text)
	if !ok {
		return "", false
	}
	resolved, err := m.Resolve(now)
	if err != nil {
		return "", false
	}
	return resolved.Format("2006-01-02"), true
}

// ParseShiftDate re-parses a stored shift date, tolerating both the
// canonical form and display-text fallbacks.
func ParseShiftDate(value string, now time.Time) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	m, ok := MatchDate(value)
	if !ok {
		return time.Time{}, false
	}
	resolved, err := m.Resolve(now)
	if err != nil {
		return time.Time{}, false
	}
	return resolved, true
}

// inferYear resolves a year-less day/month. Rota pages describe forward
// planning: a date already behind us belongs to next year, and in the
// year-end months (November onward) a year-less date is always next
// year's. In October the same applies once the date sits more than
// octoberLookaheadDays out.
func inferYear(day, month int, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	trial := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)

	switch {
	case trial.Before(today):
		return now.Year() + 1
	case now.Month() >= time.November:
		return now.Year() + 1
	case now.Month() == time.October && trial.Sub(today) > octoberLookaheadDays*24*time.Hour:
		return now.Year() + 1
	default:
		return now.Year()
	}
}

// plausibleYears is the allowed window for a resolved shift year. From
// November onward the current year is no longer plausible, since every
// remaining rota entry describes next year.
func plausibleYears(now time.Time) (minYear, maxYear int) {
	minYear = now.Year()
	if now.Month() >= time.November {
		minYear = now.Year() + 1
	}
	return minYear, now.Year() + 1
}

type timeRule struct {
	re    *regexp.Regexp
	build func(groups []string) (hour, minute int, ok bool)
}

var timeRules = []timeRule{
	{
		// "9:30pm", "09:30 AM"
		re: regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)\b`),
		build: func(g []string) (int, int, bool) {
			hour, ok := meridiemHour(atoi(g[1]), g[3])
			return hour, atoi(g[2]), ok && atoi(g[2]) < 60
		},
	},
	{
		// "7pm", "11 am"
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`),
		build: func(g []string) (int, int, bool) {
			hour, ok := meridiemHour(atoi(g[1]), g[2])
			return hour, 0, ok
		},
	},
	{
		// "18.45"
		re: regexp.MustCompile(`\b(\d{1,2})\.(\d{2})\b`),
		build: func(g []string) (int, int, bool) {
			return atoi(g[1]), atoi(g[2]), atoi(g[1]) < 24 && atoi(g[2]) < 60
		},
	},
	{
		// "18:45"
		re: regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`),
		build: func(g []string) (int, int, bool) {
			return atoi(g[1]), atoi(g[2]), atoi(g[1]) < 24 && atoi(g[2]) < 60
		},
	},
}

// ExtractTime recognizes the first time token in cell text and normalizes
// it onto a 24-hour HH:MM clock. 12am maps to 00, 12pm stays 12.
func ExtractTime(text string) (string, bool) {
	for _, rule := range timeRules {
		groups := rule.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		hour, minute, ok := rule.build(groups)
		if !ok {
			continue
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}
	return "", false
}

func meridiemHour(hour int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 {
		return 0, false
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if hour == 12 {
			return 0, true
		}
		return hour, true
	case "pm":
		if hour == 12 {
			return 12, true
		}
		return hour + 12, true
	}
	return 0, false
}

var monthsByPrefix = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func monthIndex(name string) int {
	lower := strings.ToLower(name)
	if len(lower) < 3 {
		return 0
	}
	return monthsByPrefix[lower[:3]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
