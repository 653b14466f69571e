package rota

import (
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// Rota tables carry a "Shift Date" header by convention, but the portals
// are independently operated and the convention slips. Table selection
// prefers headed tables and degrades to walking every table in the
// document rather than failing.
const rotaHeaderMarker = "shift date"

var (
	numericHintRe  = regexp.MustCompile(`\d{1,2}[:\-/.]\d{1,2}`)
	weekdayHintRe  = regexp.MustCompile(`(?i)\b` + weekdayExpr + `\b`)
	meridiemHintRe = regexp.MustCompile(`(?i)\b\d{1,2}\s*(?:am|pm)\b`)
)

// ExtractShifts walks the parsed document and assembles one ShiftRecord
// per table row that carries a recognizable date or time. Role-only rows
// are discarded, and rows whose date resolves outside the plausibility
// window are skipped entirely.
func ExtractShifts(doc *goquery.Document, clinicLabel string, now time.Time) []entities.ShiftRecord {
	shifts := []entities.ShiftRecord{}
	rotaTables(doc).Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if record, ok := extractRow(row, now); ok {
				shifts = append(shifts, record)
			}
		})
	})
	if len(shifts) == 0 {
		log.Printf("[rota] %s: no shifts extracted", clinicLabel)
	}
	return shifts
}

// rotaTables returns the tables whose header row mentions the rota marker,
// or every table in the document when none do.
func rotaTables(doc *goquery.Document) *goquery.Selection {
	all := doc.Find("table")
	headed := all.FilterFunction(func(_ int, table *goquery.Selection) bool {
		header := cellText(table.Find("tr").First())
		return strings.Contains(strings.ToLower(header), rotaHeaderMarker)
	})
	if headed.Length() > 0 {
		return headed
	}
	return all
}

// extractRow tests the first cell plus any date/time-looking cell against
// the date and time extractors, unions roles across every cell, and
// reports whether the row amounts to a shift.
func extractRow(row *goquery.Selection, now time.Time) (entities.ShiftRecord, bool) {
	var record entities.ShiftRecord
	var dateFound, timeFound, skipRow bool

	row.Find("td, th").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		text := cellText(cell)
		if text == "" {
			return true
		}

		record.JobRoles = append(record.JobRoles, ExtractRoles(text)...)

		if i != 0 && !isDateCandidate(text) {
			return true
		}

		remaining := text
		if !dateFound {
			if m, ok := MatchDate(text); ok {
				dateFound = true
				resolved, err := m.Resolve(now)
				switch {
				case errors.Is(err, ErrYearImplausible):
					skipRow = true
					return false
				case err != nil:
					// Not a real calendar day; keep the page's own text
					// rather than dropping the row.
					record.Date = m.Raw
				default:
					record.Date = resolved.Format(entities.CanonicalDateLayout)
				}
				// Dotted numeric dates would otherwise re-match as HH.MM.
				remaining = strings.Replace(text, m.Raw, " ", 1)
			}
		}
		if !timeFound {
			if t, ok := ExtractTime(remaining); ok {
				record.Time = t
				timeFound = true
			}
		}
		return true
	})

	if skipRow || (!dateFound && !timeFound) {
		return entities.ShiftRecord{}, false
	}
	return record, true
}

// isDateCandidate reports whether cell text looks date- or time-bearing:
// it names the concept, contains a numeric day/time shape, or starts a
// weekday name.
func isDateCandidate(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		return true
	}
	return numericHintRe.MatchString(text) || weekdayHintRe.MatchString(text) || meridiemHintRe.MatchString(text)
}

// cellText strips script/style/noscript content and collapses whitespace.
// The clone keeps the removal from mutating the shared document.
func cellText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}
