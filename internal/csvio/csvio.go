// Package csvio converts health entries to and from the spreadsheet-friendly
// CSV layout used for export and bulk import.
package csvio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourname/moodlog/internal"
)

// Header is the fixed first row: date, time, status label, rating, keywords,
// factor, comment, id.
var Header = []string{"日付", "時間", "体調", "評価", "キーワード", "影響要因", "コメント", "ID"}

const (
	colDate = iota
	colTime
	colStatus
	colRating
	colKeywords
	colFactor
	colComment
	colID
)

const (
	dateLayout = "2006/01/02"
	timeLayout = "15:04:05"
	utf8BOM    = "\ufeff"
	minFields  = 3
)

// Encode renders entries oldest first. Entries whose date does not parse
// keep their stored order at the end, with empty date and time columns.
func Encode(entries []internal.HealthEntry) string {
	type row struct {
		entry internal.HealthEntry
		at    time.Time
		ok    bool
	}
	rows := make([]row, len(entries))
	for i, e := range entries {
		t, err := internal.ParseTimestamp(e.Date)
		rows[i] = row{entry: e, at: t, ok: err == nil}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].ok && rows[i].at.Before(rows[j].at)
	})

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, joinRecord(Header))
	for _, r := range rows {
		e := r.entry
		var date, clock string
		if r.ok {
			local := r.at.In(internal.DisplayZone)
			date, clock = local.Format(dateLayout), local.Format(timeLayout)
		}
		rating := ""
		if e.Rating != 0 {
			rating = strconv.Itoa(e.Rating)
		}
		lines = append(lines, joinRecord([]string{
			date,
			clock,
			e.Status.Label(),
			rating,
			strings.Join(e.Keywords, ", "),
			e.Factor,
			e.Comment,
			e.ID,
		}))
	}
	return strings.Join(lines, "\n")
}

func joinRecord(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	return strings.Join(quoted, ",")
}

// quoteField wraps f in quotes, doubling inner quotes, only when it holds a
// comma, a line break or a quote.
func quoteField(f string) string {
	if !strings.ContainsAny(f, ",\n\r\"") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// Decode parses CSV text produced by Encode or edited in a spreadsheet. now
// seeds ids for rows that have none. The returned entries have no UserID.
func Decode(text string, now time.Time) ([]internal.HealthEntry, error) {
	entries := []internal.HealthEntry{}
	for row, record := range splitRecords(strings.TrimPrefix(text, utf8BOM)) {
		if row == 0 || len(record) < minFields {
			continue
		}
		entries = append(entries, decodeRecord(record, row, now))
	}
	return entries, nil
}

// splitRecords breaks text into records. A quoted field may span lines, but
// a malformed one only damages its own line: that record is re-read from its
// first line alone and scanning resumes after it.
func splitRecords(text string) [][]string {
	var records [][]string
	for text != "" {
		record, rest, ok := scanRecord(text)
		if !ok {
			line, after, _ := strings.Cut(text, "\n")
			record, _, _ = scanRecord(line)
			rest = after
		}
		records = append(records, record)
		text = rest
	}
	return records
}

// scanRecord reads one record from the front of text. A quote toggles quoted
// mode wherever it appears; inside quotes a doubled quote is one literal quote
// and commas and line breaks are data. ok is false when the text runs out
// inside quotes, or when a quoted run that crossed a line break is not closed
// right before a comma or the end of a line.
func scanRecord(text string) (fields []string, rest string, ok bool) {
	var field strings.Builder
	inQuotes, crossedLine := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(text) && text[i+1] == '"':
			field.WriteByte('"')
			i++
		case c == '"' && inQuotes:
			if crossedLine && i+1 < len(text) && !strings.ContainsRune(",\r\n", rune(text[i+1])) {
				return nil, "", false
			}
			inQuotes = false
		case c == '"':
			inQuotes, crossedLine = true, false
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		case c == '\n' && !inQuotes:
			return append(fields, strings.TrimSuffix(field.String(), "\r")), text[i+1:], true
		default:
			if c == '\n' {
				crossedLine = true
			}
			field.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSuffix(field.String(), "\r")), "", !inQuotes
}

func decodeRecord(record []string, row int, now time.Time) internal.HealthEntry {
	field := func(i int) string { return strings.TrimSpace(rawField(record, i)) }

	status := internal.StatusFromLabel(field(colStatus))
	rating, err := strconv.Atoi(field(colRating))
	if err != nil || rating < 1 || rating > 5 {
		rating = status.Rating()
	}

	id := field(colID)
	if id == "" {
		id = fmt.Sprintf("%d-%d", now.UnixMilli(), row)
	}

	return internal.HealthEntry{
		ID:       id,
		Date:     combineDate(field(colDate), field(colTime)),
		Status:   status,
		Rating:   rating,
		Comment:  rawField(record, colComment),
		Keywords: splitKeywords(field(colKeywords)),
		Factor:   field(colFactor),
	}
}

// combineDate joins the date and time columns and normalizes them to an ISO
// timestamp. An unparseable value is kept as written so readers can skip it.
func combineDate(date, clock string) string {
	raw := date
	if clock != "" && !strings.Contains(date, "T") {
		raw = date + " " + clock
	}
	t, err := internal.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return internal.FormatISO(t)
}

func rawField(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func splitKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
