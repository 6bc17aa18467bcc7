// Package importer maps CSV or JSON exports of reading rosters onto booking
// save requests. Column names vary between parishes, so the mapper guesses
// the relevant columns from a list of names seen in the wild and falls back
// to positional defaults.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lektora/slot-booking/internal/booking"
)

var (
	dateKeys   = []string{"date", "datum", "day"}
	timeKeys   = []string{"time", "start", "startTime", "cas"}
	endKeys    = []string{"end", "endTime"}
	lectorKeys = []string{"lector", "lektor", "name"}
	slotKeys   = []string{"slot", "slotIndex"}
)

// Mapping names the source column for each booking field. End and Slot may
// be empty.
type Mapping struct {
	Date   string
	Time   string
	End    string
	Lector string
	Slot   string
}

// GuessMapping picks source columns by name, case-insensitively, with
// positional fallbacks for the three required fields.
func GuessMapping(columns []string) Mapping {
	m := Mapping{
		Date:   guessColumn(columns, dateKeys),
		Time:   guessColumn(columns, timeKeys),
		End:    guessColumn(columns, endKeys),
		Lector: guessColumn(columns, lectorKeys),
		Slot:   guessColumn(columns, slotKeys),
	}
	if m.Date == "" && len(columns) > 0 {
		m.Date = columns[0]
	}
	if m.Time == "" && len(columns) > 1 {
		m.Time = columns[1]
	}
	if m.Lector == "" && len(columns) > 2 {
		m.Lector = columns[2]
	}
	return m
}

func guessColumn(columns []string, candidates []string) string {
	for _, cand := range candidates {
		for _, col := range columns {
			if strings.EqualFold(col, cand) {
				return col
			}
		}
	}
	return ""
}

// ParseCSV reads a headered CSV document into column names and row maps.
func ParseCSV(r io.Reader) ([]string, []map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ParseJSON reads a JSON array of flat objects into column names and row
// maps. Column order follows the first object's keys as they appear in the
// document.
func ParseJSON(r io.Reader) ([]string, []map[string]string, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode json rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, nil
	}

	seen := make(map[string]bool)
	var columns []string
	rows := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// MapRow turns one source row into a save request. Rows without a date or a
// start time are unusable and reported as skipped. The row index keys the
// generated id, so re-importing the same file updates rather than duplicates.
func MapRow(row map[string]string, m Mapping, idx int) (booking.SaveRequest, bool) {
	date := strings.TrimSpace(row[m.Date])
	start := strings.TrimSpace(row[m.Time])
	if date == "" || start == "" {
		return booking.SaveRequest{}, false
	}

	title := strings.TrimSpace(row[m.Lector])
	if title == "" {
		title = "Unknown"
	}

	slotIndex := 0
	if m.Slot != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(row[m.Slot])); err == nil {
			slotIndex = n
		}
	}

	end := ""
	if m.End != "" {
		end = strings.TrimSpace(row[m.End])
	}

	return booking.SaveRequest{
		ID:        fmt.Sprintf("%s_%s_%d", date, start, idx),
		Date:      date,
		StartTime: booking.NormalizeTime(start),
		EndTime:   booking.NormalizeTime(end),
		SlotIndex: slotIndex,
		Title:     title,
	}, true
}

// MapRows applies the mapping to every row, keeping source order.
func MapRows(rows []map[string]string, m Mapping) (mapped []booking.SaveRequest, skipped int) {
	for i, row := range rows {
		req, ok := MapRow(row, m, i)
		if !ok {
			skipped++
			continue
		}
		mapped = append(mapped, req)
	}
	return mapped, skipped
}
