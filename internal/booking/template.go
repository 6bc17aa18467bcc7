package booking

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

const dateLayout = "2006-01-02"

// Weekday templates, index 0 = Sunday .. 6 = Saturday. Weekdays share one
// morning and one evening reading; Saturday doubles the evening; Sunday has
// four services with two readings each.
var weekdayTemplates = [7][]TemplateSlot{
	0: {
		{TimeOfDay: "06:30:00", Repetitions: 2},
		{TimeOfDay: "08:00:00", Repetitions: 2},
		{TimeOfDay: "09:30:00", Repetitions: 2},
		{TimeOfDay: "18:00:00", Repetitions: 2},
	},
	1: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 1}},
	2: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 1}},
	3: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 1}},
	4: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 1}},
	5: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 1}},
	6: {{TimeOfDay: "06:30:00", Repetitions: 1}, {TimeOfDay: "18:00:00", Repetitions: 2}},
}

// ParseDate validates a YYYY-MM-DD wall-clock date string.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ResolveTemplate maps a calendar date to its ordered slot template.
// The date's natural weekday decides the pattern unless overrides carries an
// entry for this exact date, in which case the override weekday wins.
// Pure: same (date, overrides) always yields the same sequence.
func ResolveTemplate(date string, overrides map[string]int) ([]TemplateSlot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	wd := int(d.Weekday())
	if ov, ok := overrides[date]; ok && ov >= 0 && ov <= 6 {
		wd = ov
	}

	tpl := weekdayTemplates[wd]
	out := make([]TemplateSlot, len(tpl))
	copy(out, tpl)
	return out, nil
}
