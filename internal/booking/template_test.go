package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTemplate(t *testing.T) {
	weekday := []TemplateSlot{
		{TimeOfDay: "06:30:00", Repetitions: 1},
		{TimeOfDay: "18:00:00", Repetitions: 1},
	}
	saturday := []TemplateSlot{
		{TimeOfDay: "06:30:00", Repetitions: 1},
		{TimeOfDay: "18:00:00", Repetitions: 2},
	}
	sunday := []TemplateSlot{
		{TimeOfDay: "06:30:00", Repetitions: 2},
		{TimeOfDay: "08:00:00", Repetitions: 2},
		{TimeOfDay: "09:30:00", Repetitions: 2},
		{TimeOfDay: "18:00:00", Repetitions: 2},
	}

	testCases := []struct {
		name      string
		date      string
		overrides map[string]int
		expected  []TemplateSlot
		expectErr error
	}{
		{
			name:     "Monday",
			date:     "2024-06-10",
			expected: weekday,
		},
		{
			name:     "Wednesday",
			date:     "2024-06-12",
			expected: weekday,
		},
		{
			name:     "Friday",
			date:     "2024-06-14",
			expected: weekday,
		},
		{
			name:     "Saturday",
			date:     "2024-06-15",
			expected: saturday,
		},
		{
			name:     "Sunday",
			date:     "2024-06-09",
			expected: sunday,
		},
		{
			name:      "Sunday overridden to Monday",
			date:      "2024-06-09",
			overrides: map[string]int{"2024-06-09": 1},
			expected:  weekday,
		},
		{
			name:      "holiday Tuesday overridden to Sunday",
			date:      "2024-12-24",
			overrides: map[string]int{"2024-12-24": 0},
			expected:  sunday,
		},
		{
			name:      "override for a different date is ignored",
			date:      "2024-06-12",
			overrides: map[string]int{"2024-06-13": 0},
			expected:  weekday,
		},
		{
			name:      "malformed date",
			date:      "12.06.2024",
			expectErr: ErrInvalidDate,
		},
		{
			name:      "empty date",
			date:      "",
			expectErr: ErrInvalidDate,
		},
		{
			name:      "impossible date",
			date:      "2024-02-31",
			expectErr: ErrInvalidDate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveTemplate(tc.date, tc.overrides)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

// The template depends only on the weekday, never on the literal year or
// month.
func TestResolveTemplateWeekdayOnly(t *testing.T) {
	// all Wednesdays
	dates := []string{"2019-01-02", "2024-06-12", "2030-10-09", "1999-12-29"}

	first, err := ResolveTemplate(dates[0], nil)
	require.NoError(t, err)

	for _, date := range dates[1:] {
		got, err := ResolveTemplate(date, nil)
		require.NoError(t, err)
		assert.Equal(t, first, got, "date %s", date)
	}
}

// An override makes the date follow the override weekday's template exactly,
// regardless of the date's natural weekday.
func TestResolveTemplateOverrideEquivalence(t *testing.T) {
	for wd := 0; wd <= 6; wd++ {
		// 2024-06-09 is a Sunday; 2024-06-10 + wd walks Mon..Sun
		natural := []string{"2024-06-09", "2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14", "2024-06-15"}[wd]

		wantTpl, err := ResolveTemplate(natural, nil)
		require.NoError(t, err)

		overridden := "2024-07-03" // a Wednesday
		got, err := ResolveTemplate(overridden, map[string]int{overridden: wd})
		require.NoError(t, err)
		assert.Equal(t, wantTpl, got, "weekday %d", wd)
	}
}

func TestResolveTemplateReturnsCopy(t *testing.T) {
	got, err := ResolveTemplate("2024-06-12", nil)
	require.NoError(t, err)

	got[0].TimeOfDay = "tampered"

	again, err := ResolveTemplate("2024-06-12", nil)
	require.NoError(t, err)
	assert.Equal(t, "06:30:00", again[0].TimeOfDay)
}
