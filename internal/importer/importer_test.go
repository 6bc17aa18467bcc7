package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessMapping(t *testing.T) {
	testCases := []struct {
		name     string
		columns  []string
		expected Mapping
	}{
		{
			name:     "english headers",
			columns:  []string{"date", "startTime", "endTime", "lector", "slotIndex"},
			expected: Mapping{Date: "date", Time: "startTime", End: "endTime", Lector: "lector", Slot: "slotIndex"},
		},
		{
			name:     "slovak headers",
			columns:  []string{"datum", "cas", "lektor"},
			expected: Mapping{Date: "datum", Time: "cas", Lector: "lektor"},
		},
		{
			name:     "case insensitive",
			columns:  []string{"Datum", "Cas", "Lektor"},
			expected: Mapping{Date: "Datum", Time: "Cas", Lector: "Lektor"},
		},
		{
			name:     "positional fallback for unknown headers",
			columns:  []string{"col_a", "col_b", "col_c"},
			expected: Mapping{Date: "col_a", Time: "col_b", Lector: "col_c"},
		},
		{
			name:     "partial guess keeps positional fallback for the rest",
			columns:  []string{"when", "start", "who"},
			expected: Mapping{Date: "when", Time: "start", Lector: "who"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GuessMapping(tc.columns))
		})
	}
}

func TestParseCSV(t *testing.T) {
	input := "datum,cas,lektor\n2024-06-09,08:00,Anna\n2024-06-09,09:30,Jozef\n"

	columns, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"datum", "cas", "lektor"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-06-09", rows[0]["datum"])
	assert.Equal(t, "Jozef", rows[1]["lektor"])
}

func TestParseJSON(t *testing.T) {
	input := `[
		{"date": "2024-06-09", "time": "08:00", "lector": "Anna", "slot": 1},
		{"date": "2024-06-09", "time": "09:30", "lector": "Jozef"}
	]`

	columns, rows, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"date", "time", "lector", "slot"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0]["slot"], "numeric values are stringified")
}

func TestParseJSONInvalid(t *testing.T) {
	_, _, err := ParseJSON(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestMapRows(t *testing.T) {
	rows := []map[string]string{
		{"datum": "2024-06-09", "cas": "08:00", "lektor": "Anna", "slot": "1"},
		{"datum": "", "cas": "08:00", "lektor": "missing date"},
		{"datum": "2024-06-09", "cas": "", "lektor": "missing time"},
		{"datum": "2024-06-10", "cas": "18:00:00", "lektor": ""},
	}
	m := Mapping{Date: "datum", Time: "cas", Lector: "lektor", Slot: "slot"}

	mapped, skipped := MapRows(rows, m)
	assert.Equal(t, 2, skipped)
	require.Len(t, mapped, 2)

	first := mapped[0]
	assert.Equal(t, "2024-06-09", first.Date)
	assert.Equal(t, "08:00:00", first.StartTime, "short times gain seconds")
	assert.Equal(t, 1, first.SlotIndex)
	assert.Equal(t, "Anna", first.Title)
	assert.Equal(t, "2024-06-09_08:00_0", first.ID, "id is derived from the row")

	second := mapped[1]
	assert.Equal(t, "Unknown", second.Title, "blank lector becomes a placeholder")
	assert.Equal(t, "18:00:00", second.StartTime)
}

// Re-importing the same rows yields the same ids, so an import can be
// repeated without duplicating bookings.
func TestMapRowsDeterministicIDs(t *testing.T) {
	rows := []map[string]string{
		{"date": "2024-06-09", "time": "08:00", "name": "Anna"},
	}
	m := GuessMapping([]string{"date", "time", "name"})

	a, _ := MapRows(rows, m)
	b, _ := MapRows(rows, m)
	require.Len(t, a, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
}
