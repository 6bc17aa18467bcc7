package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lektora/slot-booking/internal/booking"
)

func newTestServer(t *testing.T) (*httptest.Server, *booking.MemRepository) {
	t.Helper()

	repo := booking.NewMemRepository()
	svc := booking.NewService(repo, repo, repo, zap.NewNop(), booking.ServiceOptions{})

	router := NewRouter(RouterConfig{
		Service:        svc,
		Logger:         zap.NewNop(),
		Env:            "test",
		Version:        "test",
		AllowedOrigins: []string{"*"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCreateBooking(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date:      "2024-06-12",
		StartTime: "18:00",
		Title:     "Anna",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	b := decode[booking.Booking](t, resp)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "18:00:00", b.StartTime, "start time is normalized")

	// same triple again conflicts
	resp = doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date:      "2024-06-12",
		StartTime: "18:00:00",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "slot_conflict", errResp.Error)
}

func TestCreateBookingValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	testCases := []struct {
		name     string
		payload  booking.SaveRequest
		wantCode string
	}{
		{"missing start time", booking.SaveRequest{Date: "2024-06-12"}, "missing_required_field"},
		{"missing date", booking.SaveRequest{StartTime: "18:00"}, "missing_required_field"},
		{"bad date", booking.SaveRequest{Date: "12.6.2024", StartTime: "18:00"}, "invalid_date"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", tc.payload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.wantCode, decode[ErrorResponse](t, resp).Error)
		})
	}
}

func TestUpdateBookingKeepsOwnSlot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date: "2024-06-12", StartTime: "18:00", Title: "Anna",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[booking.Booking](t, resp)

	resp = doJSON(t, http.MethodPut, srv.URL+"/bookings/"+created.ID, booking.SaveRequest{
		Date: "2024-06-12", StartTime: "18:00:00", Title: "Anna B.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[booking.Booking](t, resp)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Anna B.", updated.Title)
}

func TestDeleteBookingIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date: "2024-06-12", StartTime: "18:00",
	})
	created := decode[booking.Booking](t, resp)

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodDelete, srv.URL+"/bookings/"+created.ID, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, "attempt %d", i+1)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/bookings/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDayOptions(t *testing.T) {
	srv, _ := newTestServer(t)

	// Sunday, book 08:00 slot 1
	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date: "2024-06-09", StartTime: "08:00", SlotIndex: 1, Title: "Anna",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[booking.Booking](t, resp)

	resp = doJSON(t, http.MethodGet, srv.URL+"/days/2024-06-09/options", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	opts := decode[[]booking.SlotOption](t, resp)
	require.Len(t, opts, 8)

	occupied := 0
	for _, opt := range opts {
		if opt.Occupied {
			occupied++
			assert.Equal(t, "08:00:00", opt.TimeOfDay)
			assert.Equal(t, 1, opt.SlotIndex)
		}
	}
	assert.Equal(t, 1, occupied)

	// excluding the booking frees its slot
	resp = doJSON(t, http.MethodGet, srv.URL+"/days/2024-06-09/options?exclude="+created.ID, nil)
	opts = decode[[]booking.SlotOption](t, resp)
	for _, opt := range opts {
		assert.False(t, opt.Occupied)
	}
}

func TestDayOptionsInvalidDate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/days/tomorrow/options", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_date", decode[ErrorResponse](t, resp).Error)
}

func TestOverrideLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/overrides/2024-06-09", OverrideRequest{Weekday: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/days/2024-06-09/options", nil)
	opts := decode[[]booking.SlotOption](t, resp)
	assert.Len(t, opts, 2, "overridden Sunday uses the Monday template")

	resp = doJSON(t, http.MethodGet, srv.URL+"/overrides", nil)
	entries := decode[[]OverrideEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, OverrideEntry{Date: "2024-06-09", Weekday: 1}, entries[0])

	resp = doJSON(t, http.MethodDelete, srv.URL+"/overrides/2024-06-09", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/days/2024-06-09/options", nil)
	opts = decode[[]booking.SlotOption](t, resp)
	assert.Len(t, opts, 8)
}

func TestOverrideValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/overrides/2024-06-09", OverrideRequest{Weekday: 9})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_weekday", decode[ErrorResponse](t, resp).Error)
}

func TestAgenda(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/bookings", booking.SaveRequest{
		Date: "2024-06-12", StartTime: "18:00", Title: "Anna",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/agenda?date=2024-06-13", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	week := decode[[]booking.AgendaDay](t, resp)
	require.Len(t, week, 7)
	assert.Equal(t, "2024-06-10", week[0].Date)
	require.Len(t, week[2].Bookings, 1)
}

func TestImportCSV(t *testing.T) {
	srv, _ := newTestServer(t)

	csvBody := strings.Join([]string{
		"datum,cas,lektor",
		"2024-06-09,08:00,Anna",
		"2024-06-09,09:30,Jozef",
		"2024-06-09,08:00,Duplicate of Anna's slot",
		",18:00,missing date",
	}, "\n")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/import", strings.NewReader(csvBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[ImportResponse](t, resp)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Conflicts, 1)

	listResp := doJSON(t, http.MethodGet, srv.URL+"/bookings?date=2024-06-09", nil)
	bookings := decode[[]booking.Booking](t, listResp)
	assert.Len(t, bookings, 2)
}

func TestImportUnsupportedContentType(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/import", strings.NewReader("a,b"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/xml")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestListBookingsRequiresDate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/bookings", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_date", decode[ErrorResponse](t, resp).Error)
}

func TestLectors(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.AddLector(booking.Lector{ID: "l1", Name: "Jozef"})
	repo.AddLector(booking.Lector{ID: "l2", Name: "Anna"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/lectors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lectors := decode[[]booking.Lector](t, resp)
	require.Len(t, lectors, 2)
	assert.Equal(t, "Anna", lectors[0].Name, "sorted by name")
}

func TestHealthLive(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	live := decode[LivenessResponse](t, resp)
	assert.Equal(t, "ok", live.Status)
}
