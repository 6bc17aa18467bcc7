package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lektora/slot-booking/internal/booking"
	"github.com/lektora/slot-booking/internal/importer"
)

func dayOptionsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")
		excludeID := r.URL.Query().Get("exclude")

		opts, err := svc.DayOptions(r.Context(), date, excludeID)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, opts)
	}
}

func agendaHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		week, err := svc.WeekAgenda(r.Context(), date)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, week)
	}
}

func listBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		bookings, err := svc.ListByDate(r.Context(), date)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		if bookings == nil {
			bookings = []booking.Booking{}
		}
		writeJSON(w, http.StatusOK, bookings)
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		req.ID = "" // creation never carries an id

		b, err := svc.Save(r.Context(), req)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		req.ID = chi.URLParam(r, "id")

		b, err := svc.Save(r.Context(), req)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func lectorsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lectors, err := svc.Lectors(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}
		if lectors == nil {
			lectors = []booking.Lector{}
		}
		writeJSON(w, http.StatusOK, lectors)
	}
}

func listOverridesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overrides, err := svc.Overrides(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		entries := make([]OverrideEntry, 0, len(overrides))
		for date, wd := range overrides {
			entries = append(entries, OverrideEntry{Date: date, Weekday: wd})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
		writeJSON(w, http.StatusOK, entries)
	}
}

func putOverrideHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date := chi.URLParam(r, "date")
		if err := svc.SetOverride(r.Context(), date, req.Weekday); err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OverrideEntry{Date: date, Weekday: req.Weekday})
	}
}

func deleteOverrideHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveOverride(r.Context(), chi.URLParam(r, "date")); err != nil {
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func importHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mt
		}

		var (
			columns []string
			rows    []map[string]string
			err     error
		)
		switch {
		case contentType == "application/json":
			columns, rows, err = importer.ParseJSON(r.Body)
		case contentType == "text/csv" || strings.HasSuffix(contentType, "csv"):
			columns, rows, err = importer.ParseCSV(r.Body)
		default:
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_content_type", "expected text/csv or application/json")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_import_payload", err.Error())
			return
		}

		mapped, skipped := importer.MapRows(rows, importer.GuessMapping(columns))

		resp := ImportResponse{Skipped: skipped}
		for _, req := range mapped {
			if _, err := svc.Save(r.Context(), req); err != nil {
				switch {
				case errors.Is(err, booking.ErrSlotConflict):
					resp.Conflicts = append(resp.Conflicts, req.ID)
				case errors.Is(err, booking.ErrInvalidDate),
					errors.Is(err, booking.ErrMissingRequiredField):
					resp.Skipped++
				default:
					handleBookingError(w, err)
					return
				}
				continue
			}
			resp.Imported++
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, booking.ErrMissingRequiredField):
		writeError(w, http.StatusBadRequest, "missing_required_field", err.Error())
	case errors.Is(err, booking.ErrInvalidWeekday):
		writeError(w, http.StatusBadRequest, "invalid_weekday", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrLectorNotFound):
		writeError(w, http.StatusNotFound, "lector_not_found", err.Error())
	case errors.Is(err, booking.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
