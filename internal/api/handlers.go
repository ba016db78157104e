package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinicbook/internal/cal"
	"clinicbook/internal/metrics"
	"clinicbook/internal/service"
	"clinicbook/internal/slots"
)

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	metrics.IncHTTP("root")
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (s *HTTPServer) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("event_types")

	types, err := s.bookings.EventTypes(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch event types")
		writeError(w, http.StatusBadGateway, "failed to fetch event types")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event_types": types})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability")

	rawID := strings.TrimSpace(r.URL.Query().Get("event_type_id"))
	if rawID == "" {
		writeError(w, http.StatusBadRequest, "event_type_id is required")
		return
	}
	eventTypeID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "event_type_id must be an integer")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	list, err := s.bookings.Availability(r.Context(), eventTypeID, date)
	if err != nil {
		switch {
		case errors.Is(err, slots.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "booking store unavailable")
		case errors.Is(err, slots.ErrMalformedTimestamp):
			writeError(w, http.StatusInternalServerError, "stored booking data is malformed")
		default:
			s.logger.Error().Err(err).Msg("availability lookup failed")
			writeError(w, http.StatusBadGateway, "availability lookup failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("create_booking")

	var input service.CreateBookingInput
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.Start == "" || input.Name == "" || input.Email == "" {
		writeError(w, http.StatusBadRequest, "start, name and email are required")
		return
	}

	result, err := s.bookings.CreateBooking(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEventType):
			writeError(w, http.StatusBadRequest, "unknown event type")
		case errors.Is(err, service.ErrInvalidStart):
			writeError(w, http.StatusBadRequest, "invalid start time")
		case errors.Is(err, cal.ErrBookingRejected):
			writeError(w, http.StatusBadGateway, "booking rejected by scheduling provider")
		default:
			s.logger.Error().Err(err).Msg("create booking failed")
			writeError(w, http.StatusInternalServerError, "failed to create booking")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleBookingByUID routes DELETE /api/v1/bookings/{uid} and
// POST /api/v1/bookings/{uid}/reschedule.
func (s *HTTPServer) handleBookingByUID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if uid, ok := strings.CutSuffix(rest, "/reschedule"); ok {
		s.handleReschedule(w, r, uid)
		return
	}

	if strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.handleCancel(w, r, rest)
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request, uid string) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("cancel_booking")

	out, err := s.bookings.CancelBooking(r.Context(), uid)
	if err != nil {
		s.logger.Error().Err(err).Str("uid", uid).Msg("cancel booking failed")
		writeError(w, http.StatusBadGateway, "failed to cancel booking")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request, uid string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("reschedule_booking")

	var body struct {
		Start  string `json:"start"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Start) == "" {
		writeError(w, http.StatusBadRequest, "start is required")
		return
	}
	if body.Reason == "" {
		body.Reason = "Patient requested reschedule"
	}

	out, err := s.bookings.RescheduleBooking(r.Context(), uid, body.Start, body.Reason)
	if err != nil {
		s.logger.Error().Err(err).Str("uid", uid).Msg("reschedule booking failed")
		writeError(w, http.StatusBadGateway, "failed to reschedule booking")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("export_bookings")

	from, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	path, err := s.exporter.ExportRange(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "failed to export bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}
