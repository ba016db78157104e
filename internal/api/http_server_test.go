package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"clinicbook/internal/cal"
	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/events"
	"clinicbook/internal/export"
	"clinicbook/internal/models"
	"clinicbook/internal/repository"
	"clinicbook/internal/service"
	"clinicbook/internal/slots"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEventTypes = []models.EventType{
	{ID: 4136379, Name: "General Consultation", DurationMinutes: 30},
	{ID: 4136388, Name: "Follow-up", DurationMinutes: 15},
	{ID: 4136397, Name: "Therapy Session", DurationMinutes: 45},
	{ID: 4136398, Name: "Full Checkup", DurationMinutes: 60},
}

type testEnv struct {
	server *httptest.Server
	db     *database.DB
	calMux *http.ServeMux
}

func newTestEnv(t *testing.T, apiCfg config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.New(os.Stdout)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	calMux := http.NewServeMux()
	calServer := httptest.NewServer(calMux)
	t.Cleanup(calServer.Close)

	calClient := cal.NewClient(config.CalConfig{
		APIKey:         "test-key",
		BaseURL:        calServer.URL,
		TimeoutSeconds: 5,
	}, &logger)

	schedule, err := slots.NewSchedule("Asia/Kolkata", "09:00", "17:00", "13:00", "14:00", testEventTypes)
	require.NoError(t, err)
	engine := slots.NewEngine(schedule, db, &logger)

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	durations := make(map[int64]int, len(testEventTypes))
	for _, et := range testEventTypes {
		durations[et.ID] = et.DurationMinutes
	}

	cache := repository.NewMemoryAvailabilityCache(30 * time.Second)
	svc := service.NewBookingService(db, calClient, engine, cache, events.NewEventBus(), nil, loc, durations, &logger)
	exporter := export.NewExcelExporter(db, t.TempDir(), &logger)

	srv := NewHTTPServer(apiCfg, svc, exporter, &logger)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, db: db, calMux: calMux}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "running", body["status"])
	assert.NotEmpty(t, resp.Header.Get("x-request-id"))
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp, err := http.Get(env.server.URL + "/api/v1/availability?event_type_id=4136379&date=2030-06-10")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list models.SlotList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, "success", list.Status)
	assert.Len(t, list.Slots, 14)
	assert.Equal(t, "2030-06-10T09:00:00+05:30", list.Slots[0].Start)
}

func TestAvailabilityUnknownEventType(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp, err := http.Get(env.server.URL + "/api/v1/availability?event_type_id=999&date=2030-06-10")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list models.SlotList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, "error", list.Status)
	assert.Equal(t, "Invalid event type", list.Message)
	assert.Empty(t, list.Slots)
}

func TestAvailabilityValidation(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	for _, path := range []string{
		"/api/v1/availability?date=2030-06-10",
		"/api/v1/availability?event_type_id=abc&date=2030-06-10",
		"/api/v1/availability?event_type_id=4136379",
	} {
		resp, err := http.Get(env.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestCreateBookingFlow(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	var providerStart string
	env.calMux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		providerStart, _ = payload["start"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"uid": "uid-42", "meetingUrl": "https://meet.example.com/q"},
		})
	})

	body := `{"eventTypeId":4136379,"start":"2030-06-10T10:00:00","name":"Asha Patel","email":"asha@example.com"}`
	resp, err := http.Post(env.server.URL+"/api/v1/bookings", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result service.BookingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "uid-42", result.BookingUID)
	assert.Equal(t, "https://meet.example.com/q", result.MeetLink)

	// 10:00 IST forwarded as 04:30 UTC.
	assert.Equal(t, "2030-06-10T04:30:00Z", providerStart)

	// The local audit row exists and blocks the slot.
	times, err := env.db.BookingTimesForDate(context.Background(), "2030-06-10")
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, "2030-06-10T10:00:00", times[0].Start)
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	cases := []struct {
		body   string
		status int
	}{
		{`not json`, http.StatusBadRequest},
		{`{"eventTypeId":4136379,"start":"","name":"A","email":"a@x.com"}`, http.StatusBadRequest},
		{`{"eventTypeId":999,"start":"2030-06-10T10:00:00","name":"A","email":"a@x.com"}`, http.StatusBadRequest},
		{`{"eventTypeId":4136379,"start":"garbage","name":"A","email":"a@x.com"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := http.Post(env.server.URL+"/api/v1/bookings", "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.body)
	}
}

func TestCancelBookingEndpoint(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	env.calMux.HandleFunc("/bookings/uid-9/cancel", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v2", r.Header.Get("cal-api-version"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	})

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/v1/bookings/uid-9", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRescheduleBookingEndpoint(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	env.calMux.HandleFunc("/bookings/uid-9/reschedule", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-08-13", r.Header.Get("cal-api-version"))
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, "2030-06-12T05:30:00Z", payload["start"])
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	})

	body := `{"start":"2030-06-12T05:30:00Z","reason":"conflict"}`
	resp, err := http.Post(env.server.URL+"/api/v1/bookings/uid-9/reschedule", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{})

	resp, err := http.Get(env.server.URL + "/api/v1/exports/bookings?from=2030-06-01&to=2030-06-30")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.FileExists(t, body["path"])
}

func TestAuthRequired(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys:      []config.APIClientKey{{Key: "secret", Name: "frontdesk"}},
		},
	}
	env := newTestEnv(t, cfg)

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/", nil)
	req.Header.Set("x-api-key", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/", nil)
	req.Header.Set("x-api-key", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	env := newTestEnv(t, cfg)

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
