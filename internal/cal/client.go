package cal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/metrics"

	"github.com/rs/zerolog"
)

// ErrBookingRejected means the provider answered but did not confirm the
// booking (no uid in the response).
var ErrBookingRejected = errors.New("booking rejected by scheduling provider")

// EventType is a remote appointment type as the provider defines it.
type EventType struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Length      int    `json:"length"`
	Description string `json:"description,omitempty"`
}

// BookingRequest is the payload forwarded to the provider. Start and End
// must already be UTC ISO-8601.
type BookingRequest struct {
	EventTypeID int64
	Start       string
	End         string
	TimeZone    string
	Name        string
	Email       string
}

// BookingConfirmation is the provider's answer to a create call. Raw
// carries the full response body for error surfaces and logging.
type BookingConfirmation struct {
	UID      string
	MeetLink string
	Raw      json.RawMessage
}

// Client talks to the Cal.com v2 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.CalConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// EventTypes lists the provider's event types. The v2 response nests them
// in eventTypeGroups; only the first group belongs to the clinic account.
func (c *Client) EventTypes(ctx context.Context) ([]EventType, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/event-types", nil, nil, "event_types")
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data struct {
			EventTypeGroups []struct {
				EventTypes []EventType `json:"eventTypes"`
			} `json:"eventTypeGroups"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode event types: %w", err)
	}

	if len(raw.Data.EventTypeGroups) == 0 {
		return []EventType{}, nil
	}
	return raw.Data.EventTypeGroups[0].EventTypes, nil
}

// CreateBooking forwards a booking. The confirmation carries the raw
// provider body even on rejection so callers can surface it.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	payload := map[string]any{
		"eventTypeId": req.EventTypeID,
		"start":       req.Start,
		"end":         req.End,
		"timeZone":    req.TimeZone,
		"language":    "en",
		"metadata":    map[string]any{},
		"responses": map[string]any{
			"name":  req.Name,
			"email": req.Email,
		},
	}

	body, _, err := c.do(ctx, http.MethodPost, "/bookings", nil, payload, "create_booking")
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data struct {
			UID        string `json:"uid"`
			MeetingURL string `json:"meetingUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}

	confirmation := &BookingConfirmation{
		UID:      raw.Data.UID,
		MeetLink: raw.Data.MeetingURL,
		Raw:      json.RawMessage(body),
	}
	if confirmation.UID == "" {
		return confirmation, ErrBookingRejected
	}
	return confirmation, nil
}

// CancelBooking cancels on the provider side only; the local audit row
// stays untouched.
func (c *Client) CancelBooking(ctx context.Context, bookingUID string) (map[string]any, error) {
	payload := map[string]any{
		"cancellationReason":       "User requested cancellation",
		"cancelSubsequentBookings": true,
	}
	headers := map[string]string{"cal-api-version": "v2"}

	path := fmt.Sprintf("/bookings/%s/cancel", url.PathEscape(bookingUID))
	body, status, err := c.do(ctx, http.MethodPost, path, headers, payload, "cancel_booking")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("cancel booking %s: provider returned %d", bookingUID, status)
	}

	return decodeMap(body)
}

// RescheduleBooking moves a booking on the provider side. start must be
// ISO-8601.
func (c *Client) RescheduleBooking(ctx context.Context, bookingUID, start, reason string) (map[string]any, error) {
	payload := map[string]any{
		"start":              start,
		"reschedulingReason": reason,
		"rescheduledBy":      "patient",
	}
	// Reschedule rides a dated API version, unlike cancel.
	headers := map[string]string{"cal-api-version": "2024-08-13"}

	path := fmt.Sprintf("/bookings/%s/reschedule", url.PathEscape(bookingUID))
	body, status, err := c.do(ctx, http.MethodPost, path, headers, payload, "reschedule_booking")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if c.logger != nil {
			c.logger.Error().Int("status", status).Str("uid", bookingUID).RawJSON("body", jsonOrNull(body)).Msg("provider reschedule error")
		}
		return nil, fmt.Errorf("reschedule booking %s: provider returned %d", bookingUID, status)
	}

	return decodeMap(body)
}

// Slots asks the provider for open windows on a date, in the given
// timezone.
func (c *Client) Slots(ctx context.Context, eventTypeID int64, date, timezone string) ([]string, error) {
	query := url.Values{}
	query.Set("eventTypeId", fmt.Sprintf("%d", eventTypeID))
	query.Set("startTime", date+"T00:00:00.000Z")
	query.Set("endTime", date+"T23:59:59.999Z")
	query.Set("timeZone", timezone)

	body, _, err := c.do(ctx, http.MethodGet, "/slots/available?"+query.Encode(), nil, nil, "slots")
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data struct {
			Slots map[string][]struct {
				Time string `json:"time"`
			} `json:"slots"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}

	starts := make([]string, 0)
	for _, daySlots := range raw.Data.Slots {
		for _, s := range daySlots {
			starts = append(starts, s.Time)
		}
	}
	return starts, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, payload any, operation string) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncCalRequest(operation, 0)
		return nil, 0, fmt.Errorf("provider request %s: %w", operation, err)
	}
	defer resp.Body.Close()

	metrics.IncCalRequest(operation, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read provider response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decodeMap(body []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	return out, nil
}

func jsonOrNull(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	return []byte("null")
}
