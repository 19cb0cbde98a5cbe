package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrBookingNotFound = errors.New("calendar: booking not found")

// Client - клиент REST API планировщика встреч.
// API принимает JSON, ключ передается query-параметром apiKey.
type Client struct {
	baseURL  string
	apiKey   string
	timeZone string
	client   *http.Client
}

// EventType - тип события (шаблон встречи) на стороне планировщика
type EventType struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Length int    `json:"length"` // минуты
}

// Booking - запись на встречу
type Booking struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

// Attendee - участник встречи
type Attendee struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	TimeZone string `json:"timeZone"`
}

// BookingParams - параметры создания записи
type BookingParams struct {
	EventTypeID int64
	Title       string
	Description string
	Start       time.Time
	Attendees   []Attendee
}

func NewClient(baseURL, apiKey, timeZone string) *Client {
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   strings.TrimSpace(apiKey),
		timeZone: timeZone,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// ListEventTypes возвращает типы событий аккаунта
func (c *Client) ListEventTypes(ctx context.Context) ([]EventType, error) {
	var out struct {
		EventTypes []EventType `json:"event_types"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/event-types", nil, &out); err != nil {
		return nil, err
	}
	return out.EventTypes, nil
}

// EnsureEventType находит тип события по slug или создает его
func (c *Client) EnsureEventType(ctx context.Context, title, slug string, lengthMinutes int) (*EventType, error) {
	existing, err := c.ListEventTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Slug == slug {
			return &existing[i], nil
		}
	}

	body := map[string]interface{}{
		"title":  title,
		"slug":   slug,
		"length": lengthMinutes,
	}
	var out struct {
		EventType EventType `json:"event_type"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/event-types", body, &out); err != nil {
		return nil, err
	}
	return &out.EventType, nil
}

// CreateBooking создает запись на встречу
func (c *Client) CreateBooking(ctx context.Context, params BookingParams) (*Booking, error) {
	body := map[string]interface{}{
		"eventTypeId": params.EventTypeID,
		"title":       params.Title,
		"description": params.Description,
		"start":       params.Start.UTC().Format(time.RFC3339),
		"timeZone":    c.timeZone,
		"attendees":   params.Attendees,
	}

	var out struct {
		Booking Booking `json:"booking"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/bookings", body, &out); err != nil {
		return nil, err
	}
	if out.Booking.UID == "" {
		return nil, errors.New("calendar: empty booking uid in response")
	}
	return &out.Booking, nil
}

// CancelBooking отменяет запись на встречу по ее uid
func (c *Client) CancelBooking(ctx context.Context, bookingUID, reason string) error {
	body := map[string]interface{}{
		"reason": reason,
	}
	return c.doRequest(ctx, http.MethodDelete, "/bookings/"+bookingUID+"/cancel", body, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c.apiKey == "" {
		return errors.New("calendar: api key is not configured")
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	endpoint := c.baseURL + path + "?apiKey=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrBookingNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("calendar request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("calendar request failed: %s", apiErr.Message)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
