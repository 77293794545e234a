// Package calendly is a thin stateless adapter to the Calendly REST API
// with a deterministic synthetic fallback so the sales pipeline always has
// slots to offer.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
)

const (
	defaultBaseURL       = "https://api.calendly.com"
	maxResponseSizeBytes = 2 << 20
	maxSlots             = 10
	slotTimeFormat       = "January 2, 2006 at 3:04 PM"
)

// Synthetic slots cover the next fallbackDays days at these hours.
var fallbackHours = []int{9, 11, 14, 16}

const fallbackDays = 3

type Config struct {
	APIToken     string        `envconfig:"API_TOKEN" split_words:"true" required:"true"`
	EventTypeURI string        `envconfig:"EVENT_TYPE_URI" split_words:"true" required:"true"`
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.calendly.com"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client implements contract.SchedulingGateway. It holds no local state.
type Client struct {
	baseURL      string
	token        string
	eventTypeURI string
	httpClient   *http.Client
	now          func() time.Time
}

var _ contractx.SchedulingGateway = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errors.New("calendly api token is required")
	}
	eventTypeURI := strings.TrimSpace(cfg.EventTypeURI)
	if eventTypeURI == "" {
		return nil, errors.New("calendly event type uri is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid calendly base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:      baseURL,
		token:        token,
		eventTypeURI: eventTypeURI,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type availableTimesResponse struct {
	Collection []struct {
		Spots []struct {
			StartTime time.Time `json:"start_time"`
			Status    string    `json:"status"`
		} `json:"spots"`
	} `json:"collection"`
}

// ListSlots queries open slots over the window. On any provider failure it
// returns synthetic slots marked Synthetic so callers and tests can tell
// fallback availability from the real thing.
func (c *Client) ListSlots(ctx context.Context, daysAhead int) ([]contractx.Slot, error) {
	if daysAhead <= 0 {
		daysAhead = 7
	}

	now := c.now().UTC()
	params := url.Values{}
	params.Set("event_type", c.eventTypeURI)
	params.Set("start_time", now.Format(time.RFC3339))
	params.Set("end_time", now.AddDate(0, 0, daysAhead).Format(time.RFC3339))

	endpoint := c.baseURL + "/event_type_available_times?" + params.Encode()
	raw, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil || status != http.StatusOK {
		log.Warn().Err(err).Int("status", status).Msg("calendly availability unavailable, using synthetic slots")
		return c.syntheticSlots(daysAhead), nil
	}

	var parsed availableTimesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warn().Err(err).Msg("calendly availability unparsable, using synthetic slots")
		return c.syntheticSlots(daysAhead), nil
	}

	slots := make([]contractx.Slot, 0, maxSlots)
	for _, item := range parsed.Collection {
		for _, spot := range item.Spots {
			status := spot.Status
			if status == "" {
				status = "available"
			}
			slots = append(slots, contractx.Slot{
				StartTime: spot.StartTime,
				Formatted: spot.StartTime.Format(slotTimeFormat),
				Status:    status,
			})
			if len(slots) == maxSlots {
				return slots, nil
			}
		}
	}
	if len(slots) == 0 {
		return c.syntheticSlots(daysAhead), nil
	}
	return slots, nil
}

// syntheticSlots generates the deterministic fallback: a fixed hour-of-day
// set over the next few days, relative to the client clock.
func (c *Client) syntheticSlots(daysAhead int) []contractx.Slot {
	days := daysAhead
	if days > fallbackDays {
		days = fallbackDays
	}

	base := c.now().AddDate(0, 0, 1)
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())

	slots := make([]contractx.Slot, 0, days*len(fallbackHours))
	for day := 0; day < days; day++ {
		for _, hour := range fallbackHours {
			at := base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			slots = append(slots, contractx.Slot{
				StartTime: at,
				Formatted: at.Format(slotTimeFormat),
				Status:    "available",
				Synthetic: true,
			})
		}
	}
	return slots
}

type schedulingLinkResponse struct {
	Resource struct {
		BookingURL string `json:"booking_url"`
	} `json:"resource"`
}

// CreateBooking requests a scheduling link. Failures are reported inside
// the result; the sales pipeline decides how to phrase them.
func (c *Client) CreateBooking(ctx context.Context, email, name, startTime, timezone string) contractx.BookingResult {
	if timezone == "" {
		timezone = "Asia/Kolkata"
	}

	payload := map[string]any{
		"event_type": c.eventTypeURI,
		"start_time": startTime,
		"invitee": map[string]string{
			"email":    email,
			"name":     name,
			"timezone": timezone,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return contractx.BookingResult{Success: false, Message: fmt.Sprintf("Error creating booking: %v", err)}
	}

	raw, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/scheduling_links", body)
	if err != nil {
		return contractx.BookingResult{Success: false, Message: fmt.Sprintf("Error creating booking: %v", err)}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return contractx.BookingResult{
			Success: false,
			Message: fmt.Sprintf("Failed to create booking: %s", strings.TrimSpace(string(raw))),
		}
	}

	var parsed schedulingLinkResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.BookingResult{Success: false, Message: fmt.Sprintf("Error creating booking: %v", err)}
	}

	return contractx.BookingResult{
		Success:       true,
		BookingURL:    parsed.Resource.BookingURL,
		ScheduledTime: startTime,
		Message:       "Booking link created successfully!",
	}
}

func (c *Client) CancelBooking(ctx context.Context, bookingRef, reason string) contractx.CancelResult {
	payload := map[string]any{}
	if strings.TrimSpace(reason) != "" {
		payload["reason"] = reason
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return contractx.CancelResult{Success: false, Message: fmt.Sprintf("Error cancelling booking: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/scheduled_events/%s/cancellation", c.baseURL, url.PathEscape(bookingRef))
	raw, status, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return contractx.CancelResult{Success: false, Message: fmt.Sprintf("Error cancelling booking: %v", err)}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return contractx.CancelResult{
			Success: false,
			Message: fmt.Sprintf("Failed to cancel: %s", strings.TrimSpace(string(raw))),
		}
	}
	return contractx.CancelResult{Success: true, Message: "Booking cancelled successfully"}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build calendly request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute calendly request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read calendly response: %w", err)
	}
	return raw, resp.StatusCode, nil
}
