package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		APIToken:     "test-token",
		EventTypeURI: "https://api.calendly.com/event_types/abc",
		BaseURL:      baseURL,
		Timeout:      2 * time.Second,
	}
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(testConfig(srv.URL), WithHTTPClient(srv.Client()), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, srv
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{EventTypeURI: "x"}); err == nil {
		t.Fatal("missing token must fail")
	}
	if _, err := NewClient(Config{APIToken: "x"}); err == nil {
		t.Fatal("missing event type must fail")
	}
	if _, err := NewClient(testConfig("::bad-url")); err == nil {
		t.Fatal("invalid base url must fail")
	}
}

func TestListSlotsParsesProviderResponse(t *testing.T) {
	t.Parallel()

	var gotAuth, gotEventType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotEventType = r.URL.Query().Get("event_type")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"collection": []map[string]any{
				{
					"spots": []map[string]any{
						{"start_time": "2026-03-02T09:00:00Z", "status": "available"},
						{"start_time": "2026-03-02T11:00:00Z"},
					},
				},
			},
		})
	})

	slots, err := c.ListSlots(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotEventType != "https://api.calendly.com/event_types/abc" {
		t.Fatalf("event_type param = %q", gotEventType)
	}
	if len(slots) != 2 {
		t.Fatalf("slot count = %d, want 2", len(slots))
	}
	if slots[0].Synthetic {
		t.Fatal("provider slots must not be marked synthetic")
	}
	if slots[1].Status != "available" {
		t.Fatalf("missing status must default to available, got %q", slots[1].Status)
	}
	if slots[0].Formatted != "March 2, 2026 at 9:00 AM" {
		t.Fatalf("formatted = %q", slots[0].Formatted)
	}
}

func TestListSlotsProviderErrorFallsBackToSynthetic(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	slots, err := c.ListSlots(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	// 3 fallback days x 4 fixed hours.
	if len(slots) != 12 {
		t.Fatalf("synthetic slot count = %d, want 12", len(slots))
	}
	for _, s := range slots {
		if !s.Synthetic {
			t.Fatalf("fallback slot not marked synthetic: %#v", s)
		}
		if s.Status != "available" {
			t.Fatalf("fallback status = %q", s.Status)
		}
	}
	// First slot is 9 AM tomorrow relative to the fixed clock.
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !slots[0].StartTime.Equal(want) {
		t.Fatalf("first synthetic slot = %v, want %v", slots[0].StartTime, want)
	}
}

func TestListSlotsUnparsableBodyFallsBackToSynthetic(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	slots, err := c.ListSlots(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("synthetic slot count = %d, want 4 for one day", len(slots))
	}
}

func TestListSlotsEmptyCollectionFallsBackToSynthetic(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"collection":[]}`))
	})

	slots, err := c.ListSlots(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("synthetic slot count = %d, want 8 for two days", len(slots))
	}
	if !slots[0].Synthetic {
		t.Fatal("fallback slots must be marked synthetic")
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/scheduling_links" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"resource":{"booking_url":"https://calendly.com/fitlife/xyz"}}`))
	})

	result := c.CreateBooking(context.Background(), "lead@example.com", "Asha Verma", "2026-03-02T09:00:00Z", "")
	if !result.Success {
		t.Fatalf("booking failed: %s", result.Message)
	}
	if result.BookingURL != "https://calendly.com/fitlife/xyz" {
		t.Fatalf("booking url = %q", result.BookingURL)
	}
	if result.ScheduledTime != "2026-03-02T09:00:00Z" {
		t.Fatalf("scheduled time = %q", result.ScheduledTime)
	}

	invitee, _ := gotBody["invitee"].(map[string]any)
	if invitee["email"] != "lead@example.com" {
		t.Fatalf("invitee email = %v", invitee["email"])
	}
	if invitee["timezone"] != "Asia/Kolkata" {
		t.Fatalf("default timezone = %v", invitee["timezone"])
	}
}

func TestCreateBookingProviderFailure(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slot taken", http.StatusConflict)
	})

	result := c.CreateBooking(context.Background(), "lead@example.com", "Asha", "2026-03-02T09:00:00Z", "UTC")
	if result.Success {
		t.Fatal("provider failure must not report success")
	}
	if !strings.Contains(result.Message, "slot taken") {
		t.Fatalf("message must carry provider detail: %q", result.Message)
	}
}

func TestCancelBooking(t *testing.T) {
	t.Parallel()

	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	result := c.CancelBooking(context.Background(), "evt-123", "schedule conflict")
	if !result.Success {
		t.Fatalf("cancel failed: %s", result.Message)
	}
	if gotPath != "/scheduled_events/evt-123/cancellation" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestCancelBookingFailure(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	result := c.CancelBooking(context.Background(), "evt-404", "")
	if result.Success {
		t.Fatal("cancel failure must not report success")
	}
}
