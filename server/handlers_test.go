package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
)

type fakeProcessor struct {
	result     contractx.TurnResult
	resets     []string
	resetFound bool
	lastID     string
	lastText   string
}

func (f *fakeProcessor) Process(ctx context.Context, sessionID, text string) contractx.TurnResult {
	f.lastID = sessionID
	f.lastText = text
	out := f.result
	out.SessionID = sessionID
	return out
}

func (f *fakeProcessor) Reset(sessionID string) bool {
	f.resets = append(f.resets, sessionID)
	return f.resetFound
}

func (f *fakeProcessor) SessionCount() int { return 2 }

type fakeStore struct {
	record    *leadx.Memory
	fetchErr  error
	deleted   bool
	deleteErr error
	pingErr   error
}

func (f *fakeStore) Get(ctx context.Context, sessionID string) (*leadx.Memory, error) {
	return f.record, nil
}

func (f *fakeStore) Fetch(ctx context.Context, sessionID string) (*leadx.Memory, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.record, nil
}

func (f *fakeStore) Save(ctx context.Context, m *leadx.Memory) error { return nil }

func (f *fakeStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	return f.deleted, f.deleteErr
}

func (f *fakeStore) Ping(ctx context.Context) error  { return f.pingErr }
func (f *fakeStore) Close(ctx context.Context) error { return nil }

type fakeScheduler struct {
	slots []contractx.Slot
	err   error
	days  int
}

func (f *fakeScheduler) ListSlots(ctx context.Context, daysAhead int) ([]contractx.Slot, error) {
	f.days = daysAhead
	return f.slots, f.err
}

func (f *fakeScheduler) CreateBooking(ctx context.Context, email, name, startTime, timezone string) contractx.BookingResult {
	return contractx.BookingResult{}
}

func (f *fakeScheduler) CancelBooking(ctx context.Context, bookingRef, reason string) contractx.CancelResult {
	return contractx.CancelResult{}
}

func newTestServer(t *testing.T, processor *fakeProcessor, store *fakeStore, scheduler *fakeScheduler, probe ProviderProbe) *Server {
	t.Helper()
	s, err := New(Config{}, processor, store, scheduler, probe)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestChatReturnsTurnResult(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{
		result: contractx.TurnResult{
			Response:    "Welcome to FitLife!",
			IntentLevel: contractx.IntentMedium,
		},
	}
	s := newTestServer(t, processor, &fakeStore{}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodPost, "/chat", `{"session_id":"lead-1","message":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result contractx.TurnResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Response != "Welcome to FitLife!" {
		t.Fatalf("response = %q", result.Response)
	}
	if result.SessionID != "lead-1" {
		t.Fatalf("session id = %q", result.SessionID)
	}
	if processor.lastText != "hi" {
		t.Fatalf("processor text = %q", processor.lastText)
	}
}

func TestChatMintsSessionIDWhenAbsent(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{result: contractx.TurnResult{Response: "hello!"}}
	s := newTestServer(t, processor, &fakeStore{}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodPost, "/chat", `{"message":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if processor.lastID == "" {
		t.Fatal("server must mint a session id when none is supplied")
	}

	var result contractx.TurnResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.SessionID != processor.lastID {
		t.Fatalf("minted id must be echoed back: %q vs %q", result.SessionID, processor.lastID)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeProcessor{}, &fakeStore{}, &fakeScheduler{}, nil)

	for _, body := range []string{`{"message":"   "}`, `{}`, `not json`} {
		w := doRequest(t, s, http.MethodPost, "/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestResetSession(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{resetFound: true}
	s := newTestServer(t, processor, &fakeStore{}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodPost, "/reset-session/lead-9", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(processor.resets) != 1 || processor.resets[0] != "lead-9" {
		t.Fatalf("resets = %#v", processor.resets)
	}
	if !strings.Contains(w.Body.String(), `"existed":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetMemory(t *testing.T) {
	t.Parallel()

	record := leadx.New("lead-2", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	record.FitnessGoals = "lose 10kg"
	s := newTestServer(t, &fakeProcessor{}, &fakeStore{record: record}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodGet, "/memory/lead-2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got leadx.Memory
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.FitnessGoals != "lose 10kg" {
		t.Fatalf("fitness goals = %q", got.FitnessGoals)
	}
}

func TestGetMemoryNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeProcessor{}, &fakeStore{fetchErr: leadx.ErrNotFound}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodGet, "/memory/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDeleteMemory(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeProcessor{}, &fakeStore{deleted: true}, &fakeScheduler{}, nil)
	w := doRequest(t, s, http.MethodDelete, "/memory/lead-3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	s = newTestServer(t, &fakeProcessor{}, &fakeStore{deleted: false}, &fakeScheduler{}, nil)
	w = doRequest(t, s, http.MethodDelete, "/memory/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSlots(t *testing.T) {
	t.Parallel()

	scheduler := &fakeScheduler{
		slots: []contractx.Slot{
			{Formatted: "March 2, 2026 at 9:00 AM", Status: "available"},
		},
	}
	s := newTestServer(t, &fakeProcessor{}, &fakeStore{}, scheduler, nil)

	w := doRequest(t, s, http.MethodGet, "/slots?days_ahead=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if scheduler.days != 3 {
		t.Fatalf("days ahead = %d", scheduler.days)
	}
	if !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/slots?days_ahead=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad days_ahead status = %d, want 400", w.Code)
	}
}

func TestHealthHealthy(t *testing.T) {
	t.Parallel()

	probe := func(ctx context.Context) error { return nil }
	s := newTestServer(t, &fakeProcessor{}, &fakeStore{}, &fakeScheduler{}, probe)

	w := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"live_sessions":2`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestHealthDegraded(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeProcessor{}, &fakeStore{pingErr: errors.New("mongo down")}, &fakeScheduler{}, nil)

	w := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"degraded"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "mongo down") {
		t.Fatalf("body = %s", w.Body.String())
	}
}
