package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// HistoryCap bounds chat history at 10 entries (5 exchanges) to keep prompt
// size bounded. Eviction is FIFO on whole exchanges.
const HistoryCap = 10

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one history entry.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Session is the ephemeral in-process conversational context for one
// session id. It is independent of the persisted lead memory: resetting a
// session never touches what is remembered about the lead.
//
// The embedded turn mutex serializes whole turns for the same session; the
// orchestrator holds it from load to finalize.
type Session struct {
	id string

	turnMu sync.Mutex

	mu           sync.Mutex
	history      []Turn
	lastIntent   string
	messageCount int
	lastActive   time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, lastActive: now.UTC()}
}

func (s *Session) ID() string { return s.id }

// BeginTurn acquires the per-session turn lock.
func (s *Session) BeginTurn() { s.turnMu.Lock() }
func (s *Session) EndTurn()   { s.turnMu.Unlock() }

// Append records one completed exchange and enforces the history cap.
func (s *Session) Append(userText, agentText string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := now.UTC()
	s.history = append(s.history,
		Turn{Role: RoleUser, Text: userText, At: at},
		Turn{Role: RoleAgent, Text: agentText, At: at},
	)
	if len(s.history) > HistoryCap {
		s.history = append([]Turn(nil), s.history[len(s.history)-HistoryCap:]...)
	}
	s.messageCount++
	s.lastActive = at
}

// History returns a copy of the bounded chat history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// FormatHistory renders the most recent maxExchanges exchanges as
// "User:"/"Agent:" lines for prompt context. Empty string when no history.
func (s *Session) FormatHistory(maxExchanges int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return ""
	}
	start := 0
	if maxExchanges > 0 && len(s.history) > maxExchanges*2 {
		start = len(s.history) - maxExchanges*2
	}

	lines := make([]string, 0, len(s.history)-start)
	for _, t := range s.history[start:] {
		label := "User"
		if t.Role == RoleAgent {
			label = "Agent"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, strings.TrimSpace(t.Text)))
	}
	return strings.Join(lines, "\n")
}

func (s *Session) SetLastIntent(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIntent = level
	s.lastActive = time.Now().UTC()
}

func (s *Session) LastIntent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIntent
}

func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

func (s *Session) lastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
