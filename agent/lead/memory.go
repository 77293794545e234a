package lead

import (
	"fmt"
	"strings"
	"time"
)

// Sentinel values marking profile fields that were never confirmed.
const (
	SentinelUnknown = "Unknown"
	SentinelNone    = "None"
)

// initialIntent is the stored value before any classification has happened.
const initialIntent = "unknown"

// Memory is the durable structured profile accumulated about a lead across
// sessions. SessionID and CreatedAt are immutable once created; Version
// backs compare-and-swap saves.
type Memory struct {
	SessionID string `bson:"_id" json:"session_id"`

	FitnessGoals        string `bson:"fitness_goals" json:"fitness_goals"`
	PastExperience      string `bson:"past_experience" json:"past_experience"`
	LocationProximity   string `bson:"location_proximity" json:"location_proximity"`
	JoiningTimeline     string `bson:"joining_timeline" json:"joining_timeline"`
	Motivation          string `bson:"motivation" json:"motivation"`
	PreferredTime       string `bson:"preferred_time" json:"preferred_time"`
	HealthPhysicalInfo  string `bson:"health_physical_info" json:"health_physical_info"`
	Objections          string `bson:"objections" json:"objections"`
	ConversationSummary string `bson:"conversation_summary" json:"conversation_summary"`

	TotalMessages int    `bson:"total_messages" json:"total_messages"`
	LastIntent    string `bson:"last_intent" json:"last_intent"`

	Version     int64     `bson:"version" json:"version"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// Field describes one profile field: its prompt label, its sentinel, and
// accessors. The table drives Snapshot, RenderContext, and the label parser
// so they can never disagree on labels.
type Field struct {
	Label    string
	JSONKey  string
	Sentinel string
	Get      func(*Memory) string
	Set      func(*Memory, string)
}

// Fields lists the nine profile fields in canonical order.
var Fields = []Field{
	{"Fitness Goal(s)", "fitness_goals", SentinelUnknown,
		func(m *Memory) string { return m.FitnessGoals },
		func(m *Memory, v string) { m.FitnessGoals = v }},
	{"Past Experience / Background", "past_experience", SentinelUnknown,
		func(m *Memory) string { return m.PastExperience },
		func(m *Memory, v string) { m.PastExperience = v }},
	{"Location / Proximity", "location_proximity", SentinelUnknown,
		func(m *Memory) string { return m.LocationProximity },
		func(m *Memory, v string) { m.LocationProximity = v }},
	{"Joining Timeline", "joining_timeline", SentinelUnknown,
		func(m *Memory) string { return m.JoiningTimeline },
		func(m *Memory, v string) { m.JoiningTimeline = v }},
	{"Motivation", "motivation", SentinelUnknown,
		func(m *Memory) string { return m.Motivation },
		func(m *Memory, v string) { m.Motivation = v }},
	{"Preferred Time", "preferred_time", SentinelUnknown,
		func(m *Memory) string { return m.PreferredTime },
		func(m *Memory, v string) { m.PreferredTime = v }},
	{"Health / Physical Info", "health_physical_info", SentinelUnknown,
		func(m *Memory) string { return m.HealthPhysicalInfo },
		func(m *Memory, v string) { m.HealthPhysicalInfo = v }},
	{"Objections", "objections", SentinelNone,
		func(m *Memory) string { return m.Objections },
		func(m *Memory, v string) { m.Objections = v }},
	{"Other Notes", "conversation_summary", SentinelNone,
		func(m *Memory) string { return m.ConversationSummary },
		func(m *Memory, v string) { m.ConversationSummary = v }},
}

// New mints a default record: all profile fields sentinel, counters zero,
// both timestamps set to now.
func New(sessionID string, now time.Time) *Memory {
	m := &Memory{
		SessionID:   sessionID,
		LastIntent:  initialIntent,
		CreatedAt:   now.UTC(),
		LastUpdated: now.UTC(),
	}
	for _, f := range Fields {
		f.Set(m, f.Sentinel)
	}
	return m
}

func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// IsSentinel reports whether a value means "never confirmed".
func IsSentinel(v string) bool {
	t := strings.TrimSpace(v)
	return t == "" || strings.EqualFold(t, SentinelUnknown) || strings.EqualFold(t, SentinelNone)
}

// IsBlank reports whether no profile field has ever been confirmed.
func (m *Memory) IsBlank() bool {
	for _, f := range Fields {
		if !IsSentinel(f.Get(m)) {
			return false
		}
	}
	return true
}

// Snapshot renders the labeled nine-field block fed to the memory manager
// model. The parser on the other side matches the same labels.
func (m *Memory) Snapshot() string {
	var b strings.Builder
	for _, f := range Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Get(m))
	}
	return b.String()
}

// RenderContext renders the profile as a system-prompt block for the
// responder, with distinct wording for a lead we know nothing about yet.
func (m *Memory) RenderContext() string {
	if m.IsBlank() {
		return "LEAD PROFILE: This is a new lead. Nothing is known about them yet; " +
			"ask discovery questions to learn their goals and situation."
	}

	var b strings.Builder
	b.WriteString("LEAD PROFILE (confirmed so far):\n")
	for _, f := range Fields {
		if v := f.Get(m); !IsSentinel(v) {
			fmt.Fprintf(&b, "- %s: %s\n", f.Label, v)
		}
	}
	fmt.Fprintf(&b, "- Messages exchanged: %d\n", m.TotalMessages)
	if !IsSentinel(m.LastIntent) && m.LastIntent != initialIntent {
		fmt.Fprintf(&b, "- Last observed intent: %s\n", m.LastIntent)
	}
	return strings.TrimRight(b.String(), "\n")
}
