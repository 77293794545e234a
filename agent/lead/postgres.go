package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type memoryRow struct {
	bun.BaseModel `bun:"table:lead_memories,alias:lm"`

	SessionID string `bun:"session_id,pk"`

	FitnessGoals        string `bun:"fitness_goals,notnull"`
	PastExperience      string `bun:"past_experience,notnull"`
	LocationProximity   string `bun:"location_proximity,notnull"`
	JoiningTimeline     string `bun:"joining_timeline,notnull"`
	Motivation          string `bun:"motivation,notnull"`
	PreferredTime       string `bun:"preferred_time,notnull"`
	HealthPhysicalInfo  string `bun:"health_physical_info,notnull"`
	Objections          string `bun:"objections,notnull"`
	ConversationSummary string `bun:"conversation_summary,notnull"`

	TotalMessages int    `bun:"total_messages,notnull,default:0"`
	LastIntent    string `bun:"last_intent,notnull"`

	Version     int64     `bun:"version,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	LastUpdated time.Time `bun:"last_updated,notnull"`
}

func rowFromMemory(m *Memory) *memoryRow {
	return &memoryRow{
		SessionID:           m.SessionID,
		FitnessGoals:        m.FitnessGoals,
		PastExperience:      m.PastExperience,
		LocationProximity:   m.LocationProximity,
		JoiningTimeline:     m.JoiningTimeline,
		Motivation:          m.Motivation,
		PreferredTime:       m.PreferredTime,
		HealthPhysicalInfo:  m.HealthPhysicalInfo,
		Objections:          m.Objections,
		ConversationSummary: m.ConversationSummary,
		TotalMessages:       m.TotalMessages,
		LastIntent:          m.LastIntent,
		Version:             m.Version,
		CreatedAt:           m.CreatedAt,
		LastUpdated:         m.LastUpdated,
	}
}

func (r *memoryRow) toMemory() *Memory {
	return &Memory{
		SessionID:           r.SessionID,
		FitnessGoals:        r.FitnessGoals,
		PastExperience:      r.PastExperience,
		LocationProximity:   r.LocationProximity,
		JoiningTimeline:     r.JoiningTimeline,
		Motivation:          r.Motivation,
		PreferredTime:       r.PreferredTime,
		HealthPhysicalInfo:  r.HealthPhysicalInfo,
		Objections:          r.Objections,
		ConversationSummary: r.ConversationSummary,
		TotalMessages:       r.TotalMessages,
		LastIntent:          r.LastIntent,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		LastUpdated:         r.LastUpdated,
	}
}

// PostgresStore is the SQL-backed alternative to MongoStore, selected via
// LEADSTORE_DRIVER=postgres.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db, now: time.Now}
	if err := store.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*memoryRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create lead_memories table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Memory, error) {
	m, err := s.Fetch(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return New(sessionID, s.now()), nil
	}
	return m, err
}

func (s *PostgresStore) Fetch(ctx context.Context, sessionID string) (*Memory, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	row := new(memoryRow)
	err := s.db.NewSelect().
		Model(row).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select lead memory: %w", err)
	}
	return row.toMemory(), nil
}

func (s *PostgresStore) Save(ctx context.Context, m *Memory) error {
	if m == nil {
		return ErrNilMemory
	}
	if strings.TrimSpace(m.SessionID) == "" {
		return ErrInvalidSession
	}

	now := s.now().UTC()
	m.LastUpdated = now

	if m.Version == 0 {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.Version = 1
		if _, err := s.db.NewInsert().Model(rowFromMemory(m)).Exec(ctx); err != nil {
			m.Version = 0
			return fmt.Errorf("insert lead memory: %w", err)
		}
		return nil
	}

	prev := m.Version
	m.Version = prev + 1
	res, err := s.db.NewUpdate().
		Model(rowFromMemory(m)).
		WherePK().
		Where("version = ?", prev).
		Exec(ctx)
	if err != nil {
		m.Version = prev
		return fmt.Errorf("update lead memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		m.Version = prev
		return fmt.Errorf("update lead memory: %w", err)
	}
	if affected == 0 {
		m.Version = prev
		return ErrVersionConflict
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrInvalidSession
	}
	res, err := s.db.NewDelete().
		Model((*memoryRow)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete lead memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete lead memory: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}
