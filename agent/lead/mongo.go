package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI        string        `envconfig:"URI" split_words:"true" required:"true"`
	Database   string        `envconfig:"DATABASE" split_words:"true" default:"fitlead"`
	Collection string        `envconfig:"COLLECTION" split_words:"true" default:"lead_memories"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// MongoStore keeps one document per session, keyed by _id = session id.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		col:    client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, sessionID string) (*Memory, error) {
	m, err := s.Fetch(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return New(sessionID, s.now()), nil
	}
	return m, err
}

func (s *MongoStore) Fetch(ctx context.Context, sessionID string) (*Memory, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	var m Memory
	err := s.col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead memory: %w", err)
	}
	return &m, nil
}

func (s *MongoStore) Save(ctx context.Context, m *Memory) error {
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
		if _, err := s.col.InsertOne(ctx, m); err != nil {
			m.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("insert lead memory: %w", err)
		}
		return nil
	}

	prev := m.Version
	m.Version = prev + 1
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": m.SessionID, "version": prev}, m)
	if err != nil {
		m.Version = prev
		return fmt.Errorf("replace lead memory: %w", err)
	}
	if res.MatchedCount == 0 {
		m.Version = prev
		return ErrVersionConflict
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrInvalidSession
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": sessionID})
	if err != nil {
		return false, fmt.Errorf("delete lead memory: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
