package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// DocumentStore persists JSON documents grouped in collections.
type DocumentStore interface {
	// InsertOne appends doc to collection under a fresh id and returns the id.
	InsertOne(ctx context.Context, collection string, doc map[string]any) (string, error)
	// Upsert creates or replaces the document with the given id.
	Upsert(ctx context.Context, collection, id string, doc map[string]any) error
}

// PostgresStore implements DocumentStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection VARCHAR(64) NOT NULL,
		id VARCHAR(128) NOT NULL,
		body JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection, created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// InsertOne stores doc under a random id.
func (s *PostgresStore) InsertOne(ctx context.Context, collection string, doc map[string]any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`,
		collection, id, body,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Upsert stores doc under id, replacing any previous body.
func (s *PostgresStore) Upsert(ctx context.Context, collection, id string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO documents (collection, id, body, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (collection, id) DO UPDATE SET
		body = EXCLUDED.body,
		updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query, collection, id, body)
	return err
}

// Count returns the number of documents in collection.
func (s *PostgresStore) Count(ctx context.Context, collection string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = $1", collection).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InMemoryStore implements DocumentStore for testing without a database.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

// InsertOne stores a copy of doc in memory.
func (s *InMemoryStore) InsertOne(ctx context.Context, collection string, doc map[string]any) (string, error) {
	id := uuid.NewString()
	return id, s.Upsert(ctx, collection, id, doc)
}

// Upsert stores a copy of doc under id.
func (s *InMemoryStore) Upsert(ctx context.Context, collection, id string, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	docs[id] = maps.Clone(doc)
	return nil
}

// Get returns the document stored under id.
func (s *InMemoryStore) Get(collection, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	return doc, ok
}

// All returns every document of collection in no particular order.
func (s *InMemoryStore) All(collection string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]map[string]any, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, doc)
	}
	return docs
}
