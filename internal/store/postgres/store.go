package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/xKrishnaSaxena/Sentinel/internal/models"
	"github.com/xKrishnaSaxena/Sentinel/internal/store"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	return &Store{db: db}, nil
}

func initDatabase(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			id SERIAL PRIMARY KEY,
			subscriber TEXT NOT NULL,
			symbol TEXT NOT NULL,
			last_seen_link TEXT NOT NULL DEFAULT 'none',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(subscriber, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_subscriber
			ON watchlist(subscriber)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %v", query, err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, subscriber, symbol string) (store.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = store.NormalizeSymbol(symbol)

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM watchlist WHERE subscriber = $1 AND symbol = $2)",
		subscriber, symbol).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing watch: %v", err)
	}
	if exists {
		return store.AlreadyExists, nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO watchlist (subscriber, symbol, last_seen_link) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		subscriber, symbol, models.NoCursor)
	if err != nil {
		return 0, fmt.Errorf("failed to insert watch: %v", err)
	}

	return store.Added, nil
}

func (s *Store) Remove(ctx context.Context, subscriber, symbol string) (store.RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = store.NormalizeSymbol(symbol)

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM watchlist WHERE subscriber = $1 AND symbol = $2",
		subscriber, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to remove watch: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return store.NotFound, nil
	}

	return store.Removed, nil
}

func (s *Store) List(ctx context.Context, subscriber string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol FROM watchlist WHERE subscriber = $1 ORDER BY id",
		subscriber)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %v", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %v", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

func (s *Store) All(ctx context.Context) ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT subscriber, symbol, last_seen_link FROM watchlist ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %v", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.Subscriber, &sub.Symbol, &sub.Cursor); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %v", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (s *Store) AdvanceCursor(ctx context.Context, subscriber, symbol, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE watchlist SET last_seen_link = $3 WHERE subscriber = $1 AND symbol = $2",
		subscriber, store.NormalizeSymbol(symbol), link)
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %v", err)
	}

	return nil
}
