package store

import (
	"context"
	"strings"

	"github.com/xKrishnaSaxena/Sentinel/internal/models"
)

// AddResult reports which branch an Add took. A duplicate subscribe is
// not an error; callers word their replies off this value.
type AddResult int

const (
	Added AddResult = iota
	AlreadyExists
)

// RemoveResult reports which branch a Remove took.
type RemoveResult int

const (
	Removed RemoveResult = iota
	NotFound
)

// Store is the watchlist. The poll cycle and the webhook share one
// instance; implementations must serialize concurrent access.
type Store interface {
	Close() error

	// Add inserts a (subscriber, symbol) watch with cursor models.NoCursor.
	// The symbol is normalized first. No side effect when the watch exists.
	Add(ctx context.Context, subscriber, symbol string) (AddResult, error)

	// Remove deletes a watch, reporting NotFound when there was none.
	Remove(ctx context.Context, subscriber, symbol string) (RemoveResult, error)

	// List returns the symbols one subscriber watches, oldest first.
	// An empty watchlist is an empty slice, not an error.
	List(ctx context.Context, subscriber string) ([]string, error)

	// All snapshots every subscription for one poll tick.
	All(ctx context.Context) ([]models.Subscription, error)

	// AdvanceCursor points a watch at the last delivered link. Called
	// only after delivery succeeded; idempotent.
	AdvanceCursor(ctx context.Context, subscriber, symbol, link string) error
}

// NormalizeSymbol canonicalizes a ticker the way every write and lookup
// expects it: trimmed and uppercased.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
