package models

// NoCursor marks a subscription that has never been notified. The first
// successful fetch for such a subscription always counts as new.
const NoCursor = "none"

// Subscription is one (subscriber, symbol) watch with its dedup cursor.
// Cursor holds the link of the last item delivered for this watch.
type Subscription struct {
	Subscriber string
	Symbol     string
	Cursor     string
}

// FeedItem is the most recent known news item for a symbol. Identity is
// the link alone; two items with the same link are the same event even
// if their titles differ.
type FeedItem struct {
	Title string
	Link  string
}
