package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/xKrishnaSaxena/Sentinel/internal/models"
	"github.com/xKrishnaSaxena/Sentinel/internal/sentiment"
	"github.com/xKrishnaSaxena/Sentinel/internal/store"
)

// FeedClient returns the most recent item for a symbol, or nil when the
// feed has nothing for it.
type FeedClient interface {
	Latest(ctx context.Context, symbol string) (*models.FeedItem, error)
}

// Annotator classifies a headline into a short sentiment label.
type Annotator interface {
	Annotate(ctx context.Context, title string) (string, error)
}

// Notifier delivers one message to one subscriber. A single attempt per
// call; the poll cycle retries on the next tick because the cursor only
// advances after success.
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// Poller is the poll cycle engine: every interval it snapshots the
// watchlist, fetches each symbol's latest news item, and alerts the
// subscriber once per new item.
type Poller struct {
	store     store.Store
	feed      FeedClient
	annotator Annotator
	notifier  Notifier
	interval  time.Duration
	log       zerolog.Logger
}

func New(st store.Store, feed FeedClient, annotator Annotator, notifier Notifier, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		store:     st,
		feed:      feed,
		annotator: annotator,
		notifier:  notifier,
		interval:  interval,
		log:       log,
	}
}

// Run executes one tick per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().Dur("interval", p.interval).Msg("poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller shutting down")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one full pass over the watchlist. Every subscription is
// attempted; one subscription's failure never reaches its siblings.
func (p *Poller) Tick(ctx context.Context) {
	subs, err := p.store.All(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to snapshot watchlist")
		return
	}

	p.log.Debug().Int("subscriptions", len(subs)).Msg("tick started")
	for _, sub := range subs {
		p.check(ctx, sub)
	}
	p.log.Debug().Msg("tick completed")
}

func (p *Poller) check(ctx context.Context, sub models.Subscription) {
	log := p.log.With().Str("symbol", sub.Symbol).Str("subscriber", sub.Subscriber).Logger()

	item, err := p.feed.Latest(ctx, sub.Symbol)
	if err != nil {
		log.Warn().Err(err).Msg("feed fetch failed")
		return
	}
	if item == nil {
		return
	}
	if item.Link == sub.Cursor {
		return
	}

	label, err := p.annotator.Annotate(ctx, item.Title)
	if err != nil {
		log.Warn().Err(err).Msg("annotation failed, using fallback label")
		label = sentiment.FallbackLabel
	}

	body := fmt.Sprintf("🔔 *%s News*\n\n%s\n\n🔗 %s", sub.Symbol, label, item.Link)

	if err := p.notifier.Send(ctx, sub.Subscriber, body); err != nil {
		// Cursor stays put so this item is retried next tick.
		log.Error().Err(err).Msg("delivery failed")
		return
	}

	if err := p.store.AdvanceCursor(ctx, sub.Subscriber, sub.Symbol, item.Link); err != nil {
		log.Error().Err(err).Msg("failed to advance cursor")
		return
	}

	log.Info().Str("link", item.Link).Msg("alert sent")
}
