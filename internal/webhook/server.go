package webhook

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xKrishnaSaxena/Sentinel/internal/intent"
	"github.com/xKrishnaSaxena/Sentinel/internal/store"
)

// fallbackReply is returned whenever the resolver or the store fails;
// the webhook always answers 200 with a reply body.
const fallbackReply = "Sorry, I'm having trouble processing that request right now."

// Resolver maps one inbound message onto an Intent.
type Resolver interface {
	Resolve(ctx context.Context, from, text string) (intent.Intent, error)
}

// Handler serves the inbound message webhook. It shares the watchlist
// store with the poll cycle and never touches its cursors.
type Handler struct {
	store    store.Store
	resolver Resolver
	interval time.Duration
	log      zerolog.Logger
}

func NewHandler(st store.Store, resolver Resolver, pollInterval time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		store:    st,
		resolver: resolver,
		interval: pollInterval,
		log:      log,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/bot", h.handleMessage)
	return r
}

// twimlResponse is the reply envelope the messaging provider expects.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.log.Warn().Err(err).Msg("malformed webhook form")
		h.writeReply(w, fallbackReply)
		return
	}

	body := r.PostFormValue("Body")
	from := r.PostFormValue("From")
	h.log.Info().Str("from", from).Msg("incoming message")

	h.writeReply(w, h.reply(r.Context(), from, body))
}

// reply resolves the message and executes the resulting action against
// the store. Reply wording keys off the store's own result values so the
// webhook and the store never disagree about what happened.
func (h *Handler) reply(ctx context.Context, from, text string) string {
	in, err := h.resolver.Resolve(ctx, from, text)
	if err != nil {
		h.log.Error().Err(err).Str("from", from).Msg("intent resolution failed")
		return fallbackReply
	}

	switch in.Action {
	case intent.ActionSubscribe:
		result, err := h.store.Add(ctx, from, in.Topic)
		if err != nil {
			h.log.Error().Err(err).Str("from", from).Msg("failed to add watch")
			return fallbackReply
		}
		symbol := store.NormalizeSymbol(in.Topic)
		if result == store.AlreadyExists {
			return fmt.Sprintf("%s is already in your watchlist.", symbol)
		}
		return fmt.Sprintf("✅ Added %s. I'll check for news every %d mins.", symbol, int(h.interval.Minutes()))

	case intent.ActionUnsubscribe:
		result, err := h.store.Remove(ctx, from, in.Topic)
		if err != nil {
			h.log.Error().Err(err).Str("from", from).Msg("failed to remove watch")
			return fallbackReply
		}
		symbol := store.NormalizeSymbol(in.Topic)
		if result == store.NotFound {
			return fmt.Sprintf("You are not tracking %s.", symbol)
		}
		return fmt.Sprintf("🗑️ Stopped tracking %s.", symbol)

	case intent.ActionList:
		symbols, err := h.store.List(ctx, from)
		if err != nil {
			h.log.Error().Err(err).Str("from", from).Msg("failed to list watches")
			return fallbackReply
		}
		if len(symbols) == 0 {
			return "You are not tracking anything."
		}
		return "👀 Tracking: " + strings.Join(symbols, ", ")

	default:
		if strings.TrimSpace(in.Reply) == "" {
			return fallbackReply
		}
		return in.Reply
	}
}

func (h *Handler) writeReply(w http.ResponseWriter, text string) {
	out, err := xml.Marshal(twimlResponse{Message: text})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode reply")
		out = []byte("<Response></Response>")
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
