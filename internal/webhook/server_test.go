package webhook

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xKrishnaSaxena/Sentinel/internal/intent"
	"github.com/xKrishnaSaxena/Sentinel/internal/models"
	"github.com/xKrishnaSaxena/Sentinel/internal/store"
)

type memStore struct {
	mu   sync.Mutex
	subs []models.Subscription
}

func (s *memStore) Close() error { return nil }

func (s *memStore) Add(_ context.Context, subscriber, symbol string) (store.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = store.NormalizeSymbol(symbol)
	for _, sub := range s.subs {
		if sub.Subscriber == subscriber && sub.Symbol == symbol {
			return store.AlreadyExists, nil
		}
	}
	s.subs = append(s.subs, models.Subscription{Subscriber: subscriber, Symbol: symbol, Cursor: models.NoCursor})
	return store.Added, nil
}

func (s *memStore) Remove(_ context.Context, subscriber, symbol string) (store.RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = store.NormalizeSymbol(symbol)
	for i, sub := range s.subs {
		if sub.Subscriber == subscriber && sub.Symbol == symbol {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return store.Removed, nil
		}
	}
	return store.NotFound, nil
}

func (s *memStore) List(_ context.Context, subscriber string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbols := []string{}
	for _, sub := range s.subs {
		if sub.Subscriber == subscriber {
			symbols = append(symbols, sub.Symbol)
		}
	}
	return symbols, nil
}

func (s *memStore) All(_ context.Context) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]models.Subscription, len(s.subs))
	copy(snapshot, s.subs)
	return snapshot, nil
}

func (s *memStore) AdvanceCursor(context.Context, string, string, string) error { return nil }

type fakeResolver struct {
	in  intent.Intent
	err error
}

func (r *fakeResolver) Resolve(context.Context, string, string) (intent.Intent, error) {
	return r.in, r.err
}

func postMessage(t *testing.T, handler http.Handler, from, body string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)
	req := httptest.NewRequest(http.MethodPost, "/bot", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func replyText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp twimlResponse
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func newTestHandler(st store.Store, resolver Resolver) *Handler {
	return NewHandler(st, resolver, 10*time.Minute, zerolog.Nop())
}

func TestSubscribeAddsWatch(t *testing.T) {
	st := &memStore{}
	h := newTestHandler(st, &fakeResolver{in: intent.Intent{Action: intent.ActionSubscribe, Topic: "tsla"}})

	rec := postMessage(t, h.Router(), "whatsapp:+1555", "track tesla for me")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "✅ Added TSLA. I'll check for news every 10 mins.", replyText(t, rec))

	symbols, err := st.List(context.Background(), "whatsapp:+1555")
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, symbols)
}

func TestSubscribeTwiceReportsExisting(t *testing.T) {
	st := &memStore{}
	h := newTestHandler(st, &fakeResolver{in: intent.Intent{Action: intent.ActionSubscribe, Topic: "AAPL"}})

	postMessage(t, h.Router(), "whatsapp:+1555", "watch apple")
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "watch apple")

	assert.Equal(t, "AAPL is already in your watchlist.", replyText(t, rec))

	symbols, err := st.List(context.Background(), "whatsapp:+1555")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

func TestUnsubscribeRemovesWatch(t *testing.T) {
	st := &memStore{}
	_, err := st.Add(context.Background(), "whatsapp:+1555", "AAPL")
	require.NoError(t, err)

	h := newTestHandler(st, &fakeResolver{in: intent.Intent{Action: intent.ActionUnsubscribe, Topic: "aapl"}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "stop tracking apple")

	assert.Equal(t, "🗑️ Stopped tracking AAPL.", replyText(t, rec))

	symbols, err := st.List(context.Background(), "whatsapp:+1555")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestUnsubscribeUnknownReportsNotFound(t *testing.T) {
	h := newTestHandler(&memStore{}, &fakeResolver{in: intent.Intent{Action: intent.ActionUnsubscribe, Topic: "AAPL"}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "stop tracking apple")

	assert.Equal(t, "You are not tracking AAPL.", replyText(t, rec))
}

func TestListWatchedSymbols(t *testing.T) {
	st := &memStore{}
	_, err := st.Add(context.Background(), "whatsapp:+1555", "AAPL")
	require.NoError(t, err)
	_, err = st.Add(context.Background(), "whatsapp:+1555", "TSLA")
	require.NoError(t, err)

	h := newTestHandler(st, &fakeResolver{in: intent.Intent{Action: intent.ActionList}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "what am I tracking?")

	assert.Equal(t, "👀 Tracking: AAPL, TSLA", replyText(t, rec))
}

func TestListEmptyWatchlist(t *testing.T) {
	h := newTestHandler(&memStore{}, &fakeResolver{in: intent.Intent{Action: intent.ActionList}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "what am I tracking?")

	assert.Equal(t, "You are not tracking anything.", replyText(t, rec))
}

func TestConversationalReplyPassesThrough(t *testing.T) {
	h := newTestHandler(&memStore{}, &fakeResolver{in: intent.Intent{Action: intent.ActionReply, Reply: "Hi! Ask me to track a stock."}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "hello")

	assert.Equal(t, "Hi! Ask me to track a stock.", replyText(t, rec))
}

func TestResolverFailureGetsFallbackReply(t *testing.T) {
	h := newTestHandler(&memStore{}, &fakeResolver{err: errors.New("model down")})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "track tesla")

	// Internal failure never surfaces as a non-200 or a hung request.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fallbackReply, replyText(t, rec))
}

func TestReplyEnvelopeIsValidTwiML(t *testing.T) {
	h := newTestHandler(&memStore{}, &fakeResolver{in: intent.Intent{Action: intent.ActionReply, Reply: "a < b & c"}})
	rec := postMessage(t, h.Router(), "whatsapp:+1555", "compare")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, xml.Header))
	assert.Equal(t, "a < b & c", replyText(t, rec))
}
