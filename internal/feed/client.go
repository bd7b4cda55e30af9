package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xKrishnaSaxena/Sentinel/internal/models"
)

// Google News rejects requests without a browser-looking agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const defaultBaseURL = "https://news.google.com/rss/search"

// Client fetches the most recent Google News item for a stock symbol.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Latest returns the newest item for symbol, or nil when the feed is
// empty. Transient failures surface as errors; the caller decides how
// to isolate them.
func (c *Client) Latest(ctx context.Context, symbol string) (*models.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", symbol+" stock")
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rf rssFeed
	if err := xml.Unmarshal(body, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %v", err)
	}

	if len(rf.Channel.Item) == 0 {
		return nil, nil
	}

	latest := rf.Channel.Item[0]
	return &models.FeedItem{Title: latest.Title, Link: latest.Link}, nil
}

type rssFeed struct {
	Channel struct {
		Item []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}
