package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio delivers messages through the Twilio Messages REST API. One
// attempt per call; retries are the poll cycle's business.
type Twilio struct {
	baseURL string
	sid     string
	token   string
	from    string
	client  *http.Client
}

func NewTwilio(sid, token, from string) *Twilio {
	return &Twilio{
		baseURL: defaultBaseURL,
		sid:     sid,
		token:   token,
		from:    from,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers body to one subscriber address. Destinations without a
// channel prefix are treated as WhatsApp numbers.
func (t *Twilio) Send(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.sid, t.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
