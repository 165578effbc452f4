package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const twitterAPIBase = "https://api.twitter.com"

// TwitterProvider posts status updates via the Twitter v2 API using a
// user-context OAuth2 access token.
type TwitterProvider struct {
	baseURL    string
	httpClient *http.Client
}

// TwitterOption configures a TwitterProvider.
type TwitterOption func(*TwitterProvider)

// WithTwitterBaseURL overrides the API root. Used by tests.
func WithTwitterBaseURL(u string) TwitterOption {
	return func(p *TwitterProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

// NewTwitterProvider creates a provider authenticated with the given access token.
func NewTwitterProvider(accessToken string, opts ...TwitterOption) *TwitterProvider {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	hc := oauth2.NewClient(context.Background(), src)
	hc.Timeout = 15 * time.Second

	p := &TwitterProvider{
		baseURL:    twitterAPIBase,
		httpClient: hc,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *TwitterProvider) Name() string { return "twitter" }

// Send posts msg.Body as a tweet. The platform's length limit is not
// enforced here; the API rejects over-long text.
func (p *TwitterProvider) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]string{"text": msg.Body})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+"/2/tweets", bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling Twitter create tweet: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twitter API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
