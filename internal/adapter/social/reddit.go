// internal/adapter/social/reddit.go

package social

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/logging"
	"tagpulse/internal/service/listening"
)

// ErrCircuitOpen is returned while the Reddit circuit breaker is open.
var ErrCircuitOpen = errors.New("reddit circuit open")

// statusError carries a non-200 Reddit response code.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("Reddit API returned status code %d", e.code)
}

// Unwrap classifies client errors by cause: a missing post is a bad id,
// anything else means the source is unavailable.
func (e *statusError) Unwrap() error {
	if e.code == http.StatusNotFound {
		return listening.ErrInvalidPostID
	}
	return listening.ErrSourceUnavailable
}

// breakerSuccess keeps client errors from tripping the breaker; only
// transport failures and 5xx responses count against Reddit.
func breakerSuccess(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 400 && se.code < 500
	}
	return err == nil
}

// RedditConfig configures the Reddit client
type RedditConfig struct {
	// BaseURL is used for anonymous access, OAuthBaseURL once credentials are set.
	BaseURL           string
	OAuthBaseURL      string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// CooldownPeriod is how long the circuit stays open.
	CooldownPeriod time.Duration
}

// RedditClient handles interactions with the Reddit API
type RedditClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// RedditPost represents a post from Reddit
type RedditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	Created     float64 `json:"created_utc"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string        `json:"after"`
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditComment struct {
	ID       string          `json:"id"`
	Body     string          `json:"body"`
	Author   string          `json:"author"`
	ParentID string          `json:"parent_id"`
	LinkID   string          `json:"link_id"`
	Replies  json.RawMessage `json:"replies"`
}

// NewRedditClient creates a new Reddit API client. With a client ID and
// secret it authenticates with the client-credentials grant against the
// OAuth host, otherwise it uses the public JSON endpoints.
func NewRedditClient(cfg RedditConfig) *RedditClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tagpulse/1.0"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = 30 * time.Second
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: userAgentTransport{agent: cfg.UserAgent, next: http.DefaultTransport},
	}

	httpClient := base
	baseURL := cfg.BaseURL
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		httpClient = cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
		httpClient.Timeout = cfg.Timeout
		baseURL = cfg.OAuthBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "reddit",
		Timeout: cfg.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &RedditClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		breaker:    breaker,
	}
}

// FetchHotPosts fetches the hot listing of a subreddit
func (c *RedditClient) FetchHotPosts(ctx context.Context, subreddit string, limit int) ([]RedditPost, error) {
	if subreddit == "" {
		subreddit = "news"
	}
	if limit <= 0 {
		limit = 20
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("raw_json", "1")

	body, err := c.get(ctx, fmt.Sprintf("/r/%s/hot.json", url.PathEscape(subreddit)), q)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode Reddit API response: %w", err)
	}

	posts := make([]RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p RedditPost
		if err := json.Unmarshal(child.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode Reddit post: %w", err)
		}
		posts = append(posts, p)
	}

	logging.Debug().Str("subreddit", subreddit).Int("posts", len(posts)).Msg("fetched reddit posts")
	return posts, nil
}

// FetchComments fetches the comment tree of a post and flattens it into
// parent-linked records. Top-level comments have no parent; "load more"
// stubs are skipped.
func (c *RedditClient) FetchComments(ctx context.Context, postID string) ([]thread.CommentRecord, error) {
	q := url.Values{}
	q.Set("raw_json", "1")

	body, err := c.get(ctx, fmt.Sprintf("/comments/%s.json", url.PathEscape(postID)), q)
	if err != nil {
		return nil, err
	}

	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode Reddit comments: %w", err)
	}
	if len(listings) < 2 {
		return []thread.CommentRecord{}, nil
	}

	return flattenComments(postID, listings[1].Data.Children)
}

// flattenComments walks the nested reply listings depth-first with an
// explicit stack, emitting parents before their replies.
func flattenComments(postID string, top []redditThing) ([]thread.CommentRecord, error) {
	records := []thread.CommentRecord{}

	stack := make([]redditThing, 0, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		stack = append(stack, top[i])
	}

	for len(stack) > 0 {
		thing := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if thing.Kind != "t1" {
			continue
		}

		var rc redditComment
		if err := json.Unmarshal(thing.Data, &rc); err != nil {
			return nil, fmt.Errorf("failed to decode Reddit comment: %w", err)
		}

		rec := thread.CommentRecord{
			ID:       rc.ID,
			Content:  rc.Body,
			AuthorID: rc.Author,
			PostID:   postID,
		}
		if parent, ok := strings.CutPrefix(rc.ParentID, "t1_"); ok {
			rec.ParentID = &parent
		}
		records = append(records, rec)

		// replies is "" when empty, a listing otherwise
		if len(rc.Replies) == 0 || rc.Replies[0] != '{' {
			continue
		}
		var replies redditListing
		if err := json.Unmarshal(rc.Replies, &replies); err != nil {
			return nil, fmt.Errorf("failed to decode Reddit replies: %w", err)
		}
		children := replies.Data.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return records, nil
}

func (c *RedditClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to connect to Reddit API: %v", listening.ErrSourceUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{code: resp.StatusCode}
		}

		return io.ReadAll(resp.Body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", listening.ErrSourceUnavailable, ErrCircuitOpen)
	}
	return body, err
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}
