// Package insights polls the persona insight feed and surfaces new items
// as immediate notifications.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
)

const (
	defaultPollInterval = 15 * time.Minute
	defaultFeedTimeout  = 10 * time.Second
)

// Item is one persona insight from the feed.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed lists insight items created after the cursor.
type Feed interface {
	FetchInsights(ctx context.Context, userID string, since time.Time) ([]Item, error)
}

// Creator turns a calculated trigger into a stored, armed notification.
// Satisfied by the lifecycle service.
type Creator interface {
	CreateFromTrigger(ctx context.Context, trigger *domain.Trigger) (domain.NotificationRecord, error)
}

// HTTPFeed reads the persona insight feed over the backend API.
type HTTPFeed struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewHTTPFeed constructs an insight feed client. A nil httpClient gets a
// default with a request timeout.
func NewHTTPFeed(baseURL string, authToken string, httpClient *http.Client) *HTTPFeed {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFeedTimeout}
	}
	return &HTTPFeed{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken:  strings.TrimSpace(authToken),
		httpClient: httpClient,
	}
}

// FetchInsights lists feed items created after since.
func (f *HTTPFeed) FetchInsights(ctx context.Context, userID string, since time.Time) ([]Item, error) {
	if f == nil || f.baseURL == "" {
		return nil, errors.New("insight feed is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	query := url.Values{}
	query.Set("user_id", userID)
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/v1/personas/insights?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build insights request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch insights: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insights status %d", resp.StatusCode)
	}

	var payload struct {
		Insights []Item `json:"insights"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode insights response: %w", err)
	}
	return payload.Insights, nil
}

// Poller periodically drains the feed into immediate notifications.
// Items are deduplicated by id across polls within one process lifetime;
// the cursor advances through the contiguous prefix of handled items.
type Poller struct {
	feed     Feed
	creator  Creator
	clock    func() time.Time
	interval time.Duration

	mu     sync.Mutex
	seen   map[string]struct{}
	cursor time.Time
}

// NewPoller constructs the insight feed poller. A nil clock uses wall time.
func NewPoller(feed Feed, creator Creator, clock func() time.Time) *Poller {
	if clock == nil {
		clock = time.Now
	}
	return &Poller{
		feed:     feed,
		creator:  creator,
		clock:    clock,
		interval: defaultPollInterval,
		seen:     make(map[string]struct{}),
	}
}

// Run polls on a fixed interval until the context ends.
func (p *Poller) Run(ctx context.Context, userID string) error {
	if p == nil || p.feed == nil || p.creator == nil {
		return errors.New("insight poller is not configured")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.PollOnce(ctx, userID); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reminders: poll insight feed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce fetches the feed once and creates a notification per new item.
// Returns the number created. A failed creation pins the cursor before the
// item so the next fetch includes it again; later items in the same batch
// are still created and deduplicated by id when refetched.
func (p *Poller) PollOnce(ctx context.Context, userID string) (int, error) {
	if p == nil || p.feed == nil || p.creator == nil {
		return 0, errors.New("insight poller is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("user id is required")
	}

	p.mu.Lock()
	cursor := p.cursor
	p.mu.Unlock()

	items, err := p.feed.FetchInsights(ctx, userID, cursor)
	if err != nil {
		return 0, err
	}

	created := 0
	stalled := false
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" || p.alreadySeen(item.ID) {
			if !stalled {
				p.advanceCursor(item.CreatedAt)
			}
			continue
		}

		trigger := domain.InsightTrigger(userID, item.Text, p.clock().UTC())
		if _, err := p.creator.CreateFromTrigger(ctx, trigger); err != nil {
			log.Printf("reminders: create insight notification %s: %v", item.ID, err)
			stalled = true
			continue
		}
		p.markSeen(item.ID)
		if !stalled {
			p.advanceCursor(item.CreatedAt)
		}
		created++
	}
	return created, nil
}

func (p *Poller) alreadySeen(id string) bool {
	if id == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[id]
	return ok
}

func (p *Poller) markSeen(id string) {
	if id == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[id] = struct{}{}
}

func (p *Poller) advanceCursor(createdAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if createdAt.After(p.cursor) {
		p.cursor = createdAt
	}
}
