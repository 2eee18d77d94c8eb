// Package newsapi implements domain.NewsProvider against NewsAPI.org.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/google/uuid"
)

const (
	providerName   = "newsapi"
	defaultBaseURL = "https://newsapi.org/v2"

	// maxResults is the deepest result NewsAPI serves on developer plans.
	maxResults = 100
)

// Client implements domain.NewsProvider. A client without an API key is
// disabled and fails every call with domain.ErrProviderDisabled.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NewsAPI client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// News returns the most recent articles mentioning location.
func (c *Client) News(ctx context.Context, location string, page domain.PageRequest) (domain.Page[domain.Article], error) {
	if c.apiKey == "" {
		return domain.Page[domain.Article]{}, domain.NewProviderError(providerName, domain.KindDisabled, domain.ErrProviderDisabled)
	}
	if page.Offset() >= maxResults {
		return domain.Page[domain.Article]{Items: []domain.Article{}, Pagination: domain.NewPagination(maxResults, page)}, nil
	}
	start := time.Now()

	params := url.Values{
		"q":        {location},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"page":     {strconv.Itoa(page.Page)},
		"pageSize": {strconv.Itoa(page.Limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return domain.Page[domain.Article]{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.Page[domain.Article]{}, domain.NewProviderError(providerName, domain.KindNone, fmt.Errorf("news request: %w", err))
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.Page[domain.Article]{}, domain.NewProviderError(providerName, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		c.metrics.ObserveProvider(providerName, "error", start)
		kind := domain.KindForStatus(resp.StatusCode)
		if body.Code == "apiKeyInvalid" || body.Code == "apiKeyMissing" {
			kind = domain.KindUnauthorized
		}
		return domain.Page[domain.Article]{}, domain.NewProviderError(providerName, kind,
			fmt.Errorf("newsapi error: status %d: %s: %s", resp.StatusCode, body.Code, body.Message))
	}

	outcome := "success"
	if len(body.Articles) == 0 {
		outcome = "empty"
	}
	c.metrics.ObserveProvider(providerName, outcome, start)

	items := make([]domain.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		items = append(items, a.toDomain())
	}
	return domain.Page[domain.Article]{
		Items:      items,
		Pagination: domain.NewPagination(min(body.TotalResults, maxResults), page),
	}, nil
}

// NewsAPI response types.

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

// toDomain derives a stable ID from the article URL so repeated fetches of
// the same story keep one identity.
func (a article) toDomain() domain.Article {
	return domain.Article{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(a.URL)).String(),
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
		Source:      a.Source.Name,
		PublishedAt: a.PublishedAt,
	}
}
