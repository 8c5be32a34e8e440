package news

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vikram-agentic/tradex/internal/config"
)

// NewsAPIClient queries the NewsAPI "everything" endpoint for recent
// coverage of the requested symbols.
type NewsAPIClient struct {
	http     *resty.Client
	apiKey   string
	pageSize int
	logger   *zap.Logger
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func NewNewsAPIClient(cfg config.NewsConfig, logger *zap.Logger) *NewsAPIClient {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NewsAPIClient{
		http:     client,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Configured reports whether an API key is present. Without one the caller
// should fall back to stored articles.
func (c *NewsAPIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *NewsAPIClient) GetNews(ctx context.Context, symbols []string, limit int) ([]Article, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("newsapi key not configured")
	}
	if limit <= 0 || limit > c.pageSize {
		limit = c.pageSize
	}

	var out newsAPIResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        buildQuery(symbols),
			"sortBy":   "publishedAt",
			"language": "en",
			"pageSize": strconv.Itoa(limit),
			"apiKey":   c.apiKey,
		}).
		SetResult(&out).
		Get("/everything")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("newsapi: status %d", resp.StatusCode())
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q", out.Status)
	}

	articles := make([]Article, 0, len(out.Articles))
	for _, a := range out.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		published := time.Now().UTC()
		if parsed, perr := time.Parse(time.RFC3339, a.PublishedAt); perr == nil {
			published = parsed
		}
		articles = append(articles, Article{
			Title:       a.Title,
			Summary:     truncate(a.Description, 280),
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: published,
		})
	}
	return articles, nil
}

// buildQuery ORs symbols into one query string, mapping crypto tickers to
// their common names so the search actually matches coverage.
func buildQuery(symbols []string) string {
	names := map[string]string{
		"BTCUSD": "bitcoin",
		"ETHUSD": "ethereum",
	}
	terms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if name, ok := names[s]; ok {
			terms = append(terms, name)
			continue
		}
		terms = append(terms, s)
	}
	if len(terms) == 0 {
		return "stock market"
	}
	return strings.Join(terms, " OR ")
}

// truncate cuts s to at most max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
