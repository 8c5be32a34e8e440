package news

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/repository"
)

// Service layers the NewsAPI client over the article store. Fetched headlines
// are persisted for the read API; when the provider is unavailable or not
// configured the most recent stored articles serve as fallback context.
type Service struct {
	Client *NewsAPIClient
	Store  Store
	Logger *zap.Logger
}

// Store is the slice of the repository the news service needs.
type Store interface {
	UpsertNewsArticles(ctx context.Context, items []models.NewsArticle) error
	ListNewsArticles(ctx context.Context, params repository.ListNewsParams) ([]models.NewsArticle, error)
}

func NewService(client *NewsAPIClient, store Store, logger *zap.Logger) *Service {
	return &Service{Client: client, Store: store, Logger: logger}
}

func (s *Service) GetNews(ctx context.Context, symbols []string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.Client.Configured() {
		articles, err := s.Client.GetNews(ctx, symbols, limit)
		if err == nil {
			s.persist(ctx, articles, symbols)
			return articles, nil
		}
		if s.Logger != nil {
			s.Logger.Debug("news fetch failed, using stored articles", zap.Error(err))
		}
	}
	return s.stored(ctx, limit)
}

// Refresh pulls the latest headlines for the given symbols into the store.
// Run from cron so the read API stays fresh even when no agent is cycling.
func (s *Service) Refresh(ctx context.Context, symbols []string) error {
	if !s.Client.Configured() {
		return nil
	}
	articles, err := s.Client.GetNews(ctx, symbols, 0)
	if err != nil {
		return err
	}
	s.persist(ctx, articles, symbols)
	if s.Logger != nil {
		s.Logger.Info("news refreshed", zap.Int("articles", len(articles)))
	}
	return nil
}

func (s *Service) persist(ctx context.Context, articles []Article, symbols []string) {
	if s.Store == nil || len(articles) == 0 {
		return
	}
	tagged, err := json.Marshal(symbols)
	if err != nil {
		tagged = []byte("[]")
	}
	rows := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, models.NewsArticle{
			Title:       a.Title,
			Summary:     a.Summary,
			URL:         a.URL,
			Source:      a.Source,
			Symbols:     datatypes.JSON(tagged),
			PublishedAt: a.PublishedAt,
		})
	}
	if err := s.Store.UpsertNewsArticles(ctx, rows); err != nil && s.Logger != nil {
		s.Logger.Warn("persist news failed", zap.Error(err))
	}
}

func (s *Service) stored(ctx context.Context, limit int) ([]Article, error) {
	if s.Store == nil {
		return nil, nil
	}
	since := time.Now().Add(-48 * time.Hour)
	rows, err := s.Store.ListNewsArticles(ctx, repository.ListNewsParams{
		Limit: limit,
		Since: &since,
	})
	if err != nil {
		return nil, err
	}
	articles := make([]Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, Article{
			Title:       r.Title,
			Summary:     r.Summary,
			URL:         r.URL,
			Source:      r.Source,
			PublishedAt: r.PublishedAt,
		})
	}
	return articles, nil
}
