package news

import (
	"context"
	"time"
)

// Article is a headline handed to the decision engine. Summary is truncated
// provider text, not full article body.
type Article struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Gateway fetches recent market news for a set of symbols. Implementations
// must tolerate empty results; the orchestrator treats news as optional
// context, never a hard dependency.
type Gateway interface {
	GetNews(ctx context.Context, symbols []string, limit int) ([]Article, error)
}
