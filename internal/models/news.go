package models

import (
	"time"

	"gorm.io/datatypes"
)

// NewsArticle is a fetched headline persisted for reuse. URL is the natural
// key; refresh upserts ignore duplicates.
type NewsArticle struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Title   string `gorm:"type:text;not null"`
	Summary string `gorm:"type:text"`
	URL     string `gorm:"type:varchar(500);not null;uniqueIndex"`
	Source  string `gorm:"type:varchar(100)"`

	Symbols     datatypes.JSON `gorm:"type:jsonb"`
	PublishedAt time.Time      `gorm:"type:timestamptz;index"`
	CreatedAt   time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (NewsArticle) TableName() string {
	return "market_news"
}
