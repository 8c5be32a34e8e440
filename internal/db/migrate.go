package db

import (
	"github.com/vikram-agentic/tradex/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Agent{},
		&models.Trade{},
		&models.AgentAction{},
		&models.Position{},
		&models.Notification{},
		&models.NewsArticle{},
	)
}
