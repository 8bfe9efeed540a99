package database

import (
	"fmt"
	"log"

	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/config"
	"github.com/ordekalo/hebrew-learning-tool-sub000/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Deck{},
		&model.Word{},
		&model.WordProgress{},
		&model.DailyStat{},
		&model.Achievement{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认词库（为空时插入一组入门词，正式词表由外部录入模块维护）
	var deckCount int64
	db.Model(&model.Deck{}).Count(&deckCount)
	if deckCount == 0 {
		starter := &model.Deck{
			Name:        "מילים ראשונות",
			Description: "入门词汇",
			Order:       1,
		}
		db.Create(starter)

		defaultWords := []model.Word{
			{DeckID: starter.ID, Hebrew: "שלום", Transliteration: "shalom", Translation: "hello; peace"},
			{DeckID: starter.ID, Hebrew: "תודה", Transliteration: "toda", Translation: "thank you"},
			{DeckID: starter.ID, Hebrew: "בבקשה", Transliteration: "bevakasha", Translation: "please; you're welcome"},
			{DeckID: starter.ID, Hebrew: "מים", Transliteration: "mayim", Translation: "water"},
			{DeckID: starter.ID, Hebrew: "לחם", Transliteration: "lechem", Translation: "bread"},
			{DeckID: starter.ID, Hebrew: "ספר", Transliteration: "sefer", Translation: "book"},
		}
		for _, w := range defaultWords {
			db.Create(&w)
		}
	}

	return db, nil
}
