package model

// Deck 词库（学习范围选择器），0 表示全部词库
type Deck struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"default:0" json:"order"`
	Words       []Word `gorm:"foreignKey:DeckID" json:"-"`
}

func (Deck) TableName() string {
	return "decks"
}

// Word 希伯来语单词卡片，由外部录入模块维护，本核心只读
type Word struct {
	BaseModel
	DeckID          uint   `gorm:"index;type:bigint unsigned;not null" json:"deckId"`
	Hebrew          string `gorm:"size:100;not null" json:"hebrew"`
	Transliteration string `gorm:"size:100" json:"transliteration"`
	Translation     string `gorm:"size:255;not null" json:"translation"`
	Example         string `gorm:"type:text" json:"example,omitempty"`
}

func (Word) TableName() string {
	return "words"
}
