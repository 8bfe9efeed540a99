package model

// Achievement 成就记录对外接口返回，主键用 UUID 避免被枚举
type Achievement struct {
	UUIDBase
	UserID   uint   `gorm:"index:idx_user_code,unique;type:bigint unsigned;not null"`
	Code     string `gorm:"size:50;index:idx_user_code,unique;not null"`
	Name     string `gorm:"size:100;not null"`
	Icon     string `gorm:"size:255"`
	EarnedXP int    `gorm:"default:0"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// 里程碑代码
const (
	AchievementFiftyStreak = "fifty_streak"
)
