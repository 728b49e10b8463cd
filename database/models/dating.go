package models

import "time"

// DatingLike 有向的喜欢/跳过记录
// (liker_id, liked_id) 唯一；dislike 不删除历史而是把 IsLike 翻转为 false
type DatingLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	LikerID   uint      `gorm:"not null;uniqueIndex:idx_dating_like_pair;check:liker_id <> liked_id"`
	LikedID   uint      `gorm:"not null;uniqueIndex:idx_dating_like_pair"`
	IsLike    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Match 互相喜欢产生的匹配记录
// 规范化存储：UserLowID = min(a,b)，UserHighID = max(a,b)，无序对唯一
type Match struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserLowID  uint      `gorm:"not null;uniqueIndex:idx_match_pair;check:user_low_id < user_high_id" json:"user_low_id"`
	UserHighID uint      `gorm:"not null;uniqueIndex:idx_match_pair" json:"user_high_id"`
	MatchedAt  time.Time `gorm:"index" json:"matched_at"`
}

// DatingProfile 交友资料卡
type DatingProfile struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Bio        string `gorm:"type:text" json:"bio,omitempty"`
	Photos     string `gorm:"type:text" json:"-"` // 图片批次 JSON
	Goals      string `gorm:"type:text" json:"-"` // JSON 数组字符串
	Gender     string `gorm:"size:16" json:"gender,omitempty"`
	LookingFor string `gorm:"size:16" json:"looking_for,omitempty"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}
