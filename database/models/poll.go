package models

import "time"

// 投票类型
const (
	PollTypeRegular = "regular"
	PollTypeQuiz    = "quiz"
)

// Poll 帖子附带的投票，每帖最多一个
type Poll struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID uint `gorm:"not null;uniqueIndex" json:"post_id"`
	Post   Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	Question string `gorm:"size:300;not null" json:"question"`
	Options  string `gorm:"type:text;not null" json:"-"` // 选项 JSON 数组，含各自票数
	Type     string `gorm:"size:16;default:regular" json:"type"`

	// quiz 类型的正确选项下标
	CorrectOption *int       `json:"correct_option,omitempty"`
	AllowMultiple bool       `gorm:"default:false" json:"allow_multiple"`
	IsAnonymous   bool       `gorm:"default:true" json:"is_anonymous"`
	ClosesAt      *time.Time `json:"closes_at,omitempty"`
	TotalVotes    int        `gorm:"default:0" json:"total_votes"`

	CreatedAt time.Time `json:"created_at"`
}

// PollVote 投票记录，(poll_id, user_id) 唯一
type PollVote struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	PollID        uint      `gorm:"not null;uniqueIndex:idx_poll_vote"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_poll_vote"`
	OptionIndices string    `gorm:"type:text;not null"` // 所选下标 JSON 数组
	CreatedAt     time.Time `gorm:"index"`
}
