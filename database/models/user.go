package models

import "time"

// User 用户（通过 Telegram 登录建立）
type User struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   string `gorm:"size:255" json:"username"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Age        int    `json:"age,omitempty"`
	Bio        string `gorm:"type:text" json:"bio,omitempty"`
	Avatar     string `gorm:"size:500" json:"avatar,omitempty"`

	// 学籍信息
	University string `gorm:"size:255;not null" json:"university"`
	Institute  string `gorm:"size:255;not null" json:"institute"`
	Course     int    `json:"course,omitempty"`
	StudyGroup string `gorm:"size:100;column:study_group" json:"group,omitempty"`

	// Dating 设置
	ShowInDating   bool   `gorm:"default:true" json:"show_in_dating"`
	HideCourseInfo bool   `gorm:"default:false" json:"hide_course_group"`
	Interests      string `gorm:"type:text" json:"-"` // JSON 数组字符串

	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// PublicProfile 对外展示的公开信息（用于匹配结果、点赞列表）
type PublicProfile struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	Age        int    `json:"age,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	University string `json:"university"`
	Institute  string `json:"institute"`
}

// Public 提取用户公开信息
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Age:        u.Age,
		Avatar:     u.Avatar,
		University: u.University,
		Institute:  u.Institute,
	}
}
