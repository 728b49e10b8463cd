package models

import "time"

// 求助请求分类与状态
const (
	RequestCategoryStudy   = "study"
	RequestCategoryHelp    = "help"
	RequestCategoryHangout = "hangout"

	RequestStatusActive  = "active"
	RequestStatusClosed  = "closed"
	RequestStatusExpired = "expired"
)

// Request 限时求助请求，超过 ExpiresAt 或响应满额后关闭
type Request struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Category string `gorm:"size:32;not null;index" json:"category"`

	Title string `gorm:"size:200;not null" json:"title"`
	Body  string `gorm:"type:text;not null" json:"body"`
	Tags  string `gorm:"type:text" json:"-"`

	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	MaxResponses int       `gorm:"default:5" json:"max_responses"`
	Status       string    `gorm:"size:16;default:active;index" json:"status"`

	ResponsesCount int `gorm:"default:0" json:"responses_count"`
	ViewsCount     int `gorm:"default:0" json:"views_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestResponse 求助响应，(request_id, user_id) 唯一
type RequestResponse struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID uint `gorm:"not null;uniqueIndex:idx_request_response" json:"request_id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_request_response" json:"user_id"`

	Message         string `gorm:"size:500" json:"message,omitempty"`
	TelegramContact string `gorm:"size:255" json:"telegram_contact,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
