package models

import "time"

// 帖子分类
const (
	PostCategoryGeneral     = "general"
	PostCategoryConfessions = "confessions"
	PostCategoryLostFound   = "lost_found"
	PostCategoryNews        = "news"
	PostCategoryEvents      = "events"
)

// Post 帖子
type Post struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Category string `gorm:"size:32;not null;index" json:"category"`

	Title  string `gorm:"size:200" json:"title"`
	Body   string `gorm:"type:text;not null" json:"body"`
	Tags   string `gorm:"type:text" json:"-"` // JSON 数组字符串
	Images string `gorm:"type:text" json:"-"` // 图片批次 JSON（见 media.ImageMeta）

	// 匿名设置
	IsAnonymous             bool `gorm:"default:false" json:"is_anonymous"`
	EnableAnonymousComments bool `gorm:"default:false" json:"enable_anonymous_comments"`

	// lost_found 专用
	LostOrFound     string `gorm:"size:16" json:"lost_or_found,omitempty"`
	ItemDescription string `gorm:"size:500" json:"item_description,omitempty"`
	Location        string `gorm:"size:200" json:"location,omitempty"`

	// events 专用
	EventName     string     `gorm:"size:200" json:"event_name,omitempty"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `gorm:"size:200" json:"event_location,omitempty"`

	IsImportant bool       `gorm:"default:false" json:"is_important"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	LikesCount    int `gorm:"default:0" json:"likes_count"`
	CommentsCount int `gorm:"default:0" json:"comments_count"`
	ViewsCount    int `gorm:"default:0" json:"views_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostLike 帖子点赞，(post_id, user_id) 唯一
type PostLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like"`
	CreatedAt time.Time `gorm:"index"`
}
