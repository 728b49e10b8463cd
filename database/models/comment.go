package models

import "time"

// AnonymousAuthorIndex 匿名帖作者本人的保留匿名序号
const AnonymousAuthorIndex = 0

// Comment 评论
// 匿名评论通过 AnonymousIndex 获得帖内稳定的化名序号：
// 0 保留给匿名帖的作者本人，其余从 1 开始按首次出现顺序分配
type Comment struct {
	ID       uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID   uint  `gorm:"not null;index" json:"post_id"`
	Post     Post  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint  `gorm:"not null" json:"author_id"`
	Author   User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	ParentID *uint `json:"parent_id,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`

	IsAnonymous    bool `gorm:"default:false" json:"is_anonymous"`
	AnonymousIndex *int `json:"anonymous_index,omitempty"`

	IsDeleted bool `gorm:"default:false" json:"is_deleted"`
	IsEdited  bool `gorm:"default:false" json:"is_edited"`

	LikesCount int `gorm:"default:0" json:"likes_count"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CommentLike 评论点赞，(comment_id, user_id) 唯一
type CommentLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_like"`
	CreatedAt time.Time `gorm:"index"`
}
