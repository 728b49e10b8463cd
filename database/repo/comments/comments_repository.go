package comments

import (
	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
)

// Repository 评论仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建评论仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 返回底层连接（用于跨仓库事务）
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create 创建评论
func (r *Repository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// CreateWithTx 在指定事务中创建评论
func (r *Repository) CreateWithTx(tx *gorm.DB, comment *models.Comment) error {
	return tx.Create(comment).Error
}

// GetByID 通过 ID 获取评论
func (r *Repository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.First(&comment, id).Error
	return &comment, err
}

// ListByPost 按时间顺序列出帖子的全部评论
func (r *Repository) ListByPost(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("post_id = ?", postID).Order("created_at").Find(&comments).Error
	return comments, err
}

// ListAnonymousByPost 列出帖子的全部匿名评论（化名序号分配的扫描来源）
func (r *Repository) ListAnonymousByPost(tx *gorm.DB, postID uint) ([]models.Comment, error) {
	if tx == nil {
		tx = r.db
	}
	var comments []models.Comment
	err := tx.Where("post_id = ? AND is_anonymous = ?", postID, true).
		Order("created_at").Find(&comments).Error
	return comments, err
}

// MarkDeleted 软删除评论
func (r *Repository) MarkDeleted(id, authorID uint) error {
	result := r.db.Model(&models.Comment{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Update("is_deleted", true)
	if result.RowsAffected == 0 && result.Error == nil {
		return gorm.ErrRecordNotFound
	}
	return result.Error
}

// AddLikes 评论点赞数增减
func (r *Repository) AddLikes(id uint, delta int) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
}

// GetLike 查询用户是否点赞过评论
func (r *Repository) GetLike(commentID, userID uint) (*models.CommentLike, error) {
	var like models.CommentLike
	err := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&like).Error
	return &like, err
}

// CreateLike 创建评论点赞记录
func (r *Repository) CreateLike(like *models.CommentLike) error {
	return r.db.Create(like).Error
}

// DeleteLike 删除评论点赞记录
func (r *Repository) DeleteLike(commentID, userID uint) error {
	return r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentLike{}).Error
}
