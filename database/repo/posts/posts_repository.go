package posts

import (
	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
)

// Repository 帖子仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建帖子仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 暴露底层连接，投票写入需要在事务里进行
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create 创建帖子
func (r *Repository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetByID 通过 ID 获取帖子
func (r *Repository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.First(&post, id).Error
	return &post, err
}

// ListFilter 帖子列表过滤条件
type ListFilter struct {
	Category string
	AuthorID uint
	Limit    int
	Offset   int
}

// List 按过滤条件查询帖子，置顶新闻优先，其余按时间倒序
func (r *Repository) List(filter ListFilter) ([]models.Post, error) {
	db := r.db.Model(&models.Post{})
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.AuthorID != 0 {
		db = db.Where("author_id = ?", filter.AuthorID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var posts []models.Post
	err := db.Order("is_important desc, created_at desc").
		Offset(filter.Offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// DeleteByIDAndAuthor 删除作者本人的帖子，返回被删除的记录
func (r *Repository) DeleteByIDAndAuthor(id, authorID uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("id = ? AND author_id = ?", id, authorID).First(&post).Error; err != nil {
		return nil, err
	}
	if err := r.db.Delete(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdateFields 更新帖子字段
func (r *Repository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error
}

// AddViews 浏览数自增
func (r *Repository) AddViews(id uint, delta int) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", delta)).Error
}

// AddLikes 点赞数增减，返回新值
func (r *Repository) AddLikes(id uint, delta int) (int, error) {
	if err := r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error; err != nil {
		return 0, err
	}
	var post models.Post
	if err := r.db.Select("likes_count").First(&post, id).Error; err != nil {
		return 0, err
	}
	return post.LikesCount, nil
}

// AddComments 评论数增减
func (r *Repository) AddComments(id uint, delta int) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", delta)).Error
}

// GetLike 查询用户是否点赞过帖子
func (r *Repository) GetLike(postID, userID uint) (*models.PostLike, error) {
	var like models.PostLike
	err := r.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
	return &like, err
}

// CreateLike 创建帖子点赞记录
func (r *Repository) CreateLike(like *models.PostLike) error {
	return r.db.Create(like).Error
}

// DeleteLike 删除帖子点赞记录
func (r *Repository) DeleteLike(postID, userID uint) error {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{}).Error
}

// CreatePoll 创建帖子投票
func (r *Repository) CreatePoll(poll *models.Poll) error {
	return r.db.Create(poll).Error
}

// GetPollByID 通过 ID 获取投票
func (r *Repository) GetPollByID(id uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.First(&poll, id).Error
	return &poll, err
}

// GetPollByPostID 获取帖子附带的投票
func (r *Repository) GetPollByPostID(postID uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.Where("post_id = ?", postID).First(&poll).Error
	return &poll, err
}

// GetPollVote 查询用户在投票中的选择
func (r *Repository) GetPollVote(pollID, userID uint) (*models.PollVote, error) {
	var vote models.PollVote
	err := r.db.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&vote).Error
	return &vote, err
}

// AllImageBatches 列出全部帖子的图片批次 JSON（清理任务用）
func (r *Repository) AllImageBatches() ([]string, error) {
	var batches []string
	err := r.db.Model(&models.Post{}).Where("images IS NOT NULL AND images <> ''").
		Pluck("images", &batches).Error
	return batches, err
}
