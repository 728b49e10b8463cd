package dating

import (
	"time"

	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
)

// Repository 交友仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建交友仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetLike 查询有向记录 (liker -> liked)，无论喜欢还是跳过
func (r *Repository) GetLike(likerID, likedID uint) (*models.DatingLike, error) {
	var like models.DatingLike
	err := r.db.Where("liker_id = ? AND liked_id = ?", likerID, likedID).First(&like).Error
	return &like, err
}

// CreateLike 创建有向记录
func (r *Repository) CreateLike(like *models.DatingLike) error {
	return r.db.Create(like).Error
}

// SetIsLike 把既有记录翻转为喜欢/跳过（保留历史，不删除）
func (r *Repository) SetIsLike(id uint, isLike bool) error {
	return r.db.Model(&models.DatingLike{}).Where("id = ?", id).
		Update("is_like", isLike).Error
}

// HasReciprocalLike 查询反向的喜欢记录是否存在
func (r *Repository) HasReciprocalLike(likerID, likedID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.DatingLike{}).
		Where("liker_id = ? AND liked_id = ? AND is_like = ?", likedID, likerID, true).
		Count(&count).Error
	return count > 0, err
}

// GetMatch 查询规范化无序对的匹配记录
func (r *Repository) GetMatch(lowID, highID uint) (*models.Match, error) {
	var match models.Match
	err := r.db.Where("user_low_id = ? AND user_high_id = ?", lowID, highID).First(&match).Error
	return &match, err
}

// CreateMatch 创建匹配记录
// 唯一约束冲突由调用方按"已被并发请求创建"处理，不在这里吞掉
func (r *Repository) CreateMatch(match *models.Match) error {
	return r.db.Create(match).Error
}

// WhoLiked 查询喜欢 userID 且 userID 尚未表态的用户
// 已互相喜欢（即已匹配）的用户不出现在这里，他们已经以匹配形式呈现
func (r *Repository) WhoLiked(userID uint, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}

	myDecisions := r.db.Model(&models.DatingLike{}).
		Select("liked_id").Where("liker_id = ?", userID)

	var users []models.User
	err := r.db.Model(&models.User{}).
		Joins("JOIN dating_likes ON dating_likes.liker_id = users.id").
		Where("dating_likes.liked_id = ? AND dating_likes.is_like = ?", userID, true).
		Where("users.id NOT IN (?)", myDecisions).
		Order("dating_likes.created_at desc").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

// CountPendingLikes 统计待处理的喜欢数（排除已表态的）
func (r *Repository) CountPendingLikes(userID uint) (int64, error) {
	myDecisions := r.db.Model(&models.DatingLike{}).
		Select("liked_id").Where("liker_id = ?", userID)

	var count int64
	err := r.db.Model(&models.DatingLike{}).
		Where("liked_id = ? AND is_like = ?", userID, true).
		Where("liker_id NOT IN (?)", myDecisions).
		Count(&count).Error
	return count, err
}

// CountMatches 统计用户的匹配数
func (r *Repository) CountMatches(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Match{}).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// ListMatches 列出用户的全部匹配，按时间倒序
func (r *Repository) ListMatches(userID uint, limit, offset int) ([]models.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	var matches []models.Match
	err := r.db.Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("matched_at desc").
		Offset(offset).Limit(limit).
		Find(&matches).Error
	return matches, err
}

// GetProfileByUser 获取用户的资料卡
func (r *Repository) GetProfileByUser(userID uint) (*models.DatingProfile, error) {
	var profile models.DatingProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	return &profile, err
}

// SaveProfile 创建或更新资料卡
func (r *Repository) SaveProfile(profile *models.DatingProfile) error {
	return r.db.Save(profile).Error
}

// Feed 查询交友信息流：活跃资料卡，排除自己和已表态的用户
func (r *Repository) Feed(userID uint, lookingFor string, limit, offset int) ([]models.DatingProfile, error) {
	if limit <= 0 {
		limit = 10
	}

	decided := r.db.Model(&models.DatingLike{}).
		Select("liked_id").Where("liker_id = ?", userID)

	db := r.db.Model(&models.DatingProfile{}).
		Where("user_id <> ?", userID).
		Where("is_active = ?", true).
		Where("user_id NOT IN (?)", decided)

	if lookingFor != "" && lookingFor != "all" {
		db = db.Where("gender = ?", lookingFor)
	}

	var profiles []models.DatingProfile
	err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&profiles).Error
	return profiles, err
}

// TouchLike 更新既有记录的时间戳（重复 dislike 的幂等路径）
func (r *Repository) TouchLike(id uint) error {
	return r.db.Model(&models.DatingLike{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

// AllProfilePhotoBatches 列出全部资料卡的图片批次 JSON（清理任务用）
func (r *Repository) AllProfilePhotoBatches() ([]string, error) {
	var batches []string
	err := r.db.Model(&models.DatingProfile{}).Where("photos IS NOT NULL AND photos <> ''").
		Pluck("photos", &batches).Error
	return batches, err
}
