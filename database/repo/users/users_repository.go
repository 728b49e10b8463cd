package users

import (
	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 用户仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建用户仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID 通过内部 ID 获取用户
func (r *Repository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	return &user, err
}

// GetByTelegramID 通过 Telegram ID 获取用户
func (r *Repository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error
	return &user, err
}

// Upsert 按 Telegram ID 创建或更新用户
func (r *Repository) Upsert(user *models.User) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "last_active_at"}),
	}).Create(user).Error
}

// Create 创建用户
func (r *Repository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpdateFields 更新用户资料字段
func (r *Repository) UpdateFields(id uint, fields map[string]interface{}) (*models.User, error) {
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// AllAvatarRefs 列出全部用户的头像标识符（清理任务用）
func (r *Repository) AllAvatarRefs() ([]string, error) {
	var refs []string
	err := r.db.Model(&models.User{}).Where("avatar IS NOT NULL AND avatar <> ''").
		Pluck("avatar", &refs).Error
	return refs, err
}

// GetPublicByIDs 批量获取公开信息（使用 IN 语句，避免 N+1 查询）
func (r *Repository) GetPublicByIDs(ids []uint) ([]models.PublicProfile, error) {
	if len(ids) == 0 {
		return []models.PublicProfile{}, nil
	}

	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}
