package requests

import (
	"time"

	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
)

// Repository 求助请求仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建求助请求仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建请求
func (r *Repository) Create(request *models.Request) error {
	return r.db.Create(request).Error
}

// GetByID 通过 ID 获取请求
func (r *Repository) GetByID(id uint) (*models.Request, error) {
	var request models.Request
	err := r.db.First(&request, id).Error
	return &request, err
}

// ListActive 列出未过期的活跃请求
func (r *Repository) ListActive(category string, limit, offset int) ([]models.Request, error) {
	if limit <= 0 {
		limit = 20
	}

	db := r.db.Model(&models.Request{}).
		Where("status = ?", models.RequestStatusActive).
		Where("expires_at > ?", time.Now())
	if category != "" {
		db = db.Where("category = ?", category)
	}

	var requests []models.Request
	err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&requests).Error
	return requests, err
}

// UpdateFields 更新请求字段
func (r *Repository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Request{}).Where("id = ?", id).Updates(fields).Error
}

// MarkExpired 把所有已过期但仍标记为活跃的请求置为过期
func (r *Repository) MarkExpired() (int64, error) {
	result := r.db.Model(&models.Request{}).
		Where("status = ? AND expires_at <= ?", models.RequestStatusActive, time.Now()).
		Update("status", models.RequestStatusExpired)
	return result.RowsAffected, result.Error
}

// GetResponse 查询用户对请求的响应
func (r *Repository) GetResponse(requestID, userID uint) (*models.RequestResponse, error) {
	var response models.RequestResponse
	err := r.db.Where("request_id = ? AND user_id = ?", requestID, userID).First(&response).Error
	return &response, err
}

// CreateResponse 创建响应
func (r *Repository) CreateResponse(response *models.RequestResponse) error {
	return r.db.Create(response).Error
}

// ListResponses 列出请求的全部响应
func (r *Repository) ListResponses(requestID uint) ([]models.RequestResponse, error) {
	var responses []models.RequestResponse
	err := r.db.Where("request_id = ?", requestID).Order("created_at").Find(&responses).Error
	return responses, err
}

// AddResponses 响应数增减，返回新值
func (r *Repository) AddResponses(id uint, delta int) (int, error) {
	if err := r.db.Model(&models.Request{}).Where("id = ?", id).
		UpdateColumn("responses_count", gorm.Expr("responses_count + ?", delta)).Error; err != nil {
		return 0, err
	}
	var request models.Request
	if err := r.db.Select("responses_count").First(&request, id).Error; err != nil {
		return 0, err
	}
	return request.ResponsesCount, nil
}

// DeleteByIDAndAuthor 删除作者本人的请求
func (r *Repository) DeleteByIDAndAuthor(id, authorID uint) error {
	result := r.db.Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Request{})
	if result.RowsAffected == 0 && result.Error == nil {
		return gorm.ErrRecordNotFound
	}
	return result.Error
}
