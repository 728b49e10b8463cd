package market

import (
	"github.com/uninet-app/uninet/database/models"
	"gorm.io/gorm"
)

// Repository 市集仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建市集仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建商品
func (r *Repository) Create(item *models.MarketItem) error {
	return r.db.Create(item).Error
}

// GetByID 通过 ID 获取商品
func (r *Repository) GetByID(id uint) (*models.MarketItem, error) {
	var item models.MarketItem
	err := r.db.First(&item, id).Error
	return &item, err
}

// ListFilter 商品列表过滤条件
type ListFilter struct {
	Category string
	SellerID uint
	MaxCents int64
	Limit    int
	Offset   int
}

// List 按过滤条件查询在售商品
func (r *Repository) List(filter ListFilter) ([]models.MarketItem, error) {
	db := r.db.Model(&models.MarketItem{}).Where("status = ?", models.MarketItemStatusActive)
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.SellerID != 0 {
		db = db.Where("seller_id = ?", filter.SellerID)
	}
	if filter.MaxCents > 0 {
		db = db.Where("price_cents <= ?", filter.MaxCents)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var items []models.MarketItem
	err := db.Order("created_at desc").Offset(filter.Offset).Limit(limit).Find(&items).Error
	return items, err
}

// UpdateFields 更新商品字段
func (r *Repository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.MarketItem{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteByIDAndSeller 删除卖家本人的商品，返回被删除的记录
func (r *Repository) DeleteByIDAndSeller(id, sellerID uint) (*models.MarketItem, error) {
	var item models.MarketItem
	if err := r.db.Where("id = ? AND seller_id = ?", id, sellerID).First(&item).Error; err != nil {
		return nil, err
	}
	if err := r.db.Delete(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AddViews 浏览数自增
func (r *Repository) AddViews(id uint, delta int) error {
	return r.db.Model(&models.MarketItem{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", delta)).Error
}

// GetFavorite 查询用户是否收藏过商品
func (r *Repository) GetFavorite(itemID, userID uint) (*models.MarketFavorite, error) {
	var favorite models.MarketFavorite
	err := r.db.Where("item_id = ? AND user_id = ?", itemID, userID).First(&favorite).Error
	return &favorite, err
}

// CreateFavorite 创建收藏记录
func (r *Repository) CreateFavorite(favorite *models.MarketFavorite) error {
	return r.db.Create(favorite).Error
}

// DeleteFavorite 删除收藏记录
func (r *Repository) DeleteFavorite(itemID, userID uint) error {
	return r.db.Where("item_id = ? AND user_id = ?", itemID, userID).
		Delete(&models.MarketFavorite{}).Error
}

// AddFavorites 收藏数增减，返回新值
func (r *Repository) AddFavorites(id uint, delta int) (int, error) {
	if err := r.db.Model(&models.MarketItem{}).Where("id = ?", id).
		UpdateColumn("favorites_count", gorm.Expr("favorites_count + ?", delta)).Error; err != nil {
		return 0, err
	}
	var item models.MarketItem
	if err := r.db.Select("favorites_count").First(&item, id).Error; err != nil {
		return 0, err
	}
	return item.FavoritesCount, nil
}

// ListFavorites 用户收藏的商品，按收藏时间倒序
func (r *Repository) ListFavorites(userID uint, limit, offset int) ([]models.MarketItem, error) {
	if limit <= 0 {
		limit = 20
	}
	var items []models.MarketItem
	err := r.db.Model(&models.MarketItem{}).
		Joins("JOIN market_favorites ON market_favorites.item_id = market_items.id").
		Where("market_favorites.user_id = ?", userID).
		Order("market_favorites.created_at desc").
		Offset(offset).Limit(limit).Find(&items).Error
	return items, err
}

// AllImageBatches 列出全部商品的图片批次 JSON（清理任务用）
func (r *Repository) AllImageBatches() ([]string, error) {
	var batches []string
	err := r.db.Model(&models.MarketItem{}).Where("images IS NOT NULL AND images <> ''").
		Pluck("images", &batches).Error
	return batches, err
}
