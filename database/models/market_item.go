package models

import "time"

// 市集商品状态
const (
	MarketItemStatusActive = "active"
	MarketItemStatusSold   = "sold"
	MarketItemStatusHidden = "hidden"
)

// MarketItem 二手市集商品
type MarketItem struct {
	ID       uint `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID uint `gorm:"not null;index" json:"seller_id"`
	Seller   User `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:64;index" json:"category"`
	PriceCents  int64  `gorm:"not null" json:"price_cents"`
	Images      string `gorm:"type:text" json:"-"` // 图片批次 JSON

	Status         string `gorm:"size:16;default:active;index" json:"status"`
	ViewsCount     int    `gorm:"default:0" json:"views_count"`
	FavoritesCount int    `gorm:"default:0" json:"favorites_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketFavorite 商品收藏，(item_id, user_id) 唯一
type MarketFavorite struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_market_favorite"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_market_favorite"`
	CreatedAt time.Time `gorm:"index"`
}
