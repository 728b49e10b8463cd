package market

import (
	"context"
	"errors"

	"github.com/uninet-app/uninet/database/models"
	marketrepo "github.com/uninet-app/uninet/database/repo/market"
	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/internal/media"
	"gorm.io/gorm"
)

// Service 市集服务
type Service struct {
	repo      *marketrepo.Repository
	uploads   *media.UploadService
	store     *media.Store
	maxImages int
}

// NewService 创建市集服务
func NewService(repo *marketrepo.Repository, uploads *media.UploadService, store *media.Store, maxImages int) *Service {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &Service{repo: repo, uploads: uploads, store: store, maxImages: maxImages}
}

// CreateInput 上架商品的输入
type CreateInput struct {
	SellerID     uint
	Title        string
	Description  string
	Category     string
	PriceCents   int64
	ImagesBase64 []string
}

// View 对外展示的商品
type View struct {
	*models.MarketItem
	Images []media.ImageMeta `json:"images"`
}

// Create 上架商品，图片批次全部成功或全部回滚
func (s *Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.Title == "" {
		return nil, apperr.NewValidation("item title must not be empty")
	}
	if input.PriceCents < 0 {
		return nil, apperr.NewValidation("price must not be negative")
	}

	metas, err := s.uploads.IngestBase64(ctx, input.ImagesBase64, s.maxImages)
	if err != nil {
		return nil, err
	}

	encoded, err := media.EncodeBatch(metas)
	if err != nil {
		s.store.DeleteBatch(ctx, media.References(metas))
		return nil, err
	}

	item := &models.MarketItem{
		SellerID:    input.SellerID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		PriceCents:  input.PriceCents,
		Images:      encoded,
		Status:      models.MarketItemStatusActive,
	}

	if err := s.repo.Create(item); err != nil {
		s.store.DeleteBatch(ctx, media.References(metas))
		return nil, err
	}

	return s.render(item), nil
}

// render 渲染商品视图
func (s *Service) render(item *models.MarketItem) *View {
	metas, err := media.DecodeBatch(item.Images)
	if err != nil {
		metas = nil
	}
	return &View{MarketItem: item, Images: s.store.ResolveURLs(metas)}
}

// Get 获取商品并累加浏览数
func (s *Service) Get(ctx context.Context, id uint) (*View, error) {
	item, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if err := s.repo.AddViews(id, 1); err == nil {
		item.ViewsCount++
	}
	return s.render(item), nil
}

// List 在售商品列表
func (s *Service) List(ctx context.Context, filter marketrepo.ListFilter) ([]*View, error) {
	items, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(items))
	for i := range items {
		views = append(views, s.render(&items[i]))
	}
	return views, nil
}

// SetStatus 卖家更新商品状态（在售/已售/隐藏）
func (s *Service) SetStatus(ctx context.Context, id, sellerID uint, status string) error {
	if status != models.MarketItemStatusActive &&
		status != models.MarketItemStatusSold &&
		status != models.MarketItemStatusHidden {
		return apperr.NewValidation("unknown item status: %s", status)
	}

	item, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	if item.SellerID != sellerID {
		return apperr.ErrForbidden
	}

	return s.repo.UpdateFields(id, map[string]interface{}{"status": status})
}

// ToggleFavorite 商品收藏开关，返回收藏状态和最新收藏数
func (s *Service) ToggleFavorite(ctx context.Context, itemID, userID uint) (favorited bool, count int, err error) {
	if _, err := s.repo.GetByID(itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, apperr.ErrNotFound
		}
		return false, 0, err
	}

	_, err = s.repo.GetFavorite(itemID, userID)
	switch {
	case err == nil:
		if err := s.repo.DeleteFavorite(itemID, userID); err != nil {
			return false, 0, err
		}
		count, err = s.repo.AddFavorites(itemID, -1)
		return false, count, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := s.repo.CreateFavorite(&models.MarketFavorite{ItemID: itemID, UserID: userID})
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			item, gerr := s.repo.GetByID(itemID)
			if gerr != nil {
				return true, 0, gerr
			}
			return true, item.FavoritesCount, nil
		}
		if createErr != nil {
			return false, 0, createErr
		}
		count, err = s.repo.AddFavorites(itemID, 1)
		return true, count, err
	default:
		return false, 0, err
	}
}

// Favorites 用户收藏的商品列表
func (s *Service) Favorites(ctx context.Context, userID uint, limit, offset int) ([]*View, error) {
	items, err := s.repo.ListFavorites(userID, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(items))
	for i := range items {
		views = append(views, s.render(&items[i]))
	}
	return views, nil
}

// Delete 卖家下架并删除商品，随商品删除图片批次
func (s *Service) Delete(ctx context.Context, id, sellerID uint) error {
	item, err := s.repo.DeleteByIDAndSeller(id, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	if metas, derr := media.DecodeBatch(item.Images); derr == nil && len(metas) > 0 {
		s.store.DeleteBatch(ctx, media.References(metas))
	}
	return nil
}
