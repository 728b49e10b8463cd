package requests

import (
	"context"
	"errors"
	"time"

	"github.com/uninet-app/uninet/database/models"
	requestsrepo "github.com/uninet-app/uninet/database/repo/requests"
	"github.com/uninet-app/uninet/internal/apperr"
	"gorm.io/gorm"
)

const (
	defaultTTL   = 24 * time.Hour
	maxTTL       = 7 * 24 * time.Hour
	maxResponses = 5
)

var validCategories = map[string]bool{
	models.RequestCategoryStudy:   true,
	models.RequestCategoryHelp:    true,
	models.RequestCategoryHangout: true,
}

// Service 限时求助服务
type Service struct {
	repo *requestsrepo.Repository
}

// NewService 创建求助服务
func NewService(repo *requestsrepo.Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput 发布求助的输入
type CreateInput struct {
	AuthorID uint
	Category string
	Title    string
	Body     string
	TTL      time.Duration
}

// Create 发布限时求助
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Request, error) {
	if !validCategories[input.Category] {
		return nil, apperr.NewValidation("unknown request category: %s", input.Category)
	}
	if input.Title == "" || input.Body == "" {
		return nil, apperr.NewValidation("request title and body must not be empty")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if ttl > maxTTL {
		ttl = maxTTL
	}

	request := &models.Request{
		AuthorID:     input.AuthorID,
		Category:     input.Category,
		Title:        input.Title,
		Body:         input.Body,
		ExpiresAt:    time.Now().Add(ttl),
		MaxResponses: maxResponses,
		Status:       models.RequestStatusActive,
	}

	if err := s.repo.Create(request); err != nil {
		return nil, err
	}
	return request, nil
}

// ListActive 列出活跃的求助
func (s *Service) ListActive(ctx context.Context, category string, limit, offset int) ([]models.Request, error) {
	return s.repo.ListActive(category, limit, offset)
}

// Respond 响应求助
// 作者不能响应自己的求助；重复响应幂等；响应满额后自动关闭
func (s *Service) Respond(ctx context.Context, requestID, userID uint, message, contact string) (*models.RequestResponse, error) {
	request, err := s.repo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if request.AuthorID == userID {
		return nil, apperr.ErrInvalidOperation
	}
	if request.Status != models.RequestStatusActive || time.Now().After(request.ExpiresAt) {
		return nil, apperr.ErrInvalidOperation
	}

	existing, err := s.repo.GetResponse(requestID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	response := &models.RequestResponse{
		RequestID:       requestID,
		UserID:          userID,
		Message:         message,
		TelegramContact: contact,
	}
	createErr := s.repo.CreateResponse(response)
	if errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return s.repo.GetResponse(requestID, userID)
	}
	if createErr != nil {
		return nil, createErr
	}

	count, err := s.repo.AddResponses(requestID, 1)
	if err != nil {
		return nil, err
	}
	if count >= request.MaxResponses {
		if err := s.repo.UpdateFields(requestID, map[string]interface{}{
			"status": models.RequestStatusClosed,
		}); err != nil {
			return nil, err
		}
	}

	return response, nil
}

// Responses 作者查看自己求助的全部响应
func (s *Service) Responses(ctx context.Context, requestID, userID uint) ([]models.RequestResponse, error) {
	request, err := s.repo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if request.AuthorID != userID {
		return nil, apperr.ErrForbidden
	}
	return s.repo.ListResponses(requestID)
}

// Close 作者提前关闭求助
func (s *Service) Close(ctx context.Context, requestID, userID uint) error {
	request, err := s.repo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	if request.AuthorID != userID {
		return apperr.ErrForbidden
	}
	return s.repo.UpdateFields(requestID, map[string]interface{}{
		"status": models.RequestStatusClosed,
	})
}

// Delete 作者删除自己的求助
func (s *Service) Delete(ctx context.Context, requestID, userID uint) error {
	err := s.repo.DeleteByIDAndAuthor(requestID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// SweepExpired 把已过期的活跃求助置为过期状态，返回处理数量
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.MarkExpired()
}
