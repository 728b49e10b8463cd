package dating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uninet-app/uninet/cache"
	"github.com/uninet-app/uninet/database/models"
	datingrepo "github.com/uninet-app/uninet/database/repo/dating"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/internal/media"
	"gorm.io/gorm"
)

// statsCacheTTL 统计缓存时长，点赞后主动失效
const statsCacheTTL = 30 * time.Second

// Service 交友匹配引擎
type Service struct {
	repo  *datingrepo.Repository
	users *usersrepo.Repository
	store *media.Store
	cache cache.Cache
}

// NewService 创建交友服务
func NewService(repo *datingrepo.Repository, users *usersrepo.Repository, store *media.Store, c cache.Cache) *Service {
	return &Service{repo: repo, users: users, store: store, cache: c}
}

// LikeResult 点赞结果
// 重复点赞和并发匹配都不是错误，结果里如实标注
type LikeResult struct {
	AlreadyLiked bool                  `json:"already_liked"`
	IsMatch      bool                  `json:"is_match"`
	MatchID      uint                  `json:"match_id,omitempty"`
	MatchedUser  *models.PublicProfile `json:"matched_user,omitempty"`
}

// Stats 交友统计
type Stats struct {
	PendingLikes int64 `json:"pending_likes"`
	Matches      int64 `json:"matches"`
}

// Like 记录 liker 对 liked 的喜欢，互相喜欢时创建匹配
// 幂等：重复点赞返回 already_liked；并发双方各自点赞时两边都观察到 is_match
func (s *Service) Like(ctx context.Context, likerID, likedID uint) (*LikeResult, error) {
	if likerID == likedID {
		return nil, fmt.Errorf("%w: cannot like yourself", apperr.ErrInvalidOperation)
	}

	existing, err := s.repo.GetLike(likerID, likedID)
	switch {
	case err == nil && existing.IsLike:
		return &LikeResult{AlreadyLiked: true}, nil
	case err == nil:
		// 之前跳过了这个人，现在改成喜欢
		if err := s.repo.SetIsLike(existing.ID, true); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := s.repo.CreateLike(&models.DatingLike{LikerID: likerID, LikedID: likedID, IsLike: true})
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			// 同方向的并发重复提交
			return &LikeResult{AlreadyLiked: true}, nil
		}
		if createErr != nil {
			return nil, createErr
		}
	default:
		return nil, err
	}

	s.invalidateStats(likedID)

	reciprocal, err := s.repo.HasReciprocalLike(likerID, likedID)
	if err != nil {
		return nil, err
	}
	if !reciprocal {
		return &LikeResult{}, nil
	}

	match, err := s.ensureMatch(likerID, likedID)
	if err != nil {
		return nil, err
	}

	s.invalidateStats(likerID)

	result := &LikeResult{IsMatch: true, MatchID: match.ID}
	if other, err := s.users.GetByID(likedID); err == nil {
		pub := other.Public()
		result.MatchedUser = &pub
	}
	return result, nil
}

// ensureMatch 为无序对创建匹配记录，已存在视为成功
// 两个方向的并发请求都必须拿到同一条记录，唯一约束冲突说明对方刚创建完
func (s *Service) ensureMatch(a, b uint) (*models.Match, error) {
	low, high := a, b
	if low > high {
		low, high = high, low
	}

	match, err := s.repo.GetMatch(low, high)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Match{UserLowID: low, UserHighID: high, MatchedAt: time.Now()}
	createErr := s.repo.CreateMatch(fresh)
	if createErr == nil {
		return fresh, nil
	}
	if errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return s.repo.GetMatch(low, high)
	}
	return nil, createErr
}

// Dislike 记录跳过，已有的喜欢翻转为跳过（保留历史），重复跳过幂等
func (s *Service) Dislike(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot dislike yourself", apperr.ErrInvalidOperation)
	}

	existing, err := s.repo.GetLike(userID, targetID)
	switch {
	case err == nil && !existing.IsLike:
		return s.repo.TouchLike(existing.ID)
	case err == nil:
		if err := s.repo.SetIsLike(existing.ID, false); err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := s.repo.CreateLike(&models.DatingLike{LikerID: userID, LikedID: targetID, IsLike: false})
		if createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return createErr
		}
	default:
		return err
	}

	s.invalidateStats(targetID)
	return nil
}

// WhoLiked 查询喜欢了 userID 且 userID 尚未表态的用户
// 已匹配的用户从匹配列表呈现，不在这里重复出现
func (s *Service) WhoLiked(ctx context.Context, userID uint, limit, offset int) ([]models.PublicProfile, error) {
	users, err := s.repo.WhoLiked(userID, limit, offset)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}

// GetStats 统计待处理喜欢数和匹配数
func (s *Service) GetStats(ctx context.Context, userID uint) (*Stats, error) {
	key := cache.DatingStats.BuildID(userID)
	if s.cache != nil {
		var cached Stats
		if err := s.cache.Get(key, &cached); err == nil {
			return &cached, nil
		}
	}

	pending, err := s.repo.CountPendingLikes(userID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.CountMatches(userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{PendingLikes: pending, Matches: matches}
	if s.cache != nil {
		_ = s.cache.Set(key, stats, statsCacheTTL)
	}
	return stats, nil
}

// invalidateStats 点赞或匹配后失效统计缓存
func (s *Service) invalidateStats(userID uint) {
	if s.cache != nil {
		_ = s.cache.Delete(cache.DatingStats.BuildID(userID))
	}
}

// MatchView 匹配记录和对方的公开信息
type MatchView struct {
	ID        uint                 `json:"id"`
	MatchedAt time.Time            `json:"matched_at"`
	User      models.PublicProfile `json:"user"`
}

// Matches 列出用户的全部匹配
func (s *Service) Matches(ctx context.Context, userID uint, limit, offset int) ([]MatchView, error) {
	matches, err := s.repo.ListMatches(userID, limit, offset)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]uint, 0, len(matches))
	for _, m := range matches {
		if m.UserLowID == userID {
			otherIDs = append(otherIDs, m.UserHighID)
		} else {
			otherIDs = append(otherIDs, m.UserLowID)
		}
	}

	profiles, err := s.users.GetPublicByIDs(otherIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.PublicProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	views := make([]MatchView, 0, len(matches))
	for i, m := range matches {
		views = append(views, MatchView{ID: m.ID, MatchedAt: m.MatchedAt, User: byID[otherIDs[i]]})
	}
	return views, nil
}

// ProfileCard 信息流中的一张资料卡
type ProfileCard struct {
	UserID uint                 `json:"user_id"`
	User   models.PublicProfile `json:"user"`
	Bio    string               `json:"bio,omitempty"`
	Gender string               `json:"gender,omitempty"`
	Photos []media.ImageMeta    `json:"photos"`
}

// Feed 交友信息流：活跃资料卡，排除自己和已表态的用户
func (s *Service) Feed(ctx context.Context, userID uint, limit, offset int) ([]ProfileCard, error) {
	lookingFor := ""
	if own, err := s.repo.GetProfileByUser(userID); err == nil {
		lookingFor = own.LookingFor
	}

	profiles, err := s.repo.Feed(userID, lookingFor, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	pubs, err := s.users.GetPublicByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.PublicProfile, len(pubs))
	for _, p := range pubs {
		byID[p.ID] = p
	}

	cards := make([]ProfileCard, 0, len(profiles))
	for _, p := range profiles {
		photos, err := media.DecodeBatch(p.Photos)
		if err != nil {
			photos = nil
		}
		card := ProfileCard{
			UserID: p.UserID,
			User:   byID[p.UserID],
			Bio:    p.Bio,
			Gender: p.Gender,
			Photos: s.store.ResolveURLs(photos),
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// UpdateProfile 创建或更新资料卡，photos 为已摄取完成的图片批次
func (s *Service) UpdateProfile(ctx context.Context, userID uint, bio, gender, lookingFor string, isActive bool, photos []media.ImageMeta) (*models.DatingProfile, error) {
	profile, err := s.repo.GetProfileByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = &models.DatingProfile{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	// 换图即删旧存新，不原地更新
	if photos != nil {
		if old, derr := media.DecodeBatch(profile.Photos); derr == nil && len(old) > 0 {
			s.store.DeleteBatch(ctx, media.References(old))
		}
		encoded, eerr := media.EncodeBatch(photos)
		if eerr != nil {
			return nil, eerr
		}
		profile.Photos = encoded
	}

	profile.Bio = bio
	profile.Gender = gender
	profile.LookingFor = lookingFor
	profile.IsActive = isActive

	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
