package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/uninet-app/uninet/database/models"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
)

// Identity 登录载荷解析出的外部身份
type Identity struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
}

// LoginService 把 Telegram 身份映射到内部用户并签发会话令牌
type LoginService struct {
	users   *usersrepo.Repository
	jwt     *JWTService
	devMode bool
}

// NewLoginService 创建登录服务
func NewLoginService(users *usersrepo.Repository, jwt *JWTService, devMode bool) *LoginService {
	return &LoginService{users: users, jwt: jwt, devMode: devMode}
}

// ResolveIdentity 解析 Telegram 初始化载荷
// 开发模式直接信任 JSON 载荷，不校验签名
func (s *LoginService) ResolveIdentity(payload string) (*Identity, error) {
	if !s.devMode {
		return nil, errors.New("telegram signature validation is not configured, enable dev mode or set a bot token")
	}

	var identity Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		return nil, errors.New("malformed login payload")
	}
	if identity.TelegramID == 0 {
		return nil, errors.New("login payload is missing telegram_id")
	}
	if identity.Name == "" {
		identity.Name = identity.Username
	}
	if identity.Name == "" {
		return nil, errors.New("login payload is missing name")
	}
	return &identity, nil
}

// LoginResult 登录结果
type LoginResult struct {
	Token  string       `json:"token"`
	Expiry time.Time    `json:"expiry"`
	User   *models.User `json:"user"`
}

// Login 解析载荷、建立或更新用户、签发令牌
func (s *LoginService) Login(ctx context.Context, payload string) (*LoginResult, error) {
	identity, err := s.ResolveIdentity(payload)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		TelegramID:   identity.TelegramID,
		Username:     identity.Username,
		Name:         identity.Name,
		University:   "unknown",
		Institute:    "unknown",
		LastActiveAt: time.Now(),
	}
	if err := s.users.Upsert(user); err != nil {
		return nil, err
	}

	// upsert 冲突更新时 ID 不一定回填，重新读取
	stored, err := s.users.GetByTelegramID(identity.TelegramID)
	if err != nil {
		return nil, err
	}

	token, expiry, err := s.jwt.GenerateAccessToken(stored.ID, stored.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Expiry: expiry, User: stored}, nil
}
