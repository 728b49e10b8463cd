package storage

import (
	"context"
	"io"
	"time"
)

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了存储层的基本操作，所有存储实现必须遵循此接口
type Provider interface {
	// SaveWithContext 保存文件到存储
	SaveWithContext(ctx context.Context, identifier string, file io.Reader) error

	// GetWithContext 从存储获取文件
	GetWithContext(ctx context.Context, identifier string) (io.ReadCloser, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, identifier string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, identifier string) (bool, error)

	// List 列出全部文件标识符
	List(ctx context.Context) ([]string, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// ModTimer 可选接口，支持按修改时间对账的存储实现
type ModTimer interface {
	ModTime(ctx context.Context, identifier string) (time.Time, error)
}

// ErrNotExist 文件不存在
// 删除路径把它当作成功（幂等删除），读取路径把它当作 404
type notExistError struct{ identifier string }

func (e *notExistError) Error() string {
	return "file not found: " + e.identifier
}

// NewNotExist 创建文件不存在错误
func NewNotExist(identifier string) error {
	return &notExistError{identifier: identifier}
}

// IsNotExist 判断是否为文件不存在错误
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*notExistError)
	return ok
}
