package cache

import (
	"log"
	"sync"

	"github.com/uninet-app/uninet/config"
)

var (
	defaultCache Cache
	initOnce     sync.Once
)

// Init 根据配置初始化默认缓存
func Init(cfg *config.Config) error {
	var err error
	initOnce.Do(func() {
		maxCost := int64(cfg.CacheMaxSizeMB) * 1024 * 1024
		if maxCost <= 0 {
			maxCost = 64 * 1024 * 1024
		}

		defaultCache, err = NewRistretto(Config{
			NumCounters: maxCost / 100,
			MaxCost:     maxCost,
			BufferItems: 64,
		})
		if err != nil {
			return
		}
		log.Printf("Cache initialized (ristretto, max %d MB)", maxCost/1024/1024)
	})
	return err
}

// Default 获取默认缓存实例
func Default() Cache {
	return defaultCache
}

// Close 关闭默认缓存
func Close() {
	if defaultCache != nil {
		_ = defaultCache.Close()
	}
}
