package media

import (
	"context"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/uninet-app/uninet/storage"
	"golang.org/x/sync/errgroup"
)

// BatchSource 提供某类实体持有的图片批次（JSON 字符串）
type BatchSource interface {
	Name() string
	ImageBatches(ctx context.Context) ([]string, error)
}

// RefSource 提供某类实体持有的裸标识符（如用户头像列）
type RefSource interface {
	Name() string
	ImageRefs(ctx context.Context) ([]string, error)
}

// ScanStats 对账统计
type ScanStats struct {
	StoredFiles     int
	ReferencedFiles int
	OrphansFound    int
	OrphansDeleted  int
	SkippedRecent   int
}

// OrphanScanner 磁盘与数据库引用对账器
// 列出存储中的全部文件，剔除任一实体仍引用的，删除剩余的孤儿
type OrphanScanner struct {
	provider     storage.Provider
	batchSources []BatchSource
	refSources   []RefSource
	grace        time.Duration
}

// NewOrphanScanner 创建对账器
// grace 之内新写入的文件不删，避免误杀正在摄取中的批次
func NewOrphanScanner(provider storage.Provider, grace time.Duration) *OrphanScanner {
	return &OrphanScanner{provider: provider, grace: grace}
}

// AddBatchSource 注册图片批次来源
func (s *OrphanScanner) AddBatchSource(src BatchSource) {
	s.batchSources = append(s.batchSources, src)
}

// AddRefSource 注册裸标识符来源
func (s *OrphanScanner) AddRefSource(src RefSource) {
	s.refSources = append(s.refSources, src)
}

// Scan 执行一轮对账，dryRun 只统计不删除
func (s *OrphanScanner) Scan(ctx context.Context, dryRun bool) (*ScanStats, error) {
	stats := &ScanStats{}

	referenced, err := s.collectReferenced(ctx)
	if err != nil {
		return nil, err
	}
	stats.ReferencedFiles = len(referenced)

	stored, err := s.provider.List(ctx)
	if err != nil {
		return nil, err
	}
	stats.StoredFiles = len(stored)

	modTimer, hasModTime := s.provider.(storage.ModTimer)
	cutoff := time.Now().Add(-s.grace)

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(8)

	for _, identifier := range stored {
		if referenced[identifier] {
			continue
		}

		id := identifier
		group.Go(func() error {
			if hasModTime && s.grace > 0 {
				mod, err := modTimer.ModTime(gctx, id)
				if err == nil && mod.After(cutoff) {
					mu.Lock()
					stats.SkippedRecent++
					mu.Unlock()
					return nil
				}
			}

			mu.Lock()
			stats.OrphansFound++
			mu.Unlock()

			if dryRun {
				log.Printf("[DRY-RUN] Would delete orphan file: %s", id)
				return nil
			}

			if err := s.provider.DeleteWithContext(gctx, id); err != nil && !storage.IsNotExist(err) {
				log.Printf("WARN: failed to delete orphan file %s: %v", id, err)
				return nil
			}

			mu.Lock()
			stats.OrphansDeleted++
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// collectReferenced 汇总所有实体仍引用的标识符
func (s *OrphanScanner) collectReferenced(ctx context.Context) (map[string]bool, error) {
	referenced := make(map[string]bool)

	for _, src := range s.batchSources {
		batches, err := src.ImageBatches(ctx)
		if err != nil {
			return nil, err
		}
		for _, batch := range batches {
			metas, err := DecodeBatch(batch)
			if err != nil {
				log.Printf("WARN: undecodable image batch in %s, skipping: %v", src.Name(), err)
				continue
			}
			for _, m := range metas {
				referenced[normalizeRef(m.URL)] = true
			}
		}
	}

	for _, src := range s.refSources {
		refs, err := src.ImageRefs(ctx)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if ref != "" {
				referenced[normalizeRef(ref)] = true
			}
		}
	}

	return referenced, nil
}

// normalizeRef 旧数据可能存的是完整 URL，归一化成裸标识符
func normalizeRef(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return path.Base(ref)
	}
	return ref
}
