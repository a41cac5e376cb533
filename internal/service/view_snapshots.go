package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// SnapshotRepository persists rendered view models under string keys.
type SnapshotRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ViewSnapshots keeps rendered dashboard views so a repeat visit skips the
// backend fan-out. Every operation is a no-op when snapshots are disabled.
type ViewSnapshots struct {
	repo    SnapshotRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewViewSnapshots constructs the snapshot store. ttl <= 0 defaults to five minutes.
func NewViewSnapshots(repo SnapshotRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *ViewSnapshots {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewSnapshots{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

func (s *ViewSnapshots) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Load decodes the snapshot under key into dest and reports whether one existed.
func (s *ViewSnapshots) Load(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, elapsed)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("view snapshot read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, elapsed)
	return true, nil
}

// Save stores view under key for ttl, or the store default when ttl <= 0.
func (s *ViewSnapshots) Save(ctx context.Context, key string, view interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, view, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("view snapshot write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Drop removes every snapshot matching pattern.
func (s *ViewSnapshots) Drop(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("view snapshot drop failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
