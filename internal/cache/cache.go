package cache

import (
	"context"
	"time"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
)

// ClosingReportCache stores finalized daily closing reports. Reports for
// past days never change, so a cache hit skips the aggregate queries
// entirely; the current day always bypasses the cache.
type ClosingReportCache interface {
	Get(ctx context.Context, key string) (*domain.DailyClosingReport, bool, error)
	Set(ctx context.Context, key string, value *domain.DailyClosingReport, ttl time.Duration) error
}

type NoopClosingReportCache struct{}

func (NoopClosingReportCache) Get(_ context.Context, _ string) (*domain.DailyClosingReport, bool, error) {
	return nil, false, nil
}

func (NoopClosingReportCache) Set(_ context.Context, _ string, _ *domain.DailyClosingReport, _ time.Duration) error {
	return nil
}
