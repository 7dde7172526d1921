package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"idmatch/internal/platform/metrics"
)

// CachedReader caches final OCR text in Redis keyed by the image content
// hash, so re-running a sheet does not re-pay for unchanged card images.
// Cache failures degrade to a direct read; they never fail the row.
type CachedReader struct {
	inner   Reader
	cache   redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCachedReader(inner Reader, cache redis.Cmdable, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *CachedReader {
	return &CachedReader{inner: inner, cache: cache, ttl: ttl, logger: logger, metrics: m}
}

func (r *CachedReader) Text(ctx context.Context, img []byte) (string, error) {
	key := cacheKey(img)

	cached, err := r.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		r.metrics.IncrementOCRCacheHits()
		return cached, nil
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "ocr cache read failed", "error", err.Error())
	}

	text, err := r.inner.Text(ctx, img)
	if err != nil {
		return "", err
	}

	// Empty text is cacheable too: a blank scan stays blank.
	if err := r.cache.Set(ctx, key, text, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "ocr cache write failed", "error", err.Error())
	}
	return text, nil
}

func cacheKey(img []byte) string {
	sum := sha256.Sum256(img)
	return "ocr:text:" + hex.EncodeToString(sum[:])
}
