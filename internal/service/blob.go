package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/shop-backoffice/internal/blob"
	"github.com/iliyamo/shop-backoffice/internal/logger"
	"github.com/iliyamo/shop-backoffice/internal/metrics"
)

// discardBlob deletes a blob and drops the error after logging it. Image
// metadata removal must not depend on the physical file still existing.
func discardBlob(ctx context.Context, store blob.Store, key string) {
	if store == nil || key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		metrics.IncBlobDeleteFailure()
		logger.Warn(ctx, "blob delete skipped", zap.String("key", key), zap.Error(err))
	}
}
