package errcache

import (
	"time"

	"github.com/t2bot/link-previewer/common/config"
)

// NewUnsupportedMemo builds the cache of URLs known to point at content which cannot be previewed.
func NewUnsupportedMemo(cfg config.UrlPreviewsConfig) *ErrCache {
	return NewErrCache(memoExpiration(cfg))
}

// AdjustSize applies a reloaded memo lifetime.
func AdjustSize(memo *ErrCache, cfg config.UrlPreviewsConfig) {
	memo.Resize(memoExpiration(cfg))
}

func memoExpiration(cfg config.UrlPreviewsConfig) time.Duration {
	return time.Duration(cfg.UnsupportedMemoMinutes) * time.Minute
}
