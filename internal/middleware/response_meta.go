package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	countKey        = "count"
	requestIDKey    = "request_id"
)

// WithResponseMeta prepares the meta block of the envelope. Handlers add to it and read it back
// with ExtractMeta when writing the response.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta[requestIDKey] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetCacheHit marks whether the payload was served from the listing cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)[cacheHitKey] = hit
}

// SetResultCount records the number of items in a listing.
func SetResultCount(c *gin.Context, n int) {
	meta(c)[countKey] = n
}

// ExtractMeta returns the metadata collected so far, or nil when none was set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if value, ok := c.Get(responseMetaKey); ok {
		if typed, ok := value.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func meta(c *gin.Context) map[string]interface{} {
	if existing := ExtractMeta(c); existing != nil {
		return existing
	}
	created := map[string]interface{}{}
	if c != nil {
		c.Set(responseMetaKey, created)
	}
	return created
}
