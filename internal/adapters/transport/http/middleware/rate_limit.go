package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/response"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nano
}

// NewRateLimitPerIP ограничивает частоту запросов с одного IP. LRU-кэш
// держит не больше cacheSize адресов, неактивные дольше ttl вычищаются
// фоновой горутиной до отмены ctx.
func NewRateLimitPerIP(
	ctx context.Context,
	limit, burst, cacheSize int,
	ttl time.Duration,
) gin.HandlerFunc {

	visitors, _ := lru.New[string, *visitor](cacheSize)

	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl).UnixNano()
				for _, key := range visitors.Keys() {
					if v, ok := visitors.Peek(key); ok && v.last.Load() < cutoff {
						visitors.Remove(key)
					}
				}
			}
		}
	}()

	return func(c *gin.Context) {
		host := c.ClientIP()

		v, ok := visitors.Get(host)
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(limit), burst)}
			// при гонке двух первых запросов остаётся уже добавленный
			if prev, found, _ := visitors.PeekOrAdd(host, v); found {
				v = prev
			}
		}
		v.last.Store(time.Now().UnixNano())

		if !v.limiter.Allow() {
			response.Fail(c, http.StatusTooManyRequests, response.MsgTooManyRequests, nil)
			return
		}
		c.Next()
	}
}
