package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/utils"
)

// CachePrefix is the Redis key prefix of pages cached under name.
func CachePrefix(name string) string {
	return "cache:" + name + ":"
}

// CachePage serves successful GET responses from Redis for ttl, keyed by name and the request URI.
// Nothing invalidates the entries on writes; clear them with utils.InvalidateByPrefix(CachePrefix(name)).
func CachePage(ttl time.Duration, name string) gin.HandlerFunc {
	prefix := CachePrefix(name)
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}
		key := prefix + ctx.Request.URL.RequestURI()
		if resp, ok := utils.CacheGetResponse(key); ok {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(resp.Status, resp.ContentType, resp.Body)
			ctx.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: ctx.Writer}
		ctx.Writer = rec
		ctx.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		utils.CacheSetJSON(key, utils.CachedResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}, ttl)
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
