package middleware

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bodyCacheWriter buffers the response body so the ETag can be computed before anything is sent.
type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCacheWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bodyCacheWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// ETagCache returns a Gin middleware that sets a strong ETag on successful GET responses
// and answers 304 Not Modified when If-None-Match matches.
// Vault contents are per account, so responses are only cacheable privately and must be revalidated.
func ETagCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		bcw := &bodyCacheWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = bcw
		c.Next()
		c.Writer = bcw.ResponseWriter

		responseBody := bcw.body.Bytes()
		if c.Writer.Status() == http.StatusOK && len(responseBody) > 0 {
			etag := fmt.Sprintf(`"%x"`, sha256.Sum256(responseBody))
			c.Header("ETag", etag)
			c.Header("Cache-Control", "private, no-cache")

			if c.GetHeader("If-None-Match") == etag {
				c.Status(http.StatusNotModified)
				c.Writer.WriteHeaderNow()
				return
			}
		}

		_, _ = c.Writer.Write(responseBody)
	}
}
