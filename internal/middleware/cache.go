package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl lets browsers keep a response for maxAgeSeconds. Used for the
// options catalog, which only changes on restart.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore marks responses that must always be refetched, such as schedule
// listings that change under concurrent edits.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
