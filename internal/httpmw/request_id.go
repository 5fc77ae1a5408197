// Package httpmw holds small gin middleware shared by voicematchd's HTTP
// surface, grounded on the teacher's auth-service main.go
// (middleware.RequestID(), called before its route groups).
package httpmw

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns a UUID to every request lacking one already, echoing
// it back on the response and stashing it on the gin context under
// "request_id" for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
