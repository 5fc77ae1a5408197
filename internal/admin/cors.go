package admin

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS guards the /admin/live surface against arbitrary cross-origin
// pages opening a dashboard websocket, mirroring the teacher's
// internal/http/middleware/cors.go.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	})
}
