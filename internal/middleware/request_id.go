// Package middleware 提供 HTTP 请求的中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"persona-chat-server/pkg/util"
)

// RequestIDKey 请求标识在 gin.Context 中的 Key
const RequestIDKey = "request_id"

// RequestIDHeader 请求标识的 HTTP 头名称
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 创建请求标识中间件
// 为每个请求分配一个唯一标识，用于日志关联
// 客户端已携带 X-Request-ID 时沿用，否则生成新的
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = util.GenerateUUID()
		}

		// 放入上下文供日志中间件使用，同时回写响应头
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
