// Package response 提供统一的 HTTP 错误响应格式
// 成功响应的 Body 形状由各接口的契约固定（如 {"reply": ...}），
// 错误响应统一使用这里的结构，便于前端处理
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一错误响应结构
// code: 业务状态码
// message: 提示信息
type Response struct {
	Code    int    `json:"code"`    // 业务状态码
	Message string `json:"message"` // 提示信息
}

// 业务状态码定义
const (
	CodeSuccess       = 0    // 成功
	CodeBadRequest    = 1000 // 请求参数错误
	CodeNotFound      = 1003 // 资源不存在
	CodeInternalError = 1004 // 服务器内部错误
	CodeEmptyMessage  = 1101 // 消息内容为空
	CodeStorageError  = 1102 // 存储层失败
	CodeProviderError = 1103 // 生成模型调用失败
)

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeBadRequest,
		Message: message,
	})
}

// EmptyMessage 返回消息为空错误
func EmptyMessage(c *gin.Context) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeEmptyMessage,
		Message: "消息内容不能为空",
	})
}

// StorageError 返回存储层失败错误
func StorageError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeStorageError,
		Message: "存储访问失败",
	})
}

// ProviderError 返回生成模型调用失败错误
// 上游服务失败使用 502
func ProviderError(c *gin.Context, message string) {
	c.JSON(http.StatusBadGateway, Response{
		Code:    CodeProviderError,
		Message: message,
	})
}

// NotFound 返回 404 错误（资源不存在）
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeInternalError,
		Message: message,
	})
}
