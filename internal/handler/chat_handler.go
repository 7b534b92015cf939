// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"persona-chat-server/internal/model"
	"persona-chat-server/internal/service"
	"persona-chat-server/pkg/response"
)

// ChatHandler 聊天请求处理器
// 这些接口的成功响应 Body 形状是对外契约的一部分，不使用统一封装
type ChatHandler struct {
	chatService     *service.ChatService
	lorebookService *service.LorebookService
}

// NewChatHandler 创建 ChatHandler 实例
func NewChatHandler(chatService *service.ChatService, lorebookService *service.LorebookService) *ChatHandler {
	return &ChatHandler{
		chatService:     chatService,
		lorebookService: lorebookService,
	}
}

// ChatRequest 聊天请求
type ChatRequest struct {
	SessionID string `json:"session_id"` // 会话标识，缺省为 "default"
	Message   string `json:"message"`    // 用户消息
}

// SetPersonalityRequest 设置人格请求
type SetPersonalityRequest struct {
	Personality string `json:"personality"` // 人格指令，缺省视为空字符串
}

// MessageResponse 历史消息响应
type MessageResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat 处理一个聊天回合
// @Summary 聊天
// @Description 发送一条用户消息，返回助手回复
// @Tags 聊天
// @Accept json
// @Produce json
// @Param body body ChatRequest true "聊天请求"
// @Success 200 {object} map[string]string "{"reply": "..."}"
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	reply, err := h.chatService.HandleTurn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		var storageErr *service.StorageError
		var providerErr *service.ProviderError
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			response.EmptyMessage(c)
		case errors.As(err, &storageErr):
			response.StorageError(c)
		case errors.As(err, &providerErr):
			response.ProviderError(c, "生成回复失败")
		default:
			response.InternalError(c, "处理消息失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// History 获取会话的全部历史消息
// @Summary 历史记录
// @Description 按时间正序返回会话的全部消息，无窗口限制
// @Tags 聊天
// @Produce json
// @Param session_id query string false "会话标识" default(default)
// @Success 200 {object} map[string][]MessageResponse
// @Router /history [get]
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.DefaultQuery("session_id", model.DefaultSessionID)

	messages, err := h.chatService.History(c.Request.Context(), sessionID)
	if err != nil {
		response.StorageError(c)
		return
	}

	// 空会话返回空列表而不是错误
	result := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": result})
}

// SetPersonality 设置全局人格指令
// @Summary 设置人格
// @Description upsert 语义，personality 字段缺省视为空字符串
// @Tags 人格
// @Accept json
// @Produce json
// @Param body body SetPersonalityRequest true "人格指令"
// @Success 200 {object} map[string]bool "{"ok": true}"
// @Router /set_personality [post]
func (h *ChatHandler) SetPersonality(c *gin.Context) {
	var req SetPersonalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的请求参数")
		return
	}

	// 字段缺省解析为空字符串，按契约这不是错误
	if err := h.lorebookService.SetPersonality(c.Request.Context(), req.Personality); err != nil {
		response.StorageError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetPersonality 读取全局人格指令
// @Summary 读取人格
// @Description 从未设置时返回空字符串
// @Tags 人格
// @Produce json
// @Success 200 {object} map[string]string "{"personality": "..."}"
// @Router /get_personality [get]
func (h *ChatHandler) GetPersonality(c *gin.Context) {
	personality, err := h.lorebookService.GetPersonality(c.Request.Context())
	if err != nil {
		response.StorageError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"personality": personality})
}
