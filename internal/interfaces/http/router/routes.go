// Package router 提供 HTTP 路由配置
package router

import (
	"ielts-tutor-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, chatHandler *handler.ChatHandler) {
	// 对话与评估
	v1.POST("/chat", chatHandler.Chat)
	v1.GET("/evaluations", chatHandler.ListEvaluations)
	v1.DELETE("/memory", chatHandler.ClearMemory)
}
