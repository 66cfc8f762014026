// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers, promptLimit gin.HandlerFunc) {
	users := v1.Group("/users")
	{
		users.POST("", h.User.CreateUser)
		users.GET("/:uid", h.User.GetUser)
		users.GET("/:uid/projects", h.Project.ListUserProjects)
	}

	projects := v1.Group("/projects")
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.GET("/:pid/elements", h.Project.ListElements)
		projects.PATCH("/:pid/elements/:eid", h.Project.UpdateElement)
		projects.GET("/:pid/turns", h.Project.ListTurns)
		projects.POST("/:pid/prompts", promptLimit, h.Project.SubmitPrompt)
		projects.GET("/:pid/ws", h.Realtime.Connect)
	}

	budget := v1.Group("/budget")
	{
		budget.GET("", h.Budget.GetStatus)
		budget.POST("/monthly-reset", h.Budget.ResetMonthly)
	}
}
