package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/api"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/handler"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/workflow"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Cases     *handler.CaseHandler
	Users     *handler.UserHandler
	Reference *handler.ReferenceHandler
	Dashboard *handler.DashboardHandler
}

func New(h Handlers, authRequired gin.HandlerFunc) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/") })
	r.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = "/swagger/index.html"
			c.Request.RequestURI = "/swagger/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)

	authed := v1.Group("", authRequired)
	{
		authed.POST("/auth/change-password", h.Auth.ChangePassword)
		authed.GET("/users/me", h.Users.Me)
		authed.GET("/users/me/category-access", h.Users.MyCategoryAccess)

		users := authed.Group("/users", handler.RequireAction(workflow.ActionManageUsers))
		{
			users.POST("", h.Users.Create)
			users.GET("", h.Users.List)
			users.GET("/:id", h.Users.Get)
			users.PATCH("/:id", h.Users.Update)
			users.POST("/:id/activate", h.Users.Activate)
			users.POST("/:id/deactivate", h.Users.Deactivate)
			users.POST("/:id/reset-password", h.Users.ResetPassword)
			users.GET("/:id/active-cases", h.Users.ActiveCases)
		}
		access := authed.Group("/users/:id/category-access", handler.RequireAction(workflow.ActionGrantAccess))
		{
			access.GET("", h.Users.GetCategoryAccess)
			access.PUT("", h.Users.SetCategoryAccess)
		}

		authed.GET("/categories", h.Reference.ListCategories)
		authed.GET("/channels", h.Reference.ListChannels)
		reference := authed.Group("", handler.RequireAction(workflow.ActionManageReference))
		{
			reference.POST("/categories", h.Reference.CreateCategory)
			reference.PATCH("/categories/:id", h.Reference.UpdateCategory)
			reference.POST("/channels", h.Reference.CreateChannel)
			reference.PATCH("/channels/:id", h.Reference.UpdateChannel)
		}

		cases := authed.Group("/cases")
		{
			cases.POST("", handler.RequireAction(workflow.ActionCreateCase), h.Cases.Create)
			cases.GET("", h.Cases.List)
			cases.GET("/my", h.Cases.ListMy)
			cases.GET("/assigned", h.Cases.ListAssigned)
			cases.GET("/:id", h.Cases.Get)
			cases.POST("/:id/take", handler.RequireAction(workflow.ActionTakeCase), h.Cases.Take)
			cases.PATCH("/:id/assign", handler.RequireAction(workflow.ActionAssignCase), h.Cases.Assign)
			cases.POST("/:id/status", handler.RequireAction(workflow.ActionChangeStatus), h.Cases.ChangeStatus)
			cases.GET("/:id/comments", h.Cases.ListComments)
			cases.POST("/:id/comments", h.Cases.AddComment)
		}

		dashboard := authed.Group("/dashboard", handler.RequireAction(workflow.ActionViewDashboard))
		{
			dashboard.GET("/summary", h.Dashboard.Summary)
			dashboard.GET("/status-distribution", h.Dashboard.StatusDistribution)
		}
	}

	return r
}
