package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/lenslog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, corsOrigins []string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("lenslog_session", store))
	r.Use(corsMiddleware(corsOrigins))

	// 健康检查
	r.GET("/", api.Root)
	r.GET("/health", api.Health)
	r.GET("/health/db", api.HealthDB)
	r.GET("/health/storage", api.HealthStorage)

	apiGroup := r.Group("/api")
	{
		// 公开图库
		apiGroup.GET("/gallery-images", api.ListGalleryImages)

		// CMS 管理路由
		cms := apiGroup.Group("/cms")
		cms.POST("/login", api.CMSLogin)
		cms.POST("/logout", api.CMSLogout)

		// 需要认证的 CMS 路由
		auth := cms.Group("")
		auth.Use(api.CMSAuthRequired())
		{
			auth.GET("/gallery-images", api.ListCMSGalleryImages)
			auth.POST("/gallery-images", api.UploadGalleryImages)
			auth.PUT("/gallery-images/reorder", api.ReorderGalleryImages)
			auth.PUT("/gallery-images/:id", api.UpdateGalleryImageCaption)
			auth.DELETE("/gallery-images/bulk", api.DeleteGalleryImagesBulk)
			auth.DELETE("/gallery-images/:id", api.DeleteGalleryImage)
		}
	}

	return r
}

// corsMiddleware 为允许的来源设置 CORS 响应头并处理预检请求。
// 允许列表为空时不放行任何来源。
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			header := c.Writer.Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Vary", "Origin")
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, "+handler.CMSPasswordHeader)
			header.Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}
