package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root 根路径健康检查
func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "lenslog gallery api",
		"status":  "healthy",
	})
}

// Health 存活检查
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// HealthDB 探测元数据库连接
func (a *API) HealthDB(c *gin.Context) {
	if err := a.db.Exec("SELECT 1").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"database": "error",
			"status":   "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"database": "connected",
		"status":   "healthy",
	})
}

// HealthStorage 报告远端图床配置状态
func (a *API) HealthStorage(c *gin.Context) {
	if !a.gateway.Configured() {
		c.JSON(http.StatusOK, gin.H{
			"storage": "not_configured",
			"status":  "warning",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storage": "configured",
		"status":  "healthy",
	})
}
