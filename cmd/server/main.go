package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/lenslog/internal/asset"
	"github.com/lenslog/internal/config"
	"github.com/lenslog/internal/db"
	"github.com/lenslog/internal/handler"
	"github.com/lenslog/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	gateway := asset.NewCloudinaryGateway(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if !gateway.Configured() {
		log.Println("cloudinary credentials missing, uploads will fail until configured")
	}
	if cfg.AdminPasswordHash == "" {
		log.Println("ADMIN_PASSWORD_HASH not set, CMS endpoints will reject all requests")
	}
	if len(cfg.CORSOrigins) == 0 {
		log.Println("CORS_ORIGINS not set, cross-origin browser requests will be refused")
	}

	api := handler.NewAPI(db.DB, gateway, cfg.AdminPasswordHash, cfg.UploadFolder, cfg.JPEGQuality)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret, cfg.CORSOrigins)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
