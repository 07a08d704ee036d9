package handler

import (
	"github.com/lenslog/internal/asset"
	"github.com/lenslog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	galleries *service.GalleryService
	gateway   asset.Gateway
	adminHash string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, gateway asset.Gateway, adminHash, uploadFolder string, jpegQuality int) *API {
	return &API{
		db:        gdb,
		galleries: service.NewGalleryService(gdb, gateway, uploadFolder, jpegQuality),
		gateway:   gateway,
		adminHash: adminHash,
	}
}

// DB exposes the underlying gorm instance for health probes.
func (a *API) DB() *gorm.DB {
	return a.db
}
