package db

import "gorm.io/gorm"

// GalleryImage 定义图库图片模型。
// AssetURL 指向远端图床返回的访问地址，DisplayOrder 决定前台展示顺序。
type GalleryImage struct {
	gorm.Model
	AssetURL     string  `gorm:"not null" json:"asset_url"`
	Caption      *string `json:"caption"`
	DisplayOrder int     `gorm:"index;default:0" json:"display_order"`
}
