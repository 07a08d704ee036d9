package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lenslog/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	captionEngine = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	captionSanitizer = bluemonday.UGCPolicy()
)

type galleryImageView struct {
	ID           uint          `json:"id"`
	AssetURL     string        `json:"asset_url"`
	Caption      *string       `json:"caption"`
	CaptionHTML  template.HTML `json:"caption_html,omitempty"`
	DisplayOrder int           `json:"display_order"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func toGalleryView(image db.GalleryImage) galleryImageView {
	view := galleryImageView{
		ID:           image.ID,
		AssetURL:     image.AssetURL,
		Caption:      image.Caption,
		DisplayOrder: image.DisplayOrder,
		CreatedAt:    image.CreatedAt,
		UpdatedAt:    image.UpdatedAt,
	}
	if image.Caption != nil {
		view.CaptionHTML = renderCaption(*image.Caption)
	}
	return view
}

// renderCaption converts a markdown caption into sanitized HTML. A failed
// conversion falls back to the sanitized raw text.
func renderCaption(caption string) template.HTML {
	var buf bytes.Buffer
	if err := captionEngine.Convert([]byte(caption), &buf); err != nil {
		return template.HTML(captionSanitizer.Sanitize(caption))
	}
	return template.HTML(captionSanitizer.SanitizeBytes(buf.Bytes()))
}

// ListGalleryImages returns the public gallery in display order.
func (a *API) ListGalleryImages(c *gin.Context) {
	items, err := a.galleries.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取图库失败")
		return
	}

	views := make([]galleryImageView, 0, len(items))
	for _, item := range items {
		views = append(views, toGalleryView(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}
