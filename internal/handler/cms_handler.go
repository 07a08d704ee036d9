package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lenslog/internal/service"
)

// ListCMSGalleryImages returns all gallery images for the CMS dashboard.
func (a *API) ListCMSGalleryImages(c *gin.Context) {
	items, err := a.galleries.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取图库失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UploadGalleryImages handles single and bulk image upload. Files arrive in
// the repeated multipart field "files"; captions in "captions" pair with
// files by position, a single caption applies to every file.
func (a *API) UploadGalleryImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "无法解析上传表单")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "请至少上传一张图片")
		return
	}
	captions := form.Value["captions"]

	items := make([]service.UploadItem, 0, len(files))
	for i, header := range files {
		data, err := readUploadedFile(header)
		if err != nil {
			respondError(c, http.StatusBadRequest, "读取上传文件失败: "+header.Filename)
			return
		}

		caption := ""
		if i < len(captions) {
			caption = captions[i]
		} else if len(captions) == 1 {
			caption = captions[0]
		}

		items = append(items, service.UploadItem{
			Data:        data,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Caption:     caption,
		})
	}

	result, err := a.galleries.Ingest(c.Request.Context(), items)
	switch {
	case errors.Is(err, service.ErrNoFilesProvided), errors.Is(err, service.ErrNotAnImage):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrAllUploadsFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "所有图片上传失败", "errors": result.Errors})
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "图片上传失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": result.Created, "errors": result.Errors})
}

func readUploadedFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

type captionPayload struct {
	Caption *string `json:"caption"`
}

// UpdateGalleryImageCaption updates or clears an image caption.
func (a *API) UpdateGalleryImageCaption(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的图片ID")
		return
	}

	var payload captionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.galleries.UpdateCaption(id, payload.Caption)
	if err != nil {
		if errors.Is(err, service.ErrGalleryNotFound) {
			respondError(c, http.StatusNotFound, "图片不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "更新图片失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "图片已更新", "item": item})
}

// DeleteGalleryImage removes a single image.
func (a *API) DeleteGalleryImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的图片ID")
		return
	}

	if err := a.galleries.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrGalleryNotFound):
			respondError(c, http.StatusNotFound, "图片不存在")
		case errors.Is(err, service.ErrAllDeletionsFailed):
			respondError(c, http.StatusInternalServerError, "删除图片失败")
		default:
			respondError(c, http.StatusInternalServerError, "删除图片失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "图片已删除", "image_id": id})
}

type bulkDeletePayload struct {
	ImageIDs []uint `json:"image_ids"`
}

// DeleteGalleryImagesBulk removes several images at once.
func (a *API) DeleteGalleryImagesBulk(c *gin.Context) {
	var payload bulkDeletePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.galleries.DeleteMany(c.Request.Context(), payload.ImageIDs)
	switch {
	case errors.Is(err, service.ErrNoImageIDs):
		respondError(c, http.StatusBadRequest, "请至少选择一张图片")
		return
	case errors.Is(err, service.ErrGalleryNotFound):
		respondError(c, http.StatusNotFound, "未找到任何指定的图片")
		return
	case errors.Is(err, service.ErrAllDeletionsFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "所有图片删除失败", "errors": result.Errors})
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "删除图片失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_ids": result.DeletedIDs, "errors": result.Errors})
}

type reorderPayload struct {
	ImageIDs []uint `json:"image_ids"`
}

// ReorderGalleryImages moves the given images to the front of the gallery.
func (a *API) ReorderGalleryImages(c *gin.Context) {
	var payload reorderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	count, err := a.galleries.Reorder(payload.ImageIDs)
	if err != nil {
		var missing *service.MissingImagesError
		switch {
		case errors.Is(err, service.ErrNoImageIDs):
			respondError(c, http.StatusBadRequest, "请至少选择一张图片")
		case errors.As(err, &missing):
			c.JSON(http.StatusNotFound, gin.H{"error": "部分图片不存在", "missing_ids": missing.IDs})
		default:
			respondError(c, http.StatusInternalServerError, "调整顺序失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
