package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/lenslog/internal/asset"
	"github.com/lenslog/internal/db"
	"github.com/lenslog/internal/imaging"
	"gorm.io/gorm"
)

var (
	ErrGalleryNotFound    = errors.New("gallery image not found")
	ErrNoFilesProvided    = errors.New("at least one image file is required")
	ErrNotAnImage         = errors.New("file is not an image")
	ErrNoImageIDs         = errors.New("at least one image id is required")
	ErrAllUploadsFailed   = errors.New("all uploads failed")
	ErrAllDeletionsFailed = errors.New("all deletions failed")
)

// MissingImagesError reports reorder ids that do not exist.
type MissingImagesError struct {
	IDs []uint
}

func (e *MissingImagesError) Error() string {
	return fmt.Sprintf("gallery images not found: %v", e.IDs)
}

func (e *MissingImagesError) Unwrap() error {
	return ErrGalleryNotFound
}

// UploadItem is one file received by the upload endpoint.
type UploadItem struct {
	Data        []byte
	Filename    string
	ContentType string
	Caption     string
}

// UploadError describes a single failed item within a bulk upload.
type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// IngestResult aggregates a bulk upload outcome. Errors may be non-empty on
// a successful call; partial success is still success.
type IngestResult struct {
	Created []db.GalleryImage
	Errors  []UploadError
}

// DeleteError describes a single failed item within a bulk deletion.
type DeleteError struct {
	ImageID uint   `json:"image_id"`
	Error   string `json:"error"`
}

// DeleteResult aggregates a bulk deletion outcome.
type DeleteResult struct {
	DeletedIDs []uint
	Errors     []DeleteError
}

// GalleryService owns gallery metadata and drives the upload and deletion
// pipelines against the remote asset gateway.
type GalleryService struct {
	db      *gorm.DB
	gateway asset.Gateway
	folder  string
	quality int

	// rankMu serializes display-rank assignment across concurrent
	// ingestions in this process.
	rankMu sync.Mutex
}

// NewGalleryService creates a GalleryService instance.
func NewGalleryService(gdb *gorm.DB, gateway asset.Gateway, folder string, quality int) *GalleryService {
	if quality <= 0 || quality > 100 {
		quality = imaging.DefaultQuality
	}
	return &GalleryService{
		db:      gdb,
		gateway: gateway,
		folder:  strings.TrimSpace(folder),
		quality: quality,
	}
}

// List returns all gallery images in display order.
func (s *GalleryService) List() ([]db.GalleryImage, error) {
	var items []db.GalleryImage
	if err := s.db.Order("display_order asc").Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches a gallery image by id.
func (s *GalleryService) Get(id uint) (*db.GalleryImage, error) {
	var item db.GalleryImage
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &item, nil
}

// UpdateCaption replaces an image caption. A nil or blank caption clears it.
func (s *GalleryService) UpdateCaption(id uint, caption *string) (*db.GalleryImage, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	item.Caption = normalizeCaption(caption)
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

type storeOutcome struct {
	url string
	err error
}

// Ingest uploads the given items and records their metadata.
//
// Content types are validated up front: one bad item fails the whole call
// before any network traffic. After that the pipeline is best-effort per
// item - uploads to the remote store run concurrently, then metadata rows
// are inserted strictly in input order so each one is appended at the
// current end of the display order. Only the zero-success case is fatal.
func (s *GalleryService) Ingest(ctx context.Context, items []UploadItem) (IngestResult, error) {
	result := IngestResult{}
	if len(items) == 0 {
		return result, ErrNoFilesProvided
	}
	for _, item := range items {
		if !strings.HasPrefix(item.ContentType, "image/") {
			return result, fmt.Errorf("%w: %s", ErrNotAnImage, item.Filename)
		}
	}

	outcomes := make([]storeOutcome, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = s.storeOne(ctx, items[i])
		}(i)
	}
	wg.Wait()

	s.rankMu.Lock()
	defer s.rankMu.Unlock()

	tx := s.db.Begin()
	if tx.Error != nil {
		return result, tx.Error
	}

	for i, outcome := range outcomes {
		if outcome.err != nil {
			log.Printf("upload failed for %s: %v", items[i].Filename, outcome.err)
			result.Errors = append(result.Errors, UploadError{Filename: items[i].Filename, Error: outcome.err.Error()})
			continue
		}

		rank, err := nextDisplayOrder(tx)
		if err != nil {
			result.Errors = append(result.Errors, UploadError{Filename: items[i].Filename, Error: err.Error()})
			continue
		}

		caption := items[i].Caption
		image := db.GalleryImage{
			AssetURL:     outcome.url,
			Caption:      normalizeCaption(&caption),
			DisplayOrder: rank,
		}
		if err := tx.Create(&image).Error; err != nil {
			result.Errors = append(result.Errors, UploadError{Filename: items[i].Filename, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, image)
	}

	if len(result.Created) == 0 {
		tx.Rollback()
		return result, ErrAllUploadsFailed
	}
	if err := tx.Commit().Error; err != nil {
		return IngestResult{Errors: result.Errors}, err
	}

	if len(result.Errors) > 0 {
		log.Printf("partial upload success: %d succeeded, %d failed", len(result.Created), len(result.Errors))
	}
	return result, nil
}

func (s *GalleryService) storeOne(ctx context.Context, item UploadItem) storeOutcome {
	data, changed, err := imaging.Normalize(item.Data, s.quality, true)
	if err != nil {
		log.Printf("keeping original encoding for %s: %v", item.Filename, err)
	} else if changed {
		log.Printf("re-encoded %s: %d -> %d bytes", item.Filename, len(item.Data), len(data))
	}

	stored, err := s.gateway.Store(ctx, data, s.folder)
	if err != nil {
		return storeOutcome{err: err}
	}
	return storeOutcome{url: stored.URL}
}

// Delete removes a single gallery image locally and best-effort remotely.
func (s *GalleryService) Delete(ctx context.Context, id uint) error {
	_, err := s.DeleteMany(ctx, []uint{id})
	return err
}

// DeleteMany removes the given images. Remote objects are deleted
// concurrently and best-effort first; the local rows are then removed
// sequentially regardless of the remote outcome, so a stuck remote asset can
// at worst leak, never block the gallery. Ids with no matching row are
// silently skipped; only an empty match set is a NotFound. Display ranks are
// not compacted here - gaps persist until the next reorder.
func (s *GalleryService) DeleteMany(ctx context.Context, ids []uint) (DeleteResult, error) {
	result := DeleteResult{}
	if len(ids) == 0 {
		return result, ErrNoImageIDs
	}

	var images []db.GalleryImage
	if err := s.db.Where("id IN ?", ids).Find(&images).Error; err != nil {
		return result, err
	}
	if len(images) == 0 {
		return result, ErrGalleryNotFound
	}

	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(image db.GalleryImage) {
			defer wg.Done()
			s.detachRemote(ctx, image)
		}(images[i])
	}
	wg.Wait()

	tx := s.db.Begin()
	if tx.Error != nil {
		return result, tx.Error
	}

	for i := range images {
		if err := tx.Delete(&images[i]).Error; err != nil {
			log.Printf("failed to delete gallery image %d: %v", images[i].ID, err)
			result.Errors = append(result.Errors, DeleteError{ImageID: images[i].ID, Error: err.Error()})
			continue
		}
		result.DeletedIDs = append(result.DeletedIDs, images[i].ID)
	}

	if len(result.DeletedIDs) == 0 {
		tx.Rollback()
		return result, ErrAllDeletionsFailed
	}
	if err := tx.Commit().Error; err != nil {
		return DeleteResult{Errors: result.Errors}, err
	}

	if len(result.Errors) > 0 {
		log.Printf("partial deletion success: %d succeeded, %d failed", len(result.DeletedIDs), len(result.Errors))
	}
	return result, nil
}

// detachRemote deletes the remote object behind an image. Failures are
// logged and swallowed: the local row is the source of truth and its
// deletion must not depend on the remote store.
func (s *GalleryService) detachRemote(ctx context.Context, image db.GalleryImage) {
	publicID, err := asset.ExtractPublicID(image.AssetURL)
	if err != nil {
		log.Printf("skipping remote delete for image %d: %v", image.ID, err)
		return
	}
	if err := s.gateway.Delete(ctx, publicID); err != nil {
		log.Printf("failed to delete remote asset %s for image %d: %v", publicID, image.ID, err)
	}
}

// Reorder moves the given images to the front of the gallery, in the order
// given. Every other image follows in its previous relative order, and
// display ranks are reassigned as a gapless 0..N-1 sequence, which also
// compacts any gaps earlier deletions left behind. Returns the number of
// rows whose rank actually changed.
func (s *GalleryService) Reorder(ids []uint) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoImageIDs
	}

	all, err := s.List()
	if err != nil {
		return 0, err
	}

	existing := make(map[uint]bool, len(all))
	for _, image := range all {
		existing[image.ID] = true
	}

	prefix := make([]uint, 0, len(ids))
	requested := make(map[uint]bool, len(ids))
	var missing []uint
	for _, id := range ids {
		if requested[id] {
			continue
		}
		requested[id] = true
		if !existing[id] {
			missing = append(missing, id)
			continue
		}
		prefix = append(prefix, id)
	}
	if len(missing) > 0 {
		return 0, &MissingImagesError{IDs: missing}
	}

	final := make([]uint, 0, len(all))
	final = append(final, prefix...)
	for _, image := range all {
		if !requested[image.ID] {
			final = append(final, image.ID)
		}
	}

	ranks := make(map[uint]int, len(all))
	for _, image := range all {
		ranks[image.ID] = image.DisplayOrder
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}

	changed := 0
	for position, id := range final {
		if ranks[id] == position {
			continue
		}
		if err := tx.Model(&db.GalleryImage{}).Where("id = ?", id).Update("display_order", position).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
		changed++
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return changed, nil
}

func nextDisplayOrder(tx *gorm.DB) (int, error) {
	var maxRank int
	if err := tx.Model(&db.GalleryImage{}).
		Select("COALESCE(MAX(display_order), -1)").
		Scan(&maxRank).Error; err != nil {
		return 0, err
	}
	return maxRank + 1, nil
}

func normalizeCaption(caption *string) *string {
	if caption == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
