package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/iliyamo/shop-backoffice/internal/blob"
	"github.com/iliyamo/shop-backoffice/internal/metrics"
	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
)

// ImageService is the image attachment store. It keeps at most one image
// per product flagged main: every path that sets the flag clears it on
// the product's other images in the same transaction.
type ImageService struct {
	images   *repository.ImageRepo
	products *repository.ProductRepo
	blobs    blob.Store
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

func NewImageService(images *repository.ImageRepo, products *repository.ProductRepo, blobs blob.Store, baseURL string, maxBytes int64) *ImageService {
	return &ImageService{
		images:   images,
		products: products,
		blobs:    blobs,
		baseURL:  baseURL,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	ProductID uint64
	FileName  string
	Size      int64
	Content   io.Reader
	IsMain    bool
	SortOrder int
}

// UpdateImageInput carries the optional metadata changes. Setting IsMain
// to false only clears this image's flag.
type UpdateImageInput struct {
	IsMain    *bool
	SortOrder *int
}

func (s *ImageService) List(ctx context.Context, productID uint64) ([]model.ProductImage, error) {
	return s.images.ListByProduct(ctx, productID)
}

func (s *ImageService) Get(ctx context.Context, id uint64) (*model.ProductImage, error) {
	return s.images.GetByID(ctx, id)
}

// GetMain returns the product's main image or ErrImageNotFound.
func (s *ImageService) GetMain(ctx context.Context, productID uint64) (*model.ProductImage, error) {
	return s.images.GetMain(ctx, productID)
}

// Upload validates and stores the file, then records its metadata. If the
// metadata write fails the stored file is removed again.
func (s *ImageService) Upload(ctx context.Context, caller Caller, in UploadInput) (*model.ProductImage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	exists, err := s.products.Exists(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	if in.Content == nil {
		metrics.ObserveImageUpload("invalid")
		return nil, invalid("no file uploaded")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(in.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		metrics.ObserveImageUpload("error")
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType, err := blob.ValidateImage(in.FileName, in.Size, s.maxBytes, head)
	if err != nil {
		metrics.ObserveImageUpload("invalid")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.now().UTC()
	fileName := blob.UniqueFileName(in.FileName, now)
	key := blob.ProductKey(in.ProductID, fileName)
	body := io.MultiReader(bytes.NewReader(head), in.Content)
	if err := s.blobs.Put(ctx, key, contentType, body, in.Size); err != nil {
		metrics.ObserveImageUpload("error")
		return nil, fmt.Errorf("store file: %w", err)
	}

	img := &model.ProductImage{
		ProductID: in.ProductID,
		FileName:  fileName,
		URL:       blob.PublicURL(s.baseURL, key),
		IsMain:    in.IsMain,
		SortOrder: in.SortOrder,
		CreatedAt: now,
	}
	if err := s.insert(ctx, img); err != nil {
		discardBlob(ctx, s.blobs, key)
		metrics.ObserveImageUpload("error")
		return nil, err
	}
	metrics.ObserveImageUpload("ok")
	return img, nil
}

func (s *ImageService) insert(ctx context.Context, img *model.ProductImage) error {
	tx, err := s.images.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if img.IsMain {
		if err := s.images.UnsetMainTx(ctx, tx, img.ProductID); err != nil {
			return err
		}
	}
	if err := s.images.CreateTx(ctx, tx, img); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update changes sort order and/or the main flag.
func (s *ImageService) Update(ctx context.Context, caller Caller, id uint64, in UpdateImageInput) (*model.ProductImage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	tx, err := s.images.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	img, err := s.images.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if in.SortOrder != nil {
		img.SortOrder = *in.SortOrder
	}
	if in.IsMain != nil {
		if *in.IsMain {
			if err := s.images.UnsetMainTx(ctx, tx, img.ProductID); err != nil {
				return nil, err
			}
		}
		img.IsMain = *in.IsMain
	}
	if err := s.images.UpdateTx(ctx, tx, *img); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return img, nil
}

// SetMain makes the image its product's only main image: clear the flag on
// all of the product's images, then set it on the target, in one
// transaction. Nothing is retried on failure.
func (s *ImageService) SetMain(ctx context.Context, caller Caller, id uint64) (*model.ProductImage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	tx, err := s.images.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	img, err := s.images.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.images.UnsetMainTx(ctx, tx, img.ProductID); err != nil {
		return nil, err
	}
	if err := s.images.SetMainTx(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	img.IsMain = true
	return img, nil
}

// Delete removes the metadata row, then the file on a best-effort basis.
func (s *ImageService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}
	discardBlob(ctx, s.blobs, blob.ProductKey(img.ProductID, img.FileName))
	return nil
}

// DeleteAllForProduct removes every image of a product and returns how
// many metadata rows were deleted.
func (s *ImageService) DeleteAllForProduct(ctx context.Context, caller Caller, productID uint64) (int64, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repository.ErrProductNotFound
	}
	images, err := s.images.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	n, err := s.images.DeleteByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	for _, img := range images {
		discardBlob(ctx, s.blobs, blob.ProductKey(img.ProductID, img.FileName))
	}
	return n, nil
}
