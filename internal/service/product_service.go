package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"campusportal/internal/model"
	"campusportal/internal/repository"
	"campusportal/internal/storage"

	"github.com/rs/zerolog"
)

// ProductInput holds the editable fields of a listing.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	WhatsApp    string
}

// Image is an optional upload accompanying a create or update.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProductService defines marketplace operations. Updates and deletes are owner-only.
type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListMyProducts(ctx context.Context, caller model.Identity) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateProduct(ctx context.Context, caller model.Identity, in ProductInput, img *Image) (*model.Product, error)
	UpdateProduct(ctx context.Context, caller model.Identity, productID string, in ProductInput, img *Image) (*model.Product, error)
	DeleteProduct(ctx context.Context, caller model.Identity, productID string) error
}

type productService struct {
	repo   repository.ProductRepository
	store  storage.ObjectStore
	now    func() time.Time
	logger zerolog.Logger
}

func NewProductService(repo repository.ProductRepository, store storage.ObjectStore, logger zerolog.Logger) ProductService {
	return &productService{
		repo:   repo,
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("service", "ProductService").Logger(),
	}
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) ListMyProducts(ctx context.Context, caller model.Identity) ([]model.Product, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	products, err := s.repo.ListProductsByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

func (s *productService) CreateProduct(ctx context.Context, caller model.Identity, in ProductInput, img *Image) (*model.Product, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateProduct(&in); err != nil {
		return nil, err
	}
	p := &model.Product{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		WhatsApp:    in.WhatsApp,
		OwnerID:     caller.UserID,
		OwnerName:   caller.Name(),
	}
	if img != nil {
		key, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		p.ImageKey = key
		p.ImageURL = s.store.PublicURL(key)
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("Failed to create product")
		s.removeImage(ctx, p.ImageKey)
		return nil, err
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, caller model.Identity, productID string, in ProductInput, img *Image) (*model.Product, error) {
	p, err := s.owned(ctx, caller, productID)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(&in); err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.WhatsApp = in.WhatsApp

	oldKey := ""
	if img != nil {
		key, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		oldKey = p.ImageKey
		p.ImageKey = key
		p.ImageURL = s.store.PublicURL(key)
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("Failed to update product")
		if img != nil {
			s.removeImage(ctx, p.ImageKey)
		}
		return nil, mapNotFound(err)
	}
	s.removeImage(ctx, oldKey)
	return p, nil
}

func (s *productService) DeleteProduct(ctx context.Context, caller model.Identity, productID string) error {
	p, err := s.owned(ctx, caller, productID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return mapNotFound(err)
	}
	s.removeImage(ctx, p.ImageKey)
	return nil
}

func (s *productService) owned(ctx context.Context, caller model.Identity, productID string) (*model.Product, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != caller.UserID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *productService) upload(ctx context.Context, img *Image) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("image uploads are not configured: %w", ErrInvalidInput)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", fmt.Errorf("file is not an image: %w", ErrInvalidInput)
	}
	key := storage.ProductImageKey(s.now(), img.Filename)
	if err := s.store.Upload(ctx, key, img.Body, img.Size, img.ContentType); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload product image")
		return "", err
	}
	return key, nil
}

// removeImage is best effort; a leftover object is only logged.
func (s *productService) removeImage(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete product image")
	}
}

func validateProduct(in *ProductInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.WhatsApp = strings.TrimSpace(in.WhatsApp)
	if in.Title == "" {
		return fmt.Errorf("product title is required: %w", ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("product price must not be negative: %w", ErrInvalidInput)
	}
	return nil
}
