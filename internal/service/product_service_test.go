package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusportal/internal/model"

	"github.com/rs/zerolog"
)

func newTestProductService() (*productService, *fakeProductRepo, *fakeObjectStore) {
	repo := newFakeProductRepo()
	store := newFakeObjectStore()
	svc := NewProductService(repo, store, zerolog.Nop()).(*productService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, repo, store
}

func image(name, body string) *Image {
	return &Image{Filename: name, ContentType: "image/jpeg", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestProductServiceCreateWithImage(t *testing.T) {
	svc, _, store := newTestProductService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ana, ProductInput{Title: " Libro ", Price: 350}, image("foto.jpg", "jpeg"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ImageKey != "productos/1700000000000_foto.jpg" {
		t.Fatalf("unexpected image key %q", p.ImageKey)
	}
	if p.ImageURL != "https://cdn.test/marketplace/productos/1700000000000_foto.jpg" {
		t.Fatalf("unexpected image url %q", p.ImageURL)
	}
	if string(store.objects[p.ImageKey]) != "jpeg" {
		t.Fatal("expected image to be uploaded")
	}
	if p.Title != "Libro" || p.OwnerID != "u1" || p.OwnerName != "Ana" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestProductServiceCreateValidation(t *testing.T) {
	svc, _, _ := newTestProductService()
	ctx := context.Background()
	tests := []struct {
		name   string
		caller model.Identity
		in     ProductInput
		img    *Image
		want   error
	}{
		{"anonymous", model.Identity{}, ProductInput{Title: "x"}, nil, ErrUnauthorized},
		{"no title", ana, ProductInput{Title: " "}, nil, ErrInvalidInput},
		{"negative price", ana, ProductInput{Title: "x", Price: -1}, nil, ErrInvalidInput},
		{"not an image", ana, ProductInput{Title: "x"}, &Image{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("")}, ErrInvalidInput},
		{"free listing", ana, ProductInput{Title: "x", Price: 0}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.caller, tt.in, tt.img)
			if tt.want == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProductServiceCreateCleansUpImageOnFailure(t *testing.T) {
	svc, repo, store := newTestProductService()
	repo.failNext = errors.New("db down")
	if _, err := svc.CreateProduct(context.Background(), ana, ProductInput{Title: "x"}, image("a.jpg", "b")); err == nil {
		t.Fatal("expected create to fail")
	}
	if len(store.objects) != 0 || len(store.deleted) != 1 {
		t.Fatalf("expected orphan image to be deleted, objects=%v deleted=%v", store.objects, store.deleted)
	}
}

func TestProductServiceUpdateOwnerOnly(t *testing.T) {
	svc, _, store := newTestProductService()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, ana, ProductInput{Title: "Libro", Price: 10}, image("a.jpg", "old"))
	oldKey := p.ImageKey

	if _, err := svc.UpdateProduct(ctx, luis, p.ID, ProductInput{Title: "Mío"}, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateProduct(ctx, ana, "missing", ProductInput{Title: "x"}, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	svc.now = func() time.Time { return time.UnixMilli(1700000005000) }
	updated, err := svc.UpdateProduct(ctx, ana, p.ID, ProductInput{Title: "Libro usado", Price: 8}, image("b.jpg", "new"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 8 || updated.UpdatedAt == nil || updated.ImageKey == oldKey {
		t.Fatalf("unexpected product after update: %+v", updated)
	}
	if _, ok := store.objects[oldKey]; ok {
		t.Fatal("expected the replaced image to be deleted")
	}

	// no new image keeps the current one
	kept, err := svc.UpdateProduct(ctx, ana, p.ID, ProductInput{Title: "Libro usado", Price: 7}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if kept.ImageKey != updated.ImageKey {
		t.Fatal("expected image to be kept")
	}
}

func TestProductServiceDelete(t *testing.T) {
	svc, _, store := newTestProductService()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, ana, ProductInput{Title: "Libro"}, image("a.jpg", "x"))

	if err := svc.DeleteProduct(ctx, luis, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteProduct(ctx, ana, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatal("expected image removed with the product")
	}
	mine, err := svc.ListMyProducts(ctx, ana)
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected no products left, got %v, %v", mine, err)
	}
}
