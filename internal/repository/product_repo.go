package repository

import (
	"context"
	"fmt"

	"campusportal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository defines the interface for marketplace listings.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsByOwner(ctx context.Context, ownerID string) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	// UpdateProduct overwrites the editable fields and stamps updated_at.
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

type productRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) ProductRepository {
	return &productRepo{pool: pool}
}

const productColumns = `id::text AS id, title, description, price::float8 AS price, image_url, image_key,
	owner_id, owner_name, whatsapp, created_at, updated_at`

func (r *productRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *productRepo) ListProductsByOwner(ctx context.Context, ownerID string) ([]model.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *productRepo) list(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return products, nil
}

func (r *productRepo) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", productID, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", productID, err)
	}
	return p, nil
}

func (r *productRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	const q = `
		INSERT INTO products (title, description, price, image_url, image_key, owner_id, owner_name, whatsapp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at
	`
	if err := r.pool.QueryRow(ctx, q, p.Title, p.Description, p.Price, p.ImageURL, p.ImageKey, p.OwnerID, p.OwnerName, p.WhatsApp).
		Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *productRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	const q = `
		UPDATE products
		SET title = $1, description = $2, price = $3, image_url = $4, image_key = $5, whatsapp = $6, updated_at = NOW()
		WHERE id::text = $7
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, q, p.Title, p.Description, p.Price, p.ImageURL, p.ImageKey, p.WhatsApp, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("updating product %s: %w", p.ID, err)
	}
	return nil
}

func (r *productRepo) DeleteProduct(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, productID)
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting product %s: %w", productID, pgx.ErrNoRows)
	}
	return nil
}
