package model

import "time"

// Product represents a marketplace listing
type Product struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Price       float64    `db:"price" json:"price"`
	ImageURL    string     `db:"image_url" json:"image_url"`
	ImageKey    string     `db:"image_key" json:"-"`
	OwnerID     string     `db:"owner_id" json:"owner_id"`
	OwnerName   string     `db:"owner_name" json:"owner_name"`
	WhatsApp    string     `db:"whatsapp" json:"whatsapp"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
