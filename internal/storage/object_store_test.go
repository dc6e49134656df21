package storage

import (
	"testing"
	"time"
)

func TestProductImageKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		filename string
		want     string
	}{
		{"foto.jpg", "productos/1700000000123_foto.jpg"},
		{"mi foto (1).png", "productos/1700000000123_mi_foto_1_.png"},
		{"../../etc/passwd", "productos/1700000000123_passwd"},
		{`C:\Users\ana\libro.jpeg`, "productos/1700000000123_libro.jpeg"},
		{"", "productos/1700000000123_image"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ProductImageKey(now, tt.filename); got != tt.want {
				t.Fatalf("ProductImageKey(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, bucket, key, want string
	}{
		{"https://cdn.example.com/", "marketplace", "productos/1_a.jpg", "https://cdn.example.com/marketplace/productos/1_a.jpg"},
		{"https://cdn.example.com/marketplace", "marketplace", "/productos/1_a.jpg", "https://cdn.example.com/marketplace/productos/1_a.jpg"},
		{"http://localhost:9000", "", "k", "http://localhost:9000/k"},
	}
	for _, tt := range tests {
		if got := publicURL(tt.base, tt.bucket, tt.key); got != tt.want {
			t.Fatalf("publicURL(%q, %q, %q) = %q, want %q", tt.base, tt.bucket, tt.key, got, tt.want)
		}
	}
}
