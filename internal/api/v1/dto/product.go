package dto

// ProductFormDTO is decoded from the multipart form of create and update requests
type ProductFormDTO struct {
	Title       string  `validate:"required,max=120"`
	Description string  `validate:"max=2000"`
	Price       float64 `validate:"gte=0"`
	WhatsApp    string  `validate:"max=30"`
}
