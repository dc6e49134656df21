package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
	"campusportal/internal/model"
	"campusportal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxImageSize bounds the multipart image of a listing.
const maxImageSize = 5 << 20

// ProductHandler handles marketplace listings
type ProductHandler struct {
	productService service.ProductService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewProductHandler(productService service.ProductService, validate *validator.Validate, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, validate: validate, logger: logger}
}

// RegisterRoutes mounts product routes. Browsing is public; ?mine=1 and
// every write need a token.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	listMine := authMw(http.HandlerFunc(h.listMyProducts))
	create := authMw(http.HandlerFunc(h.createProduct))
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("mine") != "":
			listMine.ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			h.listProducts(w, r)
		case r.Method == http.MethodPost:
			create.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	update := authMw(http.HandlerFunc(h.updateProduct))
	remove := authMw(http.HandlerFunc(h.deleteProduct))
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/products/")
		if len(parts) != 1 {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.getProduct(w, r, parts[0])
		case http.MethodPut:
			update.ServeHTTP(w, r)
		case http.MethodDelete:
			remove.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// listProducts godoc
// @Summary List marketplace products, newest first
// @Tags products
// @Produce json
// @Param mine query string false "Set to list only the caller's products (requires auth)"
// @Success 200 {array} model.Product
// @Router /products [get]
func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "List products")
		return
	}
	writeJSON(w, http.StatusOK, nonNilProducts(products))
}

func (h *ProductHandler) listMyProducts(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())
	products, err := h.productService.ListMyProducts(r.Context(), caller)
	if err != nil {
		writeServiceError(w, h.logger, err, "List my products")
		return
	}
	writeJSON(w, http.StatusOK, nonNilProducts(products))
}

func (h *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request, productID string) {
	p, err := h.productService.GetProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Get product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// createProduct godoc
// @Summary Publish a product
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param price formData number true "Price"
// @Param whatsapp formData string false "Contact number"
// @Param image formData file false "Product image"
// @Success 201 {object} model.Product
// @Failure 400 {string} string "Invalid form or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Router /products [post]
func (h *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())
	in, img, cleanup, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer cleanup()
	p, err := h.productService.CreateProduct(r.Context(), caller, in, img)
	if err != nil {
		writeServiceError(w, h.logger, err, "Create product")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// updateProduct godoc
// @Summary Update a product
// @Description Only the owner may update. A new image replaces the old one.
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /products/{productId} [put]
func (h *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/products/")
	caller, _ := middleware.IdentityFromContext(r.Context())
	in, img, cleanup, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer cleanup()
	p, err := h.productService.UpdateProduct(r.Context(), caller, parts[0], in, img)
	if err != nil {
		writeServiceError(w, h.logger, err, "Update product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/products/")
	caller, _ := middleware.IdentityFromContext(r.Context())
	if err := h.productService.DeleteProduct(r.Context(), caller, parts[0]); err != nil {
		writeServiceError(w, h.logger, err, "Delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseForm reads the listing fields and the optional image. On failure it
// has already written the response.
func (h *ProductHandler) parseForm(w http.ResponseWriter, r *http.Request) (service.ProductInput, *service.Image, func(), bool) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return service.ProductInput{}, nil, noop, false
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	form := dto.ProductFormDTO{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		WhatsApp:    r.FormValue("whatsapp"),
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			cleanup()
			http.Error(w, "Invalid price: "+err.Error(), http.StatusBadRequest)
			return service.ProductInput{}, nil, noop, false
		}
		form.Price = price
	}
	if err := h.validate.Struct(&form); err != nil {
		cleanup()
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return service.ProductInput{}, nil, noop, false
	}

	img, file, err := formImage(r)
	if err != nil {
		cleanup()
		http.Error(w, "Invalid image: "+err.Error(), http.StatusBadRequest)
		return service.ProductInput{}, nil, noop, false
	}
	if file != nil {
		removeForm := cleanup
		cleanup = func() {
			file.Close()
			removeForm()
		}
	}
	in := service.ProductInput{
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
		WhatsApp:    form.WhatsApp,
	}
	return in, img, cleanup, true
}

func formImage(r *http.Request) (*service.Image, multipart.File, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if header.Size > maxImageSize {
		file.Close()
		return nil, nil, errors.New("image larger than 5MB")
	}
	img := &service.Image{
		Filename:    header.Filename,
		ContentType: contentType(header),
		Size:        header.Size,
		Body:        file,
	}
	return img, file, nil
}

func contentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func nonNilProducts(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	return products
}
