package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"github.com/fjod/go_cart/product-api/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgServerError     = "Server error"
	msgProductNotFound = "Product not found"

	maxRequestBodySize = 1 << 20 // 1MB
)

// ProductStore is the data store contract the handler depends on.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)
}

type ProductHandler struct {
	store  ProductStore
	logger *slog.Logger
}

func NewProductHandler(store ProductStore, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		store:  store,
		logger: logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(w, r)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}

	product, err := h.store.CreateProduct(r.Context(), in)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(w, r)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), chi.URLParam(r, "productId"), in)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.DeleteProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// decodeProductInput reads the JSON body. An empty body decodes to an input
// with every field absent and is left for the store to reject.
func decodeProductInput(w http.ResponseWriter, r *http.Request) (domain.ProductInput, error) {
	var in domain.ProductInput
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return domain.ProductInput{}, err
	}
	return in, nil
}

// handleStoreError maps NotFound to 404 and collapses everything else into a
// fixed 500 body. The detail only goes to the log.
func (h *ProductHandler) handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrProductNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: msgProductNotFound})
		return
	}

	h.logger.Error("product request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err)
	respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgServerError})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
