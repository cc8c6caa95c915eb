package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/service"
)

type ProductHandler struct {
	products service.ProductService
}

func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type createProductRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	PricePerDayCents     int64  `json:"price_per_day_cents"`
	SecurityDepositCents int64  `json:"security_deposit_cents"`
	CooldownHours        int32  `json:"cooldown_hours"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), claims.UserID, &domain.Product{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		PricePerDayCents:     req.PricePerDayCents,
		SecurityDepositCents: req.SecurityDepositCents,
		CooldownHours:        req.CooldownHours,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type productListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int32            `json:"total"`
}

// List is the catalog renters browse. Supports ?search= (name substring),
// ?category= and the standard pagination params.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := r.URL.Query()

	products, total, err := h.products.ListProducts(r.Context(), q.Get("search"), q.Get("category"), page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, productListResponse{Products: products, Total: total})
}

func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	page, pageSize := pagination(r)

	products, total, err := h.products.ListMyProducts(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, productListResponse{Products: products, Total: total})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if err := h.products.DeleteProduct(r.Context(), claims.UserID, mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
