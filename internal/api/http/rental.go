package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/service"
)

type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type createRentalRequest struct {
	ProductID        string    `json:"product_id"`
	AnticipatedStart time.Time `json:"anticipated_start"`
	Days             int32     `json:"days"`
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "product_id is required")
		return
	}

	rental, err := h.rentals.CreateRental(r.Context(), claims.UserID, req.ProductID, req.AnticipatedStart, req.Days)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rental)
}

type confirmRequest struct {
	Approved bool `json:"approved"`
}

func (h *RentalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	rental, err := h.rentals.ConfirmRental(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Approved)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

type rescheduleRequest struct {
	NewStart time.Time `json:"new_start"`
	NewDays  int32     `json:"new_days"`
}

func (h *RentalHandler) RequestReschedule(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	rental, err := h.rentals.RequestReschedule(r.Context(), claims.UserID, mux.Vars(r)["id"], req.NewStart, req.NewDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) ConfirmReschedule(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	rental, err := h.rentals.ConfirmReschedule(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Approved)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	rental, err := h.rentals.CancelRental(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	rental, err := h.rentals.GetRental(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rental)
}

type rentalListResponse struct {
	Rentals []domain.Rental `json:"rentals"`
	Total   int32           `json:"total"`
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	page, pageSize := pagination(r)
	status := domain.RentalStatus(r.URL.Query().Get("status"))

	rentals, total, err := h.rentals.ListRentals(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rentalListResponse{Rentals: rentals, Total: total})
}

func (h *RentalHandler) ListLendings(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	page, pageSize := pagination(r)
	status := domain.RentalStatus(r.URL.Query().Get("status"))

	rentals, total, err := h.rentals.ListLendings(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rentalListResponse{Rentals: rentals, Total: total})
}

// pagination reads page and page_size query parameters with sane defaults.
func pagination(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
