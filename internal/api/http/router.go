package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"peerrent-backend/internal/security"
	"peerrent-backend/internal/service"
)

// NewRouter wires up all HTTP routes. Everything under /api/v1 except
// signup and login requires a valid access token.
func NewRouter(
	auth service.AuthService,
	products service.ProductService,
	rentals service.RentalService,
	tokens security.TokenManager,
) *mux.Router {
	authHandler := NewAuthHandler(auth)
	productHandler := NewProductHandler(products)
	rentalHandler := NewRentalHandler(rentals)

	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(AuthMiddleware(tokens))

	protected.HandleFunc("/me/payment-method", authHandler.UpdatePaymentMethod).Methods(http.MethodPut)

	protected.HandleFunc("/products", productHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/products", productHandler.List).Methods(http.MethodGet)
	// Registered before /products/{id} so "mine" is not captured as an id.
	protected.HandleFunc("/products/mine", productHandler.ListMine).Methods(http.MethodGet)
	protected.HandleFunc("/products/{id}", productHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/products/{id}", productHandler.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/rentals", rentalHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/rentals", rentalHandler.ListRentals).Methods(http.MethodGet)
	protected.HandleFunc("/lendings", rentalHandler.ListLendings).Methods(http.MethodGet)
	protected.HandleFunc("/rentals/{id}", rentalHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/rentals/{id}/confirm", rentalHandler.Confirm).Methods(http.MethodPost)
	protected.HandleFunc("/rentals/{id}/reschedule", rentalHandler.RequestReschedule).Methods(http.MethodPost)
	protected.HandleFunc("/rentals/{id}/reschedule/confirm", rentalHandler.ConfirmReschedule).Methods(http.MethodPost)
	protected.HandleFunc("/rentals/{id}/cancel", rentalHandler.Cancel).Methods(http.MethodPost)

	return r
}
