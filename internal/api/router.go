package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handler's routes. A nil throttle disables request throttling.
func NewRouter(h *Handler, throttle *Throttle) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	if throttle != nil {
		apiV1.Use(throttle.Middleware)
	}
	apiV1.HandleFunc("/users", h.RegisterUser).Methods("POST")
	apiV1.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	apiV1.HandleFunc("/referrals", h.InitiateReferral).Methods("POST")
	apiV1.HandleFunc("/referrals/{vendorId}", h.GetReferral).Methods("GET")
	apiV1.HandleFunc("/referrals/{vendorId}/registration", h.CompleteVendorRegistration).Methods("POST")
	apiV1.HandleFunc("/wallets/{id}", h.GetWallet).Methods("GET")
	apiV1.HandleFunc("/withdrawals", h.Withdraw).Methods("POST")
	apiV1.HandleFunc("/sweeps", h.RunSweep).Methods("POST")
	return r
}
