package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/service"
	"github.com/punchamoorthee/rewardledger/internal/store"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type userService interface {
	Register(ctx context.Context, req service.RegisterRequest) (domain.User, error)
	User(ctx context.Context, id string) (domain.User, error)
}

type referralService interface {
	Initiate(ctx context.Context, customerID, vendorName, vendorLocation string) (domain.Referral, error)
	Referral(ctx context.Context, vendorID string) (domain.Referral, error)
	CompleteRegistration(ctx context.Context, vendorID string, details map[string]string, agreementAccepted bool) (domain.Referral, error)
}

type withdrawalService interface {
	Withdraw(ctx context.Context, userID string, amount int64) (domain.WithdrawalResult, error)
}

type sweepService interface {
	RunSweep(ctx context.Context) domain.SweepReport
}

type walletReader interface {
	Wallet(userID string) domain.Wallet
}

// Services bundles the collaborators the HTTP layer dispatches to.
type Services struct {
	Users       userService
	Referrals   referralService
	Withdrawals withdrawalService
	Sweeps      sweepService
	Wallets     walletReader
	Idempotency *store.IdempotencyStore
}

type Handler struct {
	svc    Services
	logger *slog.Logger
}

func NewHandler(svc Services, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	Role    string            `json:"role"`
	Name    string            `json:"name"`
	Phone   string            `json:"phone"`
	Details map[string]string `json:"details,omitempty"`
}

type initiateReferralRequest struct {
	CustomerID     string `json:"customer_id"`
	VendorName     string `json:"vendor_name"`
	VendorLocation string `json:"vendor_location"`
}

type vendorRegistrationRequest struct {
	VendorDetails     map[string]string `json:"vendor_details"`
	AgreementAccepted bool              `json:"agreement_accepted"`
}

type withdrawRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/users"))
	defer timer.ObserveDuration()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/users")
		return
	}

	user, err := h.svc.Users.Register(r.Context(), service.RegisterRequest{
		Role:    domain.Role(req.Role),
		Name:    req.Name,
		Phone:   req.Phone,
		Details: req.Details,
	})
	if err != nil {
		h.respondServiceError(w, err, "POST", "/users")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{
		"id":      user.ID,
		"role":    string(user.Role),
		"message": string(user.Role) + " registered successfully",
	}, "POST", "/users")
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/users/{id}"))
	defer timer.ObserveDuration()

	user, err := h.svc.Users.User(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err, "GET", "/users/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, user, "GET", "/users/{id}")
}

func (h *Handler) InitiateReferral(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/referrals"))
	defer timer.ObserveDuration()

	var req initiateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/referrals")
		return
	}
	if req.CustomerID == "" {
		h.respondError(w, http.StatusUnprocessableEntity, "customer_id is required", "POST", "/referrals")
		return
	}

	ref, err := h.svc.Referrals.Initiate(r.Context(), req.CustomerID, req.VendorName, req.VendorLocation)
	if err != nil {
		h.respondServiceError(w, err, "POST", "/referrals")
		return
	}
	h.respondJSON(w, http.StatusCreated, ref, "POST", "/referrals")
}

func (h *Handler) GetReferral(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/referrals/{vendorId}"))
	defer timer.ObserveDuration()

	ref, err := h.svc.Referrals.Referral(r.Context(), mux.Vars(r)["vendorId"])
	if err != nil {
		h.respondServiceError(w, err, "GET", "/referrals/{vendorId}")
		return
	}
	h.respondJSON(w, http.StatusOK, ref, "GET", "/referrals/{vendorId}")
}

func (h *Handler) CompleteVendorRegistration(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/referrals/{vendorId}/registration"))
	defer timer.ObserveDuration()

	var req vendorRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/referrals/{vendorId}/registration")
		return
	}

	ref, err := h.svc.Referrals.CompleteRegistration(r.Context(), mux.Vars(r)["vendorId"], req.VendorDetails, req.AgreementAccepted)
	if err != nil {
		h.respondServiceError(w, err, "POST", "/referrals/{vendorId}/registration")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Vendor registered and both rewarded",
		"referral": ref,
	}, "POST", "/referrals/{vendorId}/registration")
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("GET", "/wallets/{id}"))
	defer timer.ObserveDuration()

	wallet := h.svc.Wallets.Wallet(mux.Vars(r)["id"])
	h.respondJSON(w, http.StatusOK, wallet, "GET", "/wallets/{id}")
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/withdrawals"))
	defer timer.ObserveDuration()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Stream read error", "POST", "/withdrawals")
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	var req withdrawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/withdrawals")
		return
	}
	if req.Amount <= 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "Amount must be positive", "POST", "/withdrawals")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		hash := sha256.Sum256(body)
		existing, err := h.svc.Idempotency.Reserve(idemKey, hex.EncodeToString(hash[:]))
		if err != nil {
			h.respondServiceError(w, err, "POST", "/withdrawals")
			return
		}
		if existing != nil {
			httpReqTotal.WithLabelValues("POST", "/withdrawals", strconv.Itoa(existing.ResponseStatus)).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(existing.ResponseStatus)
			w.Write(existing.ResponseBody)
			return
		}
	}

	res, err := h.svc.Withdrawals.Withdraw(r.Context(), req.UserID, req.Amount)
	if err != nil {
		if idemKey != "" {
			h.svc.Idempotency.Release(idemKey)
		}
		h.respondServiceError(w, err, "POST", "/withdrawals")
		return
	}

	payload := map[string]any{
		"message":           "Withdraw successful",
		"balance":           res.Balance,
		"amount":            res.Amount,
		"withdrawals_today": res.WithdrawalsToday,
		"processed_at":      res.ProcessedAt,
	}
	if idemKey != "" {
		respBody, err := json.Marshal(payload)
		if err != nil {
			h.svc.Idempotency.Release(idemKey)
			h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/withdrawals")
			return
		}
		h.svc.Idempotency.Complete(idemKey, http.StatusOK, respBody)
	}
	h.respondJSON(w, http.StatusOK, payload, "POST", "/withdrawals")
}

func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/sweeps"))
	defer timer.ObserveDuration()

	report := h.svc.Sweeps.RunSweep(r.Context())
	h.respondJSON(w, http.StatusOK, report, "POST", "/sweeps")
}

// Helpers
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("endpoint", endpoint), slog.Any("error", err))
	}
	h.respondError(w, code, msg, method, endpoint)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusForbidden, "Withdraw limit reached"
	case errors.Is(err, domain.ErrBelowMinimum):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, "Insufficient balance"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "Request in progress"
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return http.StatusUnprocessableEntity, "Key reuse mismatch"
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Amount must be positive"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
