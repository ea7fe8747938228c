// Package httpapi exposes the payment endpoints, the websocket relay, and
// the operational surface over one router.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthapp/hearth/internal/payments"
)

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Server routes payment and relay traffic.
type Server struct {
	payments *payments.Service
	hub      http.Handler
	logger   *slog.Logger
	cfg      ServerConfig
	router   chi.Router
	now      func() time.Time
}

// NewServer assembles the router. hub may be nil to disable /ws.
func NewServer(svc *payments.Service, hub http.Handler, logger *slog.Logger, cfg ServerConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		payments: svc,
		hub:      hub,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/mpesa/deposit", s.handleMpesaDeposit)
		r.Post("/mpesa/withdraw", s.handleMpesaWithdraw)
		r.Post("/card/deposit", s.handleCardDeposit)
		r.Post("/mpesa/callback", s.handleMpesaCallback)
		r.Get("/mpesa/status/{reference}", s.handleMpesaStatus)
	})
	if hub != nil {
		r.Handle("/ws", hub)
	}
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": s.now().UTC().Format(time.RFC3339),
	})
}

type depositRequest struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
}

func (s *Server) handleMpesaDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	result, err := s.payments.Deposit(r.Context(), req.Amount, req.Phone)
	if err != nil {
		s.writePaymentError(w, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type withdrawRequest struct {
	Amount      float64 `json:"amount"`
	Phone       string  `json:"phone"`
	KidID       string  `json:"kidId,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (s *Server) handleMpesaWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	result, err := s.payments.Withdraw(r.Context(), req.Amount, req.Phone)
	if err != nil {
		s.writePaymentError(w, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cardDepositRequest struct {
	Amount float64 `json:"amount"`
	KidID  string  `json:"kidId,omitempty"`
	Name   string  `json:"name,omitempty"`
}

func (s *Server) handleCardDeposit(w http.ResponseWriter, r *http.Request) {
	var req cardDepositRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	result, err := s.payments.CardDeposit(r.Context(), req.Amount)
	if err != nil {
		s.writePaymentError(w, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMpesaCallback ingests the provider's asynchronous result. Anything
// structurally valid is acknowledged with the provider's expected ack body,
// even when the referenced intent is already terminal; failing to ack makes
// the provider retry.
func (s *Server) handleMpesaCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable callback body")
		return
	}
	if err := validateCallback(body); err != nil {
		s.logger.Warn("rejecting malformed mpesa callback", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}
	var env payments.CallbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}
	if err := s.payments.Callback(r.Context(), env); err != nil {
		if errors.Is(err, payments.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Invalid callback payload")
			return
		}
		s.logger.Error("mpesa callback failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Callback error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}

func (s *Server) handleMpesaStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	result, err := s.payments.Status(r.Context(), reference)
	if err != nil {
		s.logger.Error("status lookup failed", "reference", reference, "error", err)
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBody parses a JSON request body, reporting 400 on garbage.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// writePaymentError maps service failures: provider rejections and
// validation problems are the client's 400, everything else is a 500.
func (s *Server) writePaymentError(w http.ResponseWriter, result payments.Result, err error) {
	var provErr *payments.ProviderError
	if errors.As(err, &provErr) {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	if errors.Is(err, payments.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("payment request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, payments.Result{
		Status: payments.StatusFailed,
		Error:  err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
