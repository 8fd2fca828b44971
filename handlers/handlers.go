// Package handlers provides the HTTP surface of the POS server.
//
//   - GET  /items: catalog, in stored order.
//   - GET  /transactions: ledger, ascending id.
//   - GET  /bank: card id to account.
//   - POST /transactions: purchase. An optional Idempotency-Key header makes
//     retries return the original transaction id instead of charging again.
//   - POST /transactions/refund: refund a transaction once.
//
// Reads never wait for purchases or refunds in flight; they return the last
// committed state.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/coordinator"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

// Service is what the handlers need from the coordinator.
type Service interface {
	Purchase(ctx context.Context, in coordinator.PurchaseInput) (coordinator.PurchaseResult, error)
	Refund(ctx context.Context, transactionID int64) (coordinator.RefundResult, error)
	Items(ctx context.Context) (models.Catalog, error)
	Transactions(ctx context.Context) (models.Ledger, error)
	Bank(ctx context.Context) (models.Bank, error)
}

// Handler holds the dependencies for all POS HTTP handlers.
type Handler struct {
	svc      Service
	logger   *zap.Logger
	validate *validator.Validate
}

// New creates a new Handler backed by svc.
func New(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code models.Kind, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: string(code)})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind models.Kind) int {
	switch kind {
	case models.KindTransactionNotFound:
		return http.StatusNotFound
	case models.KindIdempotencyConflict:
		return http.StatusConflict
	case models.KindPersistenceFailure, models.KindMalformedStore, "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeServiceError reports err from the coordinator. Server-side failures
// are reported with internalMsg rather than their cause.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, models.KindCanceled, "request cancelled")
		return
	}
	kind := models.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		if kind == "" {
			kind = models.KindPersistenceFailure
		}
		writeError(w, status, kind, internalMsg)
		return
	}
	writeError(w, status, kind, models.Message(err))
}
