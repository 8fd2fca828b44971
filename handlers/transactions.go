package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/coordinator"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "X-Idempotent-Replay"
)

type purchaseRequest struct {
	CardID     string            `json:"credit_card_id" validate:"required"`
	CardNumber string            `json:"credit_card_number" validate:"required"`
	Items      []models.CartItem `json:"items" validate:"required,dive"`
	Total      *decimal.Decimal  `json:"total" validate:"required"`
}

type refundRequest struct {
	TransactionID *int64 `json:"transaction_id" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// purchase handles POST /transactions.
//
// The supplied total is what the card is charged. Retrying with the same
// Idempotency-Key returns the first result with X-Idempotent-Replay: true.
func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var body purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, models.KindMalformedRequest, "Invalid transaction data")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, models.KindMalformedRequest, "Invalid transaction data")
		return
	}

	res, err := h.svc.Purchase(r.Context(), coordinator.PurchaseInput{
		CardID:         body.CardID,
		CardNumber:     body.CardNumber,
		Items:          body.Items,
		Total:          *body.Total,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to save updated data")
		return
	}

	if res.Replayed {
		w.Header().Set(replayHeader, "true")
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", ID: res.ID})
}

// refund handles POST /transactions/refund.
func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var body refundRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, models.KindMalformedRequest, "Invalid refund data")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, models.KindMalformedRequest, "Missing transaction_id")
		return
	}

	res, err := h.svc.Refund(r.Context(), *body.TransactionID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to save refund")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "refund_success", ID: res.ID})
}
