package handlers

import (
	"net/http"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
)

// listItems handles GET /items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Items(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load items")
		return
	}
	if items == nil {
		items = models.Catalog{}
	}
	writeJSON(w, http.StatusOK, items)
}

// listTransactions handles GET /transactions.
func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.svc.Transactions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load transactions")
		return
	}
	if ledger == nil {
		ledger = models.Ledger{}
	}
	writeJSON(w, http.StatusOK, ledger)
}

// listBank handles GET /bank.
func (h *Handler) listBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.svc.Bank(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load bank")
		return
	}
	if bank == nil {
		bank = models.Bank{}
	}
	writeJSON(w, http.StatusOK, bank)
}

// health handles GET /healthz.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
