package handlers

import (
	"net/http"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/metrics"
)

// RouterConfig controls the outer layers of the router.
type RouterConfig struct {
	CORSOrigin string
	// Metrics, when set, counts requests. /metrics is served only if
	// ExposeMetrics is also true.
	Metrics       *metrics.Registry
	ExposeMetrics bool
}

// Routes registers every POS endpoint on a new mux and wraps it with
// request id, access log and CORS middleware.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items", h.listItems)
	mux.HandleFunc("GET /transactions", h.listTransactions)
	mux.HandleFunc("GET /bank", h.listBank)
	mux.HandleFunc("POST /transactions", h.purchase)
	mux.HandleFunc("POST /transactions/refund", h.refund)
	mux.HandleFunc("GET /healthz", h.health)
	if cfg.Metrics != nil && cfg.ExposeMetrics {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return withRequestID(withAccessLog(h.logger, cfg.Metrics, withCORS(origin, mux)))
}
