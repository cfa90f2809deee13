package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/models"
	"github.com/alim08/fin_folio/pkg/validation"
)

const maxBodyBytes = 1 << 20

// QuoteService is satisfied by *batch.Service.
type QuoteService interface {
	Quotes(ctx context.Context, symbols []string) []models.MarketQuote
	Quote(ctx context.Context, symbol string, exchange models.Exchange) models.MarketQuote
}

type Server struct {
	quotes QuoteService
	now    func() time.Time
}

func NewServer(quotes QuoteService) *Server {
	return &Server{quotes: quotes, now: time.Now}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type batchRequest struct {
	Symbols []string `json:"symbols" validate:"required"`
}

// Routes builds the full handler chain.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/stocks/batch", s.batchHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/stock/{symbol}", s.stockHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(s.notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.notFoundHandler)

	// CORS and recovery wrap the router so preflights and unmatched routes get them too.
	return loggingMiddleware(corsMiddleware(recoveryMiddleware(r)))
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("JSON encoding error", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Portfolio Dashboard API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "/api/health",
			"singleStock": "/api/stock/:symbol",
			"batchStocks": "/api/stocks/batch (POST)",
		},
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(models.TimestampLayout),
		"service":   "Portfolio Backend API",
	})
}

// batchHandler returns one quote per requested symbol, in request order.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := validation.ValidateStruct(req); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Fetches run to completion even if the caller goes away; results land in the cache.
	quotes := s.quotes.Quotes(context.WithoutCancel(r.Context()), req.Symbols)
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) stockHandler(w http.ResponseWriter, r *http.Request) {
	symbol := validation.NormalizeSymbol(mux.Vars(r)["symbol"])
	if !validation.IsTicker(symbol) {
		writeError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}

	var exchange models.Exchange
	if v := r.URL.Query().Get("exchange"); v != "" {
		exchange = models.ParseExchange(v)
	}
	writeJSON(w, http.StatusOK, s.quotes.Quote(context.WithoutCancel(r.Context()), symbol, exchange))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
