package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/pricing"
	"github.com/fekuna/repairshop-service/internal/pricing/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	uc     pricing.UseCase
	logger logger.ZapLogger
}

func NewHTTPHandler(uc pricing.UseCase, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{uc: uc, logger: log}
}

// Routes mounts under /api/pricing.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/categories", h.listCategories)
	r.Get("/quote", h.quote)
	return r
}

func (h *HTTPHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"categories": h.uc.ListCategories(r.Context())})
}

func (h *HTTPHandler) quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := &dto.QuoteInput{
		Category: q.Get("category"),
		Model:    q.Get("model"),
		Lang:     q.Get("lang"),
	}
	if input.Lang == "" {
		input.Lang = r.Header.Get("Accept-Language")
	}
	if input.Category == "" {
		h.writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	quote, err := h.uc.Quote(r.Context(), input)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownCategory) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("quote failed", zap.String("category", input.Category), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"error": msg})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
