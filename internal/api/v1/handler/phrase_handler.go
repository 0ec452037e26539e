package handler

import (
	"net/http"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/middleware"
	"fluentphrases/internal/model"
	"fluentphrases/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type PhraseHandler struct {
	entitlements service.EntitlementService
	errorResponder
}

func NewPhraseHandler(entitlements service.EntitlementService, logger zerolog.Logger, development bool) *PhraseHandler {
	return &PhraseHandler{
		entitlements:   entitlements,
		errorResponder: errorResponder{logger: logger.With().Str("handler", "PhraseHandler").Logger(), development: development},
	}
}

func (h *PhraseHandler) RegisterRoutes(r chi.Router, auth *middleware.Authenticator) {
	r.Method(http.MethodGet, "/phrases", auth.Require(h.List))
	r.Method(http.MethodPost, "/phrases/increment", auth.Require(h.Increment))
}

// List godoc
// @Summary List phrases visible to the caller
// @Description Free accounts only see the free categories. The daily counter is reset on the first request of a new day.
// @Tags phrases
// @Produce json
// @Security BearerAuth
// @Param language query string false "Language code"
// @Param category query string false "Category name"
// @Success 200 {object} dto.PhrasesResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /phrases [get]
func (h *PhraseHandler) List(w http.ResponseWriter, r *http.Request, u *model.User) {
	q := r.URL.Query()
	phrases, info, err := h.entitlements.QueryPhrases(r.Context(), u, q.Get("language"), q.Get("category"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := dto.PhrasesResponse{
		Phrases: make([]dto.PhraseResponse, 0, len(phrases)),
		UserInfo: dto.UsageInfoResponse{
			Role:              string(info.Role),
			DailyPhrasesCount: info.DailyPhrasesCount,
			DailyLimit:        info.DailyLimit,
		},
	}
	for _, p := range phrases {
		resp.Phrases = append(resp.Phrases, dto.PhraseResponse{
			ID:          p.ID,
			Language:    p.Language,
			Category:    p.Category,
			Text:        p.Text,
			Translation: p.Translation,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Increment godoc
// @Summary Count one viewed phrase
// @Description Increments today's counter for free accounts. Other roles get their stored value back unchanged.
// @Tags phrases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.IncrementResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /phrases/increment [post]
func (h *PhraseHandler) Increment(w http.ResponseWriter, r *http.Request, u *model.User) {
	count, err := h.entitlements.IncrementUsage(r.Context(), u)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.IncrementResponse{DailyPhrasesCount: count})
}
