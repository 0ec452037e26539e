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

type ReadingHandler struct {
	readings service.ReadingService
	errorResponder
}

func NewReadingHandler(readings service.ReadingService, logger zerolog.Logger, development bool) *ReadingHandler {
	return &ReadingHandler{
		readings:       readings,
		errorResponder: errorResponder{logger: logger.With().Str("handler", "ReadingHandler").Logger(), development: development},
	}
}

func (h *ReadingHandler) RegisterRoutes(r chi.Router, auth *middleware.Authenticator) {
	r.Method(http.MethodGet, "/readings", auth.Require(h.List))
}

// List godoc
// @Summary List readings
// @Tags readings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ReadingResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /readings [get]
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request, _ *model.User) {
	readings, err := h.readings.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := make([]dto.ReadingResponse, 0, len(readings))
	for _, rd := range readings {
		resp = append(resp, dto.ReadingResponse{
			ID:       rd.ID,
			Language: rd.Language,
			Title:    rd.Title,
			Content:  rd.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
