package handler

import (
	"encoding/json"
	"net/http"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DLQHandler receives pushes from the reset-email dead-letter subscription.
type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l.With().Str("handler", "DLQHandler").Logger()}
}

func (h *DLQHandler) RegisterRoutes(r chi.Router, pushAuth func(http.Handler) http.Handler) {
	r.With(pushAuth).Post("/dlq/record", h.RecordDLQ)
}

// RecordDLQ godoc
// @Summary Record a dead-lettered notification
// @Description Pub/Sub push endpoint. Answers 204 once the message is stored, and also when storing fails, so Pub/Sub does not redeliver it.
// @Tags dlq
// @Accept json
// @Param body body dto.PubSubPushRequest true "Pub/Sub push envelope"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse "Invalid Pub/Sub message format"
// @Router /dlq/record [post]
func (h *DLQHandler) RecordDLQ(w http.ResponseWriter, r *http.Request) {
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Pub/Sub message format")
		return
	}
	if req.Message.MessageID == "" {
		writeError(w, http.StatusBadRequest, "Invalid Pub/Sub message format: missing message ID")
		return
	}

	h.logger.Info().
		Str("messageId", req.Message.MessageID).
		Str("subscription", req.Subscription).
		Msg("Processing dead-letter queue message")

	if err := h.service.ProcessAndSave(r.Context(), &req); err != nil {
		// The message is already dead-lettered; a retry would not help.
		h.logger.Error().Err(err).Msg("Failed to save DLQ message to database")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Info().Str("messageId", req.Message.MessageID).Msg("Successfully processed and saved DLQ message")
	w.WriteHeader(http.StatusNoContent)
}
