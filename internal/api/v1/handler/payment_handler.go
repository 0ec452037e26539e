package handler

import (
	"io"
	"net/http"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/middleware"
	"fluentphrases/internal/model"
	"fluentphrases/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	payments service.PaymentService
	validate *validator.Validate
	errorResponder
}

func NewPaymentHandler(payments service.PaymentService, v *validator.Validate, logger zerolog.Logger, development bool) *PaymentHandler {
	return &PaymentHandler{
		payments:       payments,
		validate:       v,
		errorResponder: errorResponder{logger: logger.With().Str("handler", "PaymentHandler").Logger(), development: development},
	}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router, auth *middleware.Authenticator) {
	r.Route("/payments", func(r chi.Router) {
		r.Method(http.MethodPost, "/create-preference", auth.Require(h.CreatePreference))
		r.Post("/webhook", h.Webhook)
	})
}

// CreatePreference godoc
// @Summary Start a premium checkout
// @Description Creates a Mercado Pago preference for one of the monthly, biannual or annual plans.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePreferenceRequest true "Plan id"
// @Success 200 {object} dto.CreatePreferenceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid plan"
// @Failure 500 {object} dto.ErrorResponse "Failed to create payment preference"
// @Router /payments/create-preference [post]
func (h *PaymentHandler) CreatePreference(w http.ResponseWriter, r *http.Request, u *model.User) {
	var req dto.CreatePreferenceRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	id, err := h.payments.CreatePreference(r.Context(), u, req.Plan)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CreatePreferenceResponse{PreferenceID: id})
}

// Webhook godoc
// @Summary Payment provider notification
// @Description Always answers 200 so the provider stops retrying; failures are logged and stored for replay.
// @Tags payments
// @Accept json
// @Success 200
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read payment webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	outcome := h.payments.ReconcileWebhook(r.Context(), payload, service.WebhookMeta{
		Signature: r.Header.Get("x-signature"),
		RequestID: r.Header.Get("x-request-id"),
		DataID:    r.URL.Query().Get("data.id"),
	})
	h.logger.Debug().Str("outcome", string(outcome)).Msg("Payment webhook handled")
	w.WriteHeader(http.StatusOK)
}
