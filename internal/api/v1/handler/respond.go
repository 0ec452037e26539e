package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// errorResponder maps service errors onto HTTP responses.
type errorResponder struct {
	logger      zerolog.Logger
	development bool
}

func (e errorResponder) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Authorization token required")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusForbidden, "Invalid or expired token")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, service.ErrNotificationFailed):
		writeError(w, http.StatusInternalServerError, "Failed to send password reset email")
	case errors.Is(err, service.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, "Invalid plan")
	case errors.Is(err, service.ErrPaymentProvider):
		writeError(w, http.StatusInternalServerError, "Failed to create payment preference")
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		e.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Unhandled error")
		resp := dto.ErrorResponse{Error: "Internal server error"}
		if e.development {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "validation failed")
			return false
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "validation failed",
			Fields: fieldErrors(verrs),
		})
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, dto.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
