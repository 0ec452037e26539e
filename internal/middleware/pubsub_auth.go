package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// IDTokenValidator verifies a Google-signed OIDC token for audience.
type IDTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PubSubAuthMiddleware admits Pub/Sub push requests whose OIDC token was
// issued to expectedEmail for audience. With isLocalDev every request passes,
// since the emulator does not sign pushes.
func PubSubAuthMiddleware(isLocalDev bool, audience, expectedEmail string, validate IDTokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				logger.Debug().Msg("Skipping Pub/Sub authentication for local environment")
				next.ServeHTTP(w, r)
				return
			}

			if audience == "" || expectedEmail == "" {
				logger.Error().Msg("Pub/Sub auth middleware configured without an audience or expected email; requests will be denied")
				writeError(w, http.StatusInternalServerError, "Push endpoint is not configured")
				return
			}

			scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
				logger.Warn().Msg("Missing or malformed Authorization header in Pub/Sub push request")
				writeError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			payload, err := validate(r.Context(), tok, audience)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to validate Pub/Sub JWT")
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			email, _ := payload.Claims["email"].(string)
			if email != expectedEmail {
				logger.Warn().
					Str("token_email", email).
					Str("expected_email", expectedEmail).
					Msg("Pub/Sub JWT email does not match expected service account")
				writeError(w, http.StatusForbidden, "Token was not issued to the push service account")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
