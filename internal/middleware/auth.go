package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fluentphrases/internal/model"
	"fluentphrases/internal/repository"
	"fluentphrases/internal/service"
	"fluentphrases/internal/token"

	"github.com/rs/zerolog"
)

type contextKey string

const principalContextKey = contextKey("principal")

// PrincipalHandler is a handler that runs only for an authenticated user.
type PrincipalHandler func(w http.ResponseWriter, r *http.Request, user *model.User)

// Authenticator resolves bearer tokens to stored users.
type Authenticator struct {
	codec  *token.Codec
	users  repository.UserRepository
	logger zerolog.Logger
}

func NewAuthenticator(codec *token.Codec, users repository.UserRepository, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		codec:  codec,
		users:  users,
		logger: logger.With().Str("component", "Authenticator").Logger(),
	}
}

// Resolve turns an Authorization header value into the user it names. It
// fails with service.ErrUnauthenticated when no bearer token is present,
// service.ErrInvalidToken when the token does not verify and
// service.ErrNotFound when the subject no longer exists.
func (a *Authenticator) Resolve(ctx context.Context, header string) (*model.User, error) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	tok = strings.TrimSpace(tok)
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return nil, service.ErrUnauthenticated
	}

	claims, err := a.codec.Verify(tok)
	if err != nil {
		return nil, err
	}

	u, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Require runs next with the resolved user, or answers with a JSON error
// without calling it.
func (a *Authenticator) Require(next PrincipalHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			status, msg := authFailure(err)
			if status == http.StatusInternalServerError {
				a.logger.Error().Err(err).Msg("Failed to resolve principal")
			} else {
				a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
			}
			writeError(w, status, msg)
			return
		}

		if info := requestInfoFromContext(r.Context()); info != nil {
			info.userID = u.ID
		}
		ctx := context.WithValue(r.Context(), principalContextKey, u)
		next(w, r.WithContext(ctx), u)
	})
}

// PrincipalFromContext returns the user stored by Require. Handlers receive
// the user as an argument; this is for collaborators that only see the
// request context.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(principalContextKey).(*model.User)
	return u, ok && u != nil
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authorization token required"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden, "Invalid or expired token"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
