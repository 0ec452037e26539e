package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/idtoken"
)

const pushAccount = "pubsub-push@proj.iam.gserviceaccount.com"

func fakeValidator(email string, err error) IDTokenValidator {
	return func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if err != nil {
			return nil, err
		}
		if token != "good" || audience != "https://api.example/api/dlq/record" {
			return nil, errors.New("idtoken: invalid token")
		}
		return &idtoken.Payload{Audience: audience, Claims: map[string]interface{}{"email": email}}, nil
	}
}

func TestPubSubAuthMiddleware(t *testing.T) {
	const audience = "https://api.example/api/dlq/record"
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name     string
		local    bool
		audience string
		header   string
		validate IDTokenValidator
		status   int
	}{
		{"local dev skips checks", true, "", "", nil, http.StatusNoContent},
		{"unconfigured", false, "", "Bearer good", fakeValidator(pushAccount, nil), http.StatusInternalServerError},
		{"missing header", false, audience, "", fakeValidator(pushAccount, nil), http.StatusUnauthorized},
		{"wrong scheme", false, audience, "Basic good", fakeValidator(pushAccount, nil), http.StatusUnauthorized},
		{"invalid token", false, audience, "Bearer bad", fakeValidator(pushAccount, nil), http.StatusUnauthorized},
		{"other account", false, audience, "Bearer good", fakeValidator("someone@proj.iam.gserviceaccount.com", nil), http.StatusForbidden},
		{"valid", false, audience, "Bearer good", fakeValidator(pushAccount, nil), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := PubSubAuthMiddleware(tt.local, tt.audience, pushAccount, tt.validate, zerolog.Nop())(ok)
			req := httptest.NewRequest(http.MethodPost, "/dlq/record", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
