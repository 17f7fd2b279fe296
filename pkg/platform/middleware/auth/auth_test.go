package auth_test

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks JWTValidator

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sentry/pkg/platform/middleware/auth"
	"sentry/pkg/platform/middleware/auth/mocks"
	"sentry/pkg/requestcontext"
)

func TestRequireScope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = requestcontext.Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(mw func(http.Handler) http.Handler, header string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/registry/1234567890", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, r)
		return rr
	}

	t.Run("nil validator passes through", func(t *testing.T) {
		rr := serve(auth.RequireScope(nil, "registry:read", logger), "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockJWTValidator(ctrl)

		rr := serve(auth.RequireScope(validator, "registry:read", logger), "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockJWTValidator(ctrl)
		validator.EXPECT().ValidateToken("bad").Return(nil, errors.New("invalid token"))

		rr := serve(auth.RequireScope(validator, "registry:read", logger), "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing scope is forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockJWTValidator(ctrl)
		validator.EXPECT().ValidateToken("tok").Return(&auth.JWTClaims{Subject: "p1"}, nil)

		rr := serve(auth.RequireScope(validator, "registry:read", logger), "Bearer tok")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("valid token sets subject", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		validator := mocks.NewMockJWTValidator(ctrl)
		validator.EXPECT().ValidateToken("tok").Return(&auth.JWTClaims{Subject: "p1", Scopes: []string{"registry:read"}}, nil)

		rr := serve(auth.RequireScope(validator, "registry:read", logger), "Bearer tok")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "p1", subject)
	})
}
