package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type ownerKey struct{}

// identify resolves the caller from the Authorization header. Requests without
// the header continue as the anonymous owner; a token that fails verification
// is rejected with 401.
func identify(verifier tokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, _ := strings.CutPrefix(header, "Bearer ")

			owner, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.InvalidToken)
				return
			}

			httplog.LogEntrySetField(r.Context(), "owner", slog.StringValue(owner))

			ctx := context.WithValue(r.Context(), ownerKey{}, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ownerFromContext(ctx context.Context) string {
	if owner, ok := ctx.Value(ownerKey{}).(string); ok {
		return owner
	}
	return entity.AnonymousOwner
}
