package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// NewOwnershipGuardMiddleware はパスの{user_id}と認証済み主体の一致を検証するミドルウェアを返す。
// 不一致の場合はリポジトリへ到達する前に403を返す。
// 認証ミドルウェアの後に配置すること。
func NewOwnershipGuardMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := PrincipalFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			pathUserID := chi.URLParam(r, "user_id")
			if pathUserID == "" || pathUserID != principal.UserID {
				slog.Warn("cross-user access denied",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("principal_user_id", principal.UserID),
					slog.String("path_user_id", pathUserID),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
