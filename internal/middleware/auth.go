// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/token"
)

// bearerPrefix はAuthorizationヘッダーのスキーム部。大文字小文字は区別しない。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済み主体を格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenVerifier はBearerトークンの検証に必要なインターフェース。
// token.Verifierが満たす。
type TokenVerifier interface {
	Verify(tokenString string) (*model.Principal, error)
}

// AuthFailureRecorder は認証失敗の計数インターフェース。
// metrics.Collectorが満たす。nilの場合は記録しない。
type AuthFailureRecorder interface {
	RecordAuthFailure(kind string)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証済みの主体をリクエストコンテキストに注入する。
// 失敗時は区分（期限切れ・署名不正など）によらず一律の401を返し、区分はログとメトリクスにのみ残す。
func NewAuthMiddleware(verifier TokenVerifier, failures AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				slog.Warn("missing bearer token",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
				)
				recordAuthFailure(failures, "missing")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 2. トークンを検証
			principal, err := verifier.Verify(tokenString)
			if err != nil {
				slog.Warn("token verification failed",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				recordAuthFailure(failures, classifyAuthFailure(err))
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 3. 認証済み主体をコンテキストに注入
			ctx := context.WithValue(r.Context(), principalContextKey, principal)

			// リクエストログへユーザーIDを補足
			if logRec, ok := ctx.Value(requestLogContextKey).(*requestLogRecord); ok {
				logRec.userID = principal.UserID
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recordAuthFailure は認証失敗を区分付きで計数する。recorderがnilの場合は何もしない。
func recordAuthFailure(recorder AuthFailureRecorder, kind string) {
	if recorder == nil {
		return
	}
	recorder.RecordAuthFailure(kind)
}

// classifyAuthFailure は検証エラーをメトリクスの区分ラベルへ変換する。
func classifyAuthFailure(err error) string {
	switch {
	case errors.Is(err, token.ErrMalformedToken):
		return "malformed"
	case errors.Is(err, token.ErrInvalidSignature):
		return "signature"
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	default:
		return "claims"
	}
}

// extractBearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーがない、またはBearerスキームでない場合は空文字列を返す。
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// PrincipalFromContext はリクエストコンテキストから認証済み主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*model.Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok || principal == nil {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// ContextWithPrincipal はコンテキストに認証済み主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
