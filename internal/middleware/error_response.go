package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// error_kindはクライアントが分岐に使う機械可読な種別。
type ErrorResponseBody struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		ErrorKind: apiErr.Kind,
		Message:   apiErr.Message,
		Field:     apiErr.Field,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 原因は相関IDと共にログのみに記録し、DBドライバ等の内部情報はクライアントへ返さない。
func WriteInternalServerError(w http.ResponseWriter, r *http.Request, cause error) {
	slog.Error("internal server error",
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", cause.Error()),
	)
	WriteErrorResponse(w, http.StatusInternalServerError, newInternalAPIError())
}

// newInternalAPIError は内部エラーの統一レスポンス本文を生成する。
func newInternalAPIError() *model.APIError {
	return &model.APIError{
		Kind:    model.ErrKindInternal,
		Message: "内部エラーが発生しました。しばらく待ってから再度お試しください。",
	}
}
