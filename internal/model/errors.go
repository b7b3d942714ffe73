// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Kindはレスポンスボディのerror_kindとしてそのままクライアントへ返る。
type APIError struct {
	Kind    string // エラー種別
	Message string // エラーメッセージ
	Field   string // バリデーション対象フィールド（該当する場合のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// クライアントに見えるエラー種別
const (
	ErrKindUnauthenticated = "Unauthenticated"
	ErrKindForbidden       = "Forbidden"
	ErrKindNotFound        = "NotFound"
	ErrKindValidation      = "ValidationError"
	ErrKindConflict        = "Conflict"
	ErrKindInternal        = "Internal"
)

// NewUnauthenticatedError は認証切れ・未認証エラーを生成する。
// トークン検証失敗の詳細区分はログのみに残し、クライアントへは返さない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:    ErrKindUnauthenticated,
		Message: "認証が必要です。ログインし直してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス不明とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    ErrKindUnauthenticated,
		Message: "メールアドレスまたはパスワードが正しくありません。",
	}
}

// NewForbiddenError は他ユーザーのリソースへのアクセス拒否エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Kind:    ErrKindForbidden,
		Message: "このリソースへアクセスする権限がありません。",
	}
}

// NewIdeaNotFoundError はアイデア未検出エラーを生成する。
// 他ユーザー所有のIDを指定した場合も同じエラーになる（存在の推測を防ぐ）。
func NewIdeaNotFoundError(ideaID string) *APIError {
	return &APIError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("指定されたアイデアが見つかりません: %s", ideaID),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:    ErrKindNotFound,
		Message: "ユーザーが見つかりません。",
	}
}

// NewValidationError は単一フィールドのバリデーションエラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Kind:    ErrKindValidation,
		Message: message,
		Field:   field,
	}
}

// NewInvalidFieldValueError は選択式フィールドに定義外の値が指定された場合のエラーを生成する。
func NewInvalidFieldValueError(field, value string, allowed []string) *APIError {
	return &APIError{
		Kind:    ErrKindValidation,
		Message: fmt.Sprintf("無効な%sです: %s（指定可能な値: %s）", field, value, strings.Join(allowed, "、")),
		Field:   field,
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Kind:    ErrKindConflict,
		Message: "このメールアドレスは既に登録されています。",
		Field:   "email",
	}
}
