// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcryptハッシュ。APIレスポンスへは出さない
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal は認証済みリクエストの主体を表す。
// JWT検証後にコンテキストへ格納され、以降の認可判定に使われる。
type Principal struct {
	UserID string
	Email  string
}
