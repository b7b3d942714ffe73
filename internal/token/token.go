// Package token はアクセストークン（JWT）の発行と検証を提供する。
// 検証は設定とトークン文字列のみに依存する純粋な処理で、DBアクセスは行わない。
package token

import "github.com/golang-jwt/jwt/v5"

// Claims はアクセストークンに格納するクレームを表す。
// subにユーザーIDを格納する。
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
