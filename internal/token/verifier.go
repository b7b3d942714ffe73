package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// 検証失敗の区分。ログにのみ残し、クライアントへの応答はすべて同一の401になる。
var (
	// ErrMalformedToken はトークンの形式が不正な場合のエラー。
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature は署名検証に失敗した場合のエラー。アルゴリズム不一致も含む。
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired は有効期限切れ、または有効開始前のトークンのエラー。
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidClaims はiss・aud・subなどクレームの検証に失敗した場合のエラー。
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Verifier はアクセストークンを検証し、成功時にPrincipalを返す。
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier はVerifierを生成する。
// 許可するアルゴリズムはHS256のみで、iss・aud・expを必須として検証する。
// leewayはサーバー間の時刻ずれの許容幅（上限60秒を想定）。
func NewVerifier(secret, issuer, audience string, leeway time.Duration) *Verifier {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	)

	return &Verifier{
		secret: []byte(secret),
		parser: parser,
	}
}

// Verify はトークン文字列を検証し、検証済みの主体を返す。
// 失敗時はErrMalformedToken・ErrInvalidSignature・ErrTokenExpired・
// ErrInvalidClaimsのいずれかにマッチするエラーを返す。
func (v *Verifier) Verify(tokenString string) (*model.Principal, error) {
	claims := &Claims{}

	parsed, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrInvalidClaims)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject is empty", ErrInvalidClaims)
	}

	return &model.Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

// keyFunc は署名検証鍵を返す。
// アルゴリズムはWithValidMethodsでも検証されるが、鍵を渡す直前にもダブルチェックする。
// これにより alg: none や非HMACアルゴリズムのトークンは必ず拒否される。
func (v *Verifier) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return v.secret, nil
}

// classifyParseError はjwtパッケージのエラーを検証失敗の区分へ変換する。
// 期限切れの判定はErrTokenInvalidClaimsにも同時にマッチするため、先に評価する。
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
}
