// Package auth はメールアドレスとパスワードによる認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/repository"
)

const (
	// passwordMinLength はパスワードの最小長。
	passwordMinLength = 8
	// passwordMaxLength はパスワードの最大長。bcryptが受け付ける平文の上限に合わせる。
	passwordMaxLength = 72
	// nameMaxLength は表示名の最大文字数（rune単位）。
	nameMaxLength = 100
	// emailMaxLength はメールアドレスの最大長。
	emailMaxLength = 254
)

// dummyPasswordHash はユーザー不在時にも照合時間を揃えるためのダミーハッシュ。
// 応答時間の差からメールアドレスの登録有無を推測されるのを防ぐ。
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// TokenIssuer はアクセストークンの発行インターフェース。
type TokenIssuer interface {
	// Issue は指定ユーザーの署名済みトークンを生成する。
	Issue(userID, email string) (string, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // bcryptのコストパラメータ。0の場合はbcrypt.DefaultCost
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	issuer TokenIssuer,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
		config:   config,
	}
}

// SignupInput は新規登録の入力。
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// AuthResult はサインアップ・ログインの結果。
type AuthResult struct {
	Token string
	User  *model.User
}

// Signup は新規ユーザーを登録し、アクセストークンを発行する。
// メールアドレスは小文字に正規化して保存する。重複時はConflictエラーを返す。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	// 1. 入力検証と正規化
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "名前を入力してください。")
	}
	if utf8.RuneCountInString(name) > nameMaxLength {
		return nil, model.NewValidationError("name", "名前は100文字以内で入力してください。")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	// 2. パスワードをハッシュ化
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	// 3. ユーザーを作成
	// 同時登録のレースはDBのlower(email)一意インデックスが検出する
	now := time.Now()
	newUser := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(context.WithoutCancel(ctx), newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, err
	}

	// 4. アクセストークンを発行
	tokenString, err := s.issuer.Issue(newUser.ID, newUser.Email)
	if err != nil {
		return nil, err
	}

	slog.Info("new user signed up",
		slog.String("user_id", newUser.ID),
	)

	return &AuthResult{Token: tokenString, User: newUser}, nil
}

// Login は資格情報を検証し、アクセストークンを発行する。
// メールアドレス不明とパスワード不一致は同じエラーを返す（登録有無の推測を防ぐ）。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	// 1. ユーザーを検索
	found, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if found == nil {
		// 不在時もダミーハッシュと照合し、処理時間を登録済みの場合と揃える
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, model.NewInvalidCredentialsError()
	}

	// 2. パスワードを照合
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. アクセストークンを発行
	tokenString, err := s.issuer.Issue(found.ID, found.Email)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", found.ID),
	)

	return &AuthResult{Token: tokenString, User: found}, nil
}

// GetProfile は現在のユーザー情報を取得する。
// トークンは有効だがユーザーが退会済みの場合はNotFoundエラーを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	found, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, model.NewUserNotFoundError()
	}
	return found, nil
}

// normalizeEmail はメールアドレスを検証し、小文字化した値を返す。
func normalizeEmail(email string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return "", model.NewValidationError("email", "メールアドレスを入力してください。")
	}
	if len(normalized) > emailMaxLength {
		return "", model.NewValidationError("email", "メールアドレスが長すぎます。")
	}
	at := strings.Index(normalized, "@")
	if at <= 0 || at == len(normalized)-1 {
		return "", model.NewValidationError("email", "メールアドレスの形式が正しくありません。")
	}
	return normalized, nil
}

// validatePassword はパスワードの長さを検証する。
func validatePassword(password string) error {
	if len(password) < passwordMinLength {
		return model.NewValidationError("password", "パスワードは8文字以上で設定してください。")
	}
	if len(password) > passwordMaxLength {
		return model.NewValidationError("password", "パスワードが長すぎます。")
	}
	return nil
}
