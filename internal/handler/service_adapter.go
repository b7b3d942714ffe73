package handler

import (
	"context"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/auth"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/idea"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/user"
)

// AuthServiceAdapter は auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	svc *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(svc *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{svc: svc}
}

// Signup は新規ユーザーを登録し、アクセストークンを発行する。
func (a *AuthServiceAdapter) Signup(ctx context.Context, input auth.SignupInput) (*auth.AuthResult, error) {
	return a.svc.Signup(ctx, input)
}

// Login は資格情報を検証し、アクセストークンを発行する。
func (a *AuthServiceAdapter) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	return a.svc.Login(ctx, email, password)
}

// GetProfile は現在のユーザー情報を取得する。
func (a *AuthServiceAdapter) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return a.svc.GetProfile(ctx, userID)
}

// IdeaServiceAdapter は idea.Service を IdeaServiceInterface に適合させるアダプタ。
type IdeaServiceAdapter struct {
	svc *idea.Service
}

// NewIdeaServiceAdapter はIdeaServiceAdapterを生成する。
func NewIdeaServiceAdapter(svc *idea.Service) *IdeaServiceAdapter {
	return &IdeaServiceAdapter{svc: svc}
}

// Create はアイデアを作成する。
func (a *IdeaServiceAdapter) Create(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error) {
	return a.svc.Create(ctx, userID, input)
}

// Get はアイデアを取得する。
func (a *IdeaServiceAdapter) Get(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	return a.svc.Get(ctx, userID, ideaID)
}

// List はアイデア一覧を絞り込み・整列・ページング付きで返す。
func (a *IdeaServiceAdapter) List(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
	return a.svc.List(ctx, userID, input)
}

// UpdatePartial はアイデアを部分更新する。
func (a *IdeaServiceAdapter) UpdatePartial(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error) {
	return a.svc.UpdatePartial(ctx, userID, ideaID, input)
}

// UpdateFull はアイデアの可変フィールドを全置換する。
func (a *IdeaServiceAdapter) UpdateFull(ctx context.Context, userID, ideaID string, input idea.CreateIdeaInput) (*model.Idea, error) {
	return a.svc.UpdateFull(ctx, userID, ideaID, input)
}

// Delete はアイデアを削除する。
func (a *IdeaServiceAdapter) Delete(ctx context.Context, userID, ideaID string) error {
	return a.svc.Delete(ctx, userID, ideaID)
}

// Stats はアイデアを段階別・優先度別に集計する。
func (a *IdeaServiceAdapter) Stats(ctx context.Context, userID string) (*model.IdeaStats, error) {
	return a.svc.Stats(ctx, userID)
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	return a.svc.Withdraw(ctx, userID)
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*AuthServiceAdapter)(nil)
var _ IdeaServiceInterface = (*IdeaServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
