// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/repository"
)

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 所有する全アイデアとユーザー本体を同一トランザクションで削除する。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	found, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if found == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// アイデアとユーザーを削除
	// クライアント切断で削除が中断されないようキャンセルを切り離す
	ideasDeleted, err := s.userRepo.DeleteWithIdeas(context.WithoutCancel(ctx), userID)
	if err != nil {
		return fmt.Errorf("退会処理に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
		slog.Int64("ideas_deleted", ideasDeleted),
	)

	return nil
}
