// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字は区別しない。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteWithIdeas はユーザーと所有する全アイデアを同一トランザクションで削除し、
	// 削除したアイデアの件数を返す。
	DeleteWithIdeas(ctx context.Context, id string) (int64, error)
}

// IdeaRepository はアイデアデータの永続化インターフェース。
// 全メソッドがuser_idで絞り込まれ、他ユーザーの行には決して触れない。
type IdeaRepository interface {
	// Create はアイデアを作成する。
	Create(ctx context.Context, idea *model.Idea) error

	// FindByUserAndID はユーザーIDとアイデアIDでアイデアを取得する。
	// 存在しない場合も他ユーザー所有の場合も区別せずnilを返す。
	FindByUserAndID(ctx context.Context, userID, ideaID string) (*model.Idea, error)

	// ListByUser はユーザーのアイデア一覧を絞り込み条件付きで取得する。
	// 並び順とページングはIdeaQueryに従う。
	ListByUser(ctx context.Context, userID string, q model.IdeaQuery) ([]*model.Idea, error)

	// CountByUser はListByUserと同一の絞り込み条件での総件数を返す。
	CountByUser(ctx context.Context, userID string, q model.IdeaQuery) (int, error)

	// Update は既存アイデアの全列を上書きする。履歴は保持しない（後勝ち）。
	// 対象行が存在しなかった場合はfalseを返す。
	Update(ctx context.Context, idea *model.Idea) (bool, error)

	// DeleteByUserAndID はユーザーIDとアイデアIDでアイデアを削除する。
	// 削除対象が存在しなかった場合はfalseを返す。
	DeleteByUserAndID(ctx context.Context, userID, ideaID string) (bool, error)

	// StatsByUser はユーザーのアイデアを段階別・優先度別に集計する。
	StatsByUser(ctx context.Context, userID string) (*model.IdeaStats, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
// *sql.DBが満たす。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
