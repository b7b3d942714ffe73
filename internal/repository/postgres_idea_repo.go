package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// ideaColumns はideasテーブルのSELECT対象列。
const ideaColumns = "id, user_id, title, notes, stage, priority, tags, due_date, created_at, updated_at"

// sortColumns はソートキーからSQL式へのホワイトリスト。
// stageとpriorityは辞書順ではなくワークフロー順で並ぶようCASE式で順位付けする。
var sortColumns = map[model.IdeaSortField]string{
	model.IdeaSortCreatedAt: "created_at",
	model.IdeaSortUpdatedAt: "updated_at",
	model.IdeaSortTitle:     "lower(title)",
	model.IdeaSortPriority:  "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END",
	model.IdeaSortStage:     "CASE stage WHEN 'idea' THEN 1 WHEN 'outline' THEN 2 WHEN 'draft' THEN 3 WHEN 'published' THEN 4 END",
}

// PostgresIdeaRepo はPostgreSQLを使用したアイデアリポジトリ。
type PostgresIdeaRepo struct {
	db *sql.DB
}

// NewPostgresIdeaRepo はPostgresIdeaRepoを生成する。
func NewPostgresIdeaRepo(db *sql.DB) *PostgresIdeaRepo {
	return &PostgresIdeaRepo{db: db}
}

// Create はアイデアを作成する。
func (r *PostgresIdeaRepo) Create(ctx context.Context, idea *model.Idea) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ideas (id, user_id, title, notes, stage, priority, tags, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		idea.ID, idea.UserID, idea.Title, idea.Notes, idea.Stage, idea.Priority,
		pq.StringArray(idea.Tags), idea.DueDate, idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アイデアの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByUserAndID はユーザーIDとアイデアIDでアイデアを取得する。
// 存在しない場合も他ユーザー所有の場合も区別せずnilを返す。
func (r *PostgresIdeaRepo) FindByUserAndID(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	idea := &model.Idea{}
	var tags pq.StringArray
	var dueDate sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT `+ideaColumns+` FROM ideas WHERE id = $1 AND user_id = $2`,
		ideaID, userID,
	).Scan(
		&idea.ID, &idea.UserID, &idea.Title, &idea.Notes, &idea.Stage, &idea.Priority,
		&tags, &dueDate, &idea.CreatedAt, &idea.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アイデアの取得に失敗しました: %w", err)
	}

	idea.Tags = []string(tags)
	if dueDate.Valid {
		t := dueDate.Time
		idea.DueDate = &t
	}
	return idea, nil
}

// ListByUser はユーザーのアイデア一覧を絞り込み条件付きで取得する。
func (r *PostgresIdeaRepo) ListByUser(ctx context.Context, userID string, q model.IdeaQuery) ([]*model.Idea, error) {
	clause, args := ideaFilterClause(userID, q)
	query := `SELECT ` + ideaColumns + ` FROM ideas` + clause + orderClause(q)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("アイデア一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	ideas := []*model.Idea{}
	for rows.Next() {
		idea := &model.Idea{}
		var tags pq.StringArray
		var dueDate sql.NullTime
		err := rows.Scan(
			&idea.ID, &idea.UserID, &idea.Title, &idea.Notes, &idea.Stage, &idea.Priority,
			&tags, &dueDate, &idea.CreatedAt, &idea.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("アイデアの読み取りに失敗しました: %w", err)
		}
		idea.Tags = []string(tags)
		if dueDate.Valid {
			t := dueDate.Time
			idea.DueDate = &t
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アイデア一覧の走査に失敗しました: %w", err)
	}

	return ideas, nil
}

// CountByUser はListByUserと同一の絞り込み条件での総件数を返す。
func (r *PostgresIdeaRepo) CountByUser(ctx context.Context, userID string, q model.IdeaQuery) (int, error) {
	clause, args := ideaFilterClause(userID, q)

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ideas`+clause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("アイデア件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Update は既存アイデアの全列を上書きする。
// id、user_id、created_atは不変のため更新しない。
func (r *PostgresIdeaRepo) Update(ctx context.Context, idea *model.Idea) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ideas
		 SET title = $3, notes = $4, stage = $5, priority = $6, tags = $7, due_date = $8, updated_at = $9
		 WHERE id = $1 AND user_id = $2`,
		idea.ID, idea.UserID, idea.Title, idea.Notes, idea.Stage, idea.Priority,
		pq.StringArray(idea.Tags), idea.DueDate, idea.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("アイデアの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByUserAndID はユーザーIDとアイデアIDでアイデアを削除する。
func (r *PostgresIdeaRepo) DeleteByUserAndID(ctx context.Context, userID, ideaID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ideas WHERE id = $1 AND user_id = $2`,
		ideaID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("アイデアの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// StatsByUser はユーザーのアイデアを段階別・優先度別に集計する。
// 全段階・全優先度のキーを0埋めで含む。
func (r *PostgresIdeaRepo) StatsByUser(ctx context.Context, userID string) (*model.IdeaStats, error) {
	stats := &model.IdeaStats{
		ByStage:    map[model.IdeaStage]int{},
		ByPriority: map[model.IdeaPriority]int{},
	}
	for _, s := range model.IdeaStageValues() {
		stats.ByStage[model.IdeaStage(s)] = 0
	}
	for _, p := range model.IdeaPriorityValues() {
		stats.ByPriority[model.IdeaPriority(p)] = 0
	}

	// 1. 段階別の件数を集計
	rows, err := r.db.QueryContext(ctx,
		`SELECT stage, count(*) FROM ideas WHERE user_id = $1 GROUP BY stage`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("段階別集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage model.IdeaStage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("段階別集計の読み取りに失敗しました: %w", err)
		}
		stats.ByStage[stage] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("段階別集計の走査に失敗しました: %w", err)
	}

	// 2. 優先度別の件数を集計
	rows, err = r.db.QueryContext(ctx,
		`SELECT priority, count(*) FROM ideas WHERE user_id = $1 GROUP BY priority`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("優先度別集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var priority model.IdeaPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("優先度別集計の読み取りに失敗しました: %w", err)
		}
		stats.ByPriority[priority] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("優先度別集計の走査に失敗しました: %w", err)
	}

	return stats, nil
}

// ideaFilterClause はListByUserとCountByUserで共有するWHERE句を構築する。
// 条件は全てANDで結合される。
func ideaFilterClause(userID string, q model.IdeaQuery) (string, []interface{}) {
	clause := " WHERE user_id = $1"
	args := []interface{}{userID}
	argIndex := 2

	if q.Stage != "" {
		clause += fmt.Sprintf(" AND stage = $%d", argIndex)
		args = append(args, q.Stage)
		argIndex++
	}
	if q.Priority != "" {
		clause += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, q.Priority)
		argIndex++
	}
	if q.Tag != "" {
		clause += fmt.Sprintf(" AND $%d = ANY(tags)", argIndex)
		args = append(args, q.Tag)
		argIndex++
	}
	if q.Keyword != "" {
		// タイトルまたはメモへの部分一致（大文字小文字を区別しない）
		clause += fmt.Sprintf(" AND (title ILIKE $%d OR notes ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+escapeLikePattern(q.Keyword)+"%")
		argIndex++
	}

	return clause, args
}

// orderClause はIdeaQueryからORDER BY句を構築する。
// ソートキーはsortColumnsのホワイトリストに限定し、同値時はidで順序を安定させる。
func orderClause(q model.IdeaQuery) string {
	column, ok := sortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if q.Order == model.SortDirectionAsc {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction)
}

// escapeLikePattern はILIKEパターン内のメタ文字をエスケープする。
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// compile-time interface check
var _ IdeaRepository = (*PostgresIdeaRepo)(nil)
