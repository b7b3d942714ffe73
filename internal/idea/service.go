// Package idea はアイデア管理のドメインロジックを提供する。
package idea

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/repository"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/security"
)

const (
	// titleMaxLength はタイトルの最大文字数（rune単位）。
	titleMaxLength = 100
	// defaultListLimit はlimit未指定時の1ページ件数。
	defaultListLimit = 20
	// maxListLimit はlimitの上限。
	maxListLimit = 100
)

// sortDirectionValues はorderパラメータの指定可能な値。
var sortDirectionValues = []string{
	string(model.SortDirectionAsc),
	string(model.SortDirectionDesc),
}

// Service はアイデアのCRUD・一覧・集計のビジネスロジックを提供する。
// 全操作が呼び出し元から渡されたuserIDでスコープされる。
type Service struct {
	ideaRepo  repository.IdeaRepository
	sanitizer security.NotesSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	ideaRepo repository.IdeaRepository,
	sanitizer security.NotesSanitizerService,
) *Service {
	return &Service{
		ideaRepo:  ideaRepo,
		sanitizer: sanitizer,
	}
}

// CreateIdeaInput はアイデア作成の入力。
// StageとPriorityはワイヤ上の文字列のまま受け取り、サービス層で検証する。
type CreateIdeaInput struct {
	Title    string
	Notes    string
	Stage    string // 未指定は"idea"
	Priority string // 未指定は"medium"
	Tags     []string
	DueDate  *time.Time
}

// UpdateIdeaInput は部分更新（PATCH）の入力。
// nilのフィールドは変更しない。DueDateはnilで「変更なし」を意味するため、
// 部分更新で期日をクリアすることはできない（全置換を使う）。
type UpdateIdeaInput struct {
	Title    *string
	Notes    *string
	Stage    *string
	Priority *string
	Tags     *[]string
	DueDate  *time.Time
}

// ListIdeasInput は一覧取得の入力。
// 絞り込み・整列フィールドはワイヤ上の文字列のまま受け取る。
// LimitとOffsetはnilで未指定を表す（0は有効値）。
type ListIdeasInput struct {
	Stage    string
	Priority string
	Tag      string
	Keyword  string
	Sort     string
	Order    string
	Limit    *int
	Offset   *int
}

// IdeaListResult は一覧取得の戻り値。
type IdeaListResult struct {
	Ideas   []*model.Idea
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// Create はアイデアを作成する。
// 未指定の段階・優先度にはデフォルト値を適用し、ノートはサニタイズして保存する。
func (s *Service) Create(ctx context.Context, userID string, input CreateIdeaInput) (*model.Idea, error) {
	// 1. タイトルの検証
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	// 2. 段階・優先度の解決（未指定はデフォルト値）
	stage, err := resolveStage(input.Stage, model.IdeaStageIdea)
	if err != nil {
		return nil, err
	}
	priority, err := resolvePriority(input.Priority, model.IdeaPriorityMedium)
	if err != nil {
		return nil, err
	}

	// 3. アイデアを構築（作成直後はcreated_at == updated_at）
	now := time.Now()
	newIdea := &model.Idea{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Notes:     s.sanitizer.Sanitize(input.Notes),
		Stage:     stage,
		Priority:  priority,
		Tags:      normalizeTags(input.Tags),
		DueDate:   input.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 4. 永続化（クライアント切断で書き込みが中断されないようキャンセルを切り離す）
	if err := s.ideaRepo.Create(context.WithoutCancel(ctx), newIdea); err != nil {
		return nil, err
	}

	slog.Info("アイデアを作成しました",
		slog.String("user_id", userID),
		slog.String("idea_id", newIdea.ID),
		slog.String("stage", string(newIdea.Stage)),
	)

	return newIdea, nil
}

// Get はアイデアを取得する。
// 存在しない場合も他ユーザー所有の場合も同じNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	found, err := s.ideaRepo.FindByUserAndID(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}
	return found, nil
}

// List はアイデア一覧を絞り込み・整列・ページング付きで返す。
// 総件数は絞り込み条件適用後の値で、HasMoreはoffset+limit < totalで判定する。
func (s *Service) List(ctx context.Context, userID string, input ListIdeasInput) (*IdeaListResult, error) {
	// 1. 入力をクエリ条件へ正規化
	q, err := buildQuery(input)
	if err != nil {
		return nil, err
	}

	// 2. 絞り込み条件での総件数を取得
	total, err := s.ideaRepo.CountByUser(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	// 3. ページ本体を取得（limit=0は空ページ）
	ideas, err := s.ideaRepo.ListByUser(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	return &IdeaListResult{
		Ideas:   ideas,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: q.Offset+q.Limit < total,
	}, nil
}

// UpdatePartial はアイデアを部分更新する。
// 指定されたフィールドのみ変更し、updated_atを進める。
func (s *Service) UpdatePartial(ctx context.Context, userID, ideaID string, input UpdateIdeaInput) (*model.Idea, error) {
	// 1. 既存アイデアを取得（所有者スコープ付き）
	existing, err := s.ideaRepo.FindByUserAndID(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}

	// 2. 指定フィールドのみ適用
	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		existing.Title = title
	}
	if input.Notes != nil {
		existing.Notes = s.sanitizer.Sanitize(*input.Notes)
	}
	if input.Stage != nil {
		stage, err := resolveStage(*input.Stage, "")
		if err != nil {
			return nil, err
		}
		existing.Stage = stage
	}
	if input.Priority != nil {
		priority, err := resolvePriority(*input.Priority, "")
		if err != nil {
			return nil, err
		}
		existing.Priority = priority
	}
	if input.Tags != nil {
		existing.Tags = normalizeTags(*input.Tags)
	}
	if input.DueDate != nil {
		existing.DueDate = input.DueDate
	}

	// 3. 更新を永続化（後勝ち。取得後に削除された場合はNotFound）
	existing.UpdatedAt = time.Now()
	updated, err := s.ideaRepo.Update(context.WithoutCancel(ctx), existing)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}

	return existing, nil
}

// UpdateFull はアイデアの可変フィールドを全置換する。
// 省略された段階・優先度にはデフォルト値を適用し、省略された期日・タグはクリアする。
// id、user_id、created_atは変更されない。
func (s *Service) UpdateFull(ctx context.Context, userID, ideaID string, input CreateIdeaInput) (*model.Idea, error) {
	// 1. 既存アイデアを取得（所有者スコープ付き）
	existing, err := s.ideaRepo.FindByUserAndID(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}

	// 2. 作成時と同じ規則で全フィールドを検証
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	stage, err := resolveStage(input.Stage, model.IdeaStageIdea)
	if err != nil {
		return nil, err
	}
	priority, err := resolvePriority(input.Priority, model.IdeaPriorityMedium)
	if err != nil {
		return nil, err
	}

	// 3. 可変フィールドを置換
	existing.Title = title
	existing.Notes = s.sanitizer.Sanitize(input.Notes)
	existing.Stage = stage
	existing.Priority = priority
	existing.Tags = normalizeTags(input.Tags)
	existing.DueDate = input.DueDate
	existing.UpdatedAt = time.Now()

	// 4. 更新を永続化（後勝ち。取得後に削除された場合はNotFound）
	updated, err := s.ideaRepo.Update(context.WithoutCancel(ctx), existing)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}

	return existing, nil
}

// Delete はアイデアを削除する。
// 対象が存在しない場合（削除済みを含む）はNotFoundエラーを返す。
func (s *Service) Delete(ctx context.Context, userID, ideaID string) error {
	deleted, err := s.ideaRepo.DeleteByUserAndID(context.WithoutCancel(ctx), userID, ideaID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewIdeaNotFoundError(ideaID)
	}

	slog.Info("アイデアを削除しました",
		slog.String("user_id", userID),
		slog.String("idea_id", ideaID),
	)

	return nil
}

// Stats はユーザーのアイデアを段階別・優先度別に集計して返す。
func (s *Service) Stats(ctx context.Context, userID string) (*model.IdeaStats, error) {
	return s.ideaRepo.StatsByUser(ctx, userID)
}

// validateTitle はタイトルを検証し、前後の空白を除去した値を返す。
func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", model.NewValidationError("title", "タイトルを入力してください。")
	}
	if utf8.RuneCountInString(trimmed) > titleMaxLength {
		return "", model.NewValidationError("title", "タイトルは100文字以内で入力してください。")
	}
	return trimmed, nil
}

// resolveStage はワイヤ上の段階文字列を検証して返す。
// 空文字列の場合はfallbackを返す（fallbackが空なら検証エラー）。
func resolveStage(value string, fallback model.IdeaStage) (model.IdeaStage, error) {
	if value == "" && fallback != "" {
		return fallback, nil
	}
	stage := model.IdeaStage(value)
	if !stage.IsValid() {
		return "", model.NewInvalidFieldValueError("stage", value, model.IdeaStageValues())
	}
	return stage, nil
}

// resolvePriority はワイヤ上の優先度文字列を検証して返す。
// 空文字列の場合はfallbackを返す（fallbackが空なら検証エラー）。
func resolvePriority(value string, fallback model.IdeaPriority) (model.IdeaPriority, error) {
	if value == "" && fallback != "" {
		return fallback, nil
	}
	priority := model.IdeaPriority(value)
	if !priority.IsValid() {
		return "", model.NewInvalidFieldValueError("priority", value, model.IdeaPriorityValues())
	}
	return priority, nil
}

// normalizeTags はタグ列を正規化する。
// 前後の空白を除去し、空要素を捨て、最初に現れた順を保ちながら重複を除去する。
// 戻り値は常に非nil。
func normalizeTags(tags []string) []string {
	normalized := []string{}
	seen := map[string]bool{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		normalized = append(normalized, trimmed)
	}
	return normalized
}

// buildQuery は一覧取得の入力を検証し、リポジトリ向けのクエリ条件へ変換する。
func buildQuery(input ListIdeasInput) (model.IdeaQuery, error) {
	q := model.IdeaQuery{
		Tag:     input.Tag,
		Keyword: input.Keyword,
		Sort:    model.IdeaSortCreatedAt,
		Order:   model.SortDirectionDesc,
		Limit:   defaultListLimit,
	}

	if input.Stage != "" {
		stage := model.IdeaStage(input.Stage)
		if !stage.IsValid() {
			return q, model.NewInvalidFieldValueError("stage", input.Stage, model.IdeaStageValues())
		}
		q.Stage = stage
	}
	if input.Priority != "" {
		priority := model.IdeaPriority(input.Priority)
		if !priority.IsValid() {
			return q, model.NewInvalidFieldValueError("priority", input.Priority, model.IdeaPriorityValues())
		}
		q.Priority = priority
	}
	if input.Sort != "" {
		sort := model.IdeaSortField(input.Sort)
		valid := false
		for _, f := range model.IdeaSortFieldValues() {
			if f == input.Sort {
				valid = true
				break
			}
		}
		if !valid {
			return q, model.NewInvalidFieldValueError("sort", input.Sort, model.IdeaSortFieldValues())
		}
		q.Sort = sort
	}
	if input.Order != "" {
		if input.Order != string(model.SortDirectionAsc) && input.Order != string(model.SortDirectionDesc) {
			return q, model.NewInvalidFieldValueError("order", input.Order, sortDirectionValues)
		}
		q.Order = model.SortDirection(input.Order)
	}
	if input.Limit != nil {
		// 0は有効（空ページと正しい総件数を返す）
		if *input.Limit < 0 || *input.Limit > maxListLimit {
			return q, model.NewValidationError("limit", "limitは0〜100の範囲で指定してください。")
		}
		q.Limit = *input.Limit
	}
	if input.Offset != nil {
		if *input.Offset < 0 {
			return q, model.NewValidationError("offset", "offsetは0以上で指定してください。")
		}
		q.Offset = *input.Offset
	}

	return q, nil
}
