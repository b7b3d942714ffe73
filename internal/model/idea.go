// Package model はドメインモデルを定義する。
package model

import "time"

// Idea はクリエイターが記録するコンテンツアイデアを表す。
type Idea struct {
	ID        string
	UserID    string // 所有者。全クエリはこのIDでスコープされる
	Title     string
	Notes     string // サニタイズ済み
	Stage     IdeaStage
	Priority  IdeaPriority
	Tags      []string // 重複除去済み。最初に現れた順を保持する
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdeaStage はアイデアの制作パイプライン上の段階を表す。
type IdeaStage string

const (
	// IdeaStageIdea は着想段階。新規作成時のデフォルト。
	IdeaStageIdea IdeaStage = "idea"
	// IdeaStageOutline は構成案の段階。
	IdeaStageOutline IdeaStage = "outline"
	// IdeaStageDraft は下書き段階。
	IdeaStageDraft IdeaStage = "draft"
	// IdeaStagePublished は公開済みの段階。
	IdeaStagePublished IdeaStage = "published"
)

// IsValid は定義済みの段階かどうかを返す。
func (s IdeaStage) IsValid() bool {
	switch s {
	case IdeaStageIdea, IdeaStageOutline, IdeaStageDraft, IdeaStagePublished:
		return true
	}
	return false
}

// IdeaStageValues は段階の指定可能な値をパイプライン順で返す。
func IdeaStageValues() []string {
	return []string{
		string(IdeaStageIdea),
		string(IdeaStageOutline),
		string(IdeaStageDraft),
		string(IdeaStagePublished),
	}
}

// IdeaPriority はアイデアの優先度を表す。
type IdeaPriority string

const (
	// IdeaPriorityLow は低優先度。
	IdeaPriorityLow IdeaPriority = "low"
	// IdeaPriorityMedium は中優先度。新規作成時のデフォルト。
	IdeaPriorityMedium IdeaPriority = "medium"
	// IdeaPriorityHigh は高優先度。
	IdeaPriorityHigh IdeaPriority = "high"
)

// IsValid は定義済みの優先度かどうかを返す。
func (p IdeaPriority) IsValid() bool {
	switch p {
	case IdeaPriorityLow, IdeaPriorityMedium, IdeaPriorityHigh:
		return true
	}
	return false
}

// IdeaPriorityValues は優先度の指定可能な値を低い順で返す。
func IdeaPriorityValues() []string {
	return []string{
		string(IdeaPriorityLow),
		string(IdeaPriorityMedium),
		string(IdeaPriorityHigh),
	}
}

// IdeaSortField は一覧のソートキーを表す。
type IdeaSortField string

const (
	IdeaSortCreatedAt IdeaSortField = "created_at"
	IdeaSortUpdatedAt IdeaSortField = "updated_at"
	IdeaSortTitle     IdeaSortField = "title"
	IdeaSortPriority  IdeaSortField = "priority"
	IdeaSortStage     IdeaSortField = "stage"
)

// IdeaSortFieldValues はソートキーの指定可能な値を返す。
func IdeaSortFieldValues() []string {
	return []string{
		string(IdeaSortCreatedAt),
		string(IdeaSortUpdatedAt),
		string(IdeaSortTitle),
		string(IdeaSortPriority),
		string(IdeaSortStage),
	}
}

// SortDirection はソート方向を表す。
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// IdeaQuery は一覧取得の絞り込み・整列・ページング条件を表す。
// 絞り込みフィールドのゼロ値は「条件なし」を意味する。
// 条件はすべてANDで結合される。
type IdeaQuery struct {
	Stage    IdeaStage
	Priority IdeaPriority
	Tag      string // タグ集合への完全一致メンバーシップ
	Keyword  string // タイトルまたはノートに対する大文字小文字無視の部分一致
	Sort     IdeaSortField
	Order    SortDirection
	Limit    int
	Offset   int
}

// IdeaStats はユーザーごとのアイデア集計を表す。
// ByStage・ByPriorityには件数0の値も含まれる。
type IdeaStats struct {
	Total      int
	ByStage    map[IdeaStage]int
	ByPriority map[IdeaPriority]int
}
