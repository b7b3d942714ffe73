package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/idea"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/middleware"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// IdeaServiceInterface はアイデアハンドラーが必要とするサービスインターフェース。
type IdeaServiceInterface interface {
	// Create はアイデアを作成する。
	Create(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error)
	// Get はアイデアを取得する。
	Get(ctx context.Context, userID, ideaID string) (*model.Idea, error)
	// List はアイデア一覧を絞り込み・整列・ページング付きで返す。
	List(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error)
	// UpdatePartial はアイデアを部分更新する。
	UpdatePartial(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error)
	// UpdateFull はアイデアの可変フィールドを全置換する。
	UpdateFull(ctx context.Context, userID, ideaID string, input idea.CreateIdeaInput) (*model.Idea, error)
	// Delete はアイデアを削除する。
	Delete(ctx context.Context, userID, ideaID string) error
	// Stats はアイデアを段階別・優先度別に集計する。
	Stats(ctx context.Context, userID string) (*model.IdeaStats, error)
}

// IdeaMetricsRecorder はアイデア操作の計数インターフェース。
// metrics.Collectorが満たす。nilの場合は記録しない。
type IdeaMetricsRecorder interface {
	RecordIdeaCreated()
	RecordIdeaDeleted()
}

// IdeaHandler はアイデア管理のHTTPハンドラー。
type IdeaHandler struct {
	service IdeaServiceInterface
	metrics IdeaMetricsRecorder
}

// NewIdeaHandler はIdeaHandlerを生成する。
func NewIdeaHandler(service IdeaServiceInterface, metrics IdeaMetricsRecorder) *IdeaHandler {
	return &IdeaHandler{
		service: service,
		metrics: metrics,
	}
}

// --- リクエスト・レスポンス型 ---

// ideaRequest は作成（POST）・全置換（PUT）リクエストのボディ。
type ideaRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Stage    string     `json:"stage"`
	Priority string     `json:"priority"`
	Tags     []string   `json:"tags"`
	DueDate  *time.Time `json:"due_date"`
}

// ideaPatchRequest は部分更新（PATCH）リクエストのボディ。
// 省略されたフィールドは変更しない。
type ideaPatchRequest struct {
	Title    *string    `json:"title"`
	Notes    *string    `json:"notes"`
	Stage    *string    `json:"stage"`
	Priority *string    `json:"priority"`
	Tags     *[]string  `json:"tags"`
	DueDate  *time.Time `json:"due_date"`
}

// ideaResponse はアイデアのAPIレスポンス。
type ideaResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	Stage     string     `json:"stage"`
	Priority  string     `json:"priority"`
	Tags      []string   `json:"tags"`
	DueDate   *time.Time `json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ideaListResponse はアイデア一覧のレスポンス。
type ideaListResponse struct {
	Items   []ideaResponse `json:"items"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

// ideaStatsResponse はアイデア集計のレスポンス。
// by_stage・by_priorityには件数0の値も含まれる。
type ideaStatsResponse struct {
	Total      int            `json:"total"`
	ByStage    map[string]int `json:"by_stage"`
	ByPriority map[string]int `json:"by_priority"`
}

// CreateIdea はアイデアを作成する。
// POST /api/v1/{user_id}/ideas
func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("", "リクエストボディの解析に失敗しました。"))
		return
	}

	created, err := h.service.Create(r.Context(), principal.UserID, idea.CreateIdeaInput{
		Title:    req.Title,
		Notes:    req.Notes,
		Stage:    req.Stage,
		Priority: req.Priority,
		Tags:     req.Tags,
		DueDate:  req.DueDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordIdeaCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toIdeaResponse(created))
}

// ListIdeas はアイデア一覧を取得する。
// GET /api/v1/{user_id}/ideas?stage=&priority=&tag=&keyword=&sort=&order=&limit=&offset=
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	q := r.URL.Query()
	input := idea.ListIdeasInput{
		Stage:    q.Get("stage"),
		Priority: q.Get("priority"),
		Tag:      q.Get("tag"),
		Keyword:  q.Get("keyword"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	}

	// limit・offsetは整数でなければ範囲検証より前に400を返す
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("limit", "limitには整数を指定してください。"))
			return
		}
		input.Limit = &limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("offset", "offsetには整数を指定してください。"))
			return
		}
		input.Offset = &offset
	}

	result, err := h.service.List(r.Context(), principal.UserID, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]ideaResponse, len(result.Ideas))
	for i, found := range result.Ideas {
		items[i] = toIdeaResponse(found)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ideaListResponse{
		Items:   items,
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		HasMore: result.HasMore,
	})
}

// GetIdea はアイデアを取得する。
// GET /api/v1/{user_id}/ideas/{id}
func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	ideaID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), principal.UserID, ideaID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIdeaResponse(found))
}

// UpdateIdeaPartial はアイデアを部分更新する。
// PATCH /api/v1/{user_id}/ideas/{id}
func (h *IdeaHandler) UpdateIdeaPartial(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	ideaID := chi.URLParam(r, "id")

	var req ideaPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("", "リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.UpdatePartial(r.Context(), principal.UserID, ideaID, idea.UpdateIdeaInput{
		Title:    req.Title,
		Notes:    req.Notes,
		Stage:    req.Stage,
		Priority: req.Priority,
		Tags:     req.Tags,
		DueDate:  req.DueDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIdeaResponse(updated))
}

// UpdateIdeaFull はアイデアの可変フィールドを全置換する。
// PUT /api/v1/{user_id}/ideas/{id}
func (h *IdeaHandler) UpdateIdeaFull(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	ideaID := chi.URLParam(r, "id")

	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("", "リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.UpdateFull(r.Context(), principal.UserID, ideaID, idea.CreateIdeaInput{
		Title:    req.Title,
		Notes:    req.Notes,
		Stage:    req.Stage,
		Priority: req.Priority,
		Tags:     req.Tags,
		DueDate:  req.DueDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toIdeaResponse(updated))
}

// DeleteIdea はアイデアを削除する。
// DELETE /api/v1/{user_id}/ideas/{id}
func (h *IdeaHandler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	ideaID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), principal.UserID, ideaID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordIdeaDeleted()
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetIdeaStats はアイデアの集計を取得する。
// GET /api/v1/{user_id}/ideas/stats
func (h *IdeaHandler) GetIdeaStats(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	stats, err := h.service.Stats(r.Context(), principal.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	byStage := make(map[string]int, len(stats.ByStage))
	for stage, count := range stats.ByStage {
		byStage[string(stage)] = count
	}
	byPriority := make(map[string]int, len(stats.ByPriority))
	for priority, count := range stats.ByPriority {
		byPriority[string(priority)] = count
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ideaStatsResponse{
		Total:      stats.Total,
		ByStage:    byStage,
		ByPriority: byPriority,
	})
}

// --- ヘルパー関数 ---

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは原因をログに残した上で統一の500レスポンスにする。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	middleware.WriteInternalServerError(w, r, err)
}

// mapAPIErrorToHTTPStatus はエラー種別からHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Kind {
	case model.ErrKindUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrKindForbidden:
		return http.StatusForbidden
	case model.ErrKindNotFound:
		return http.StatusNotFound
	case model.ErrKindValidation:
		return http.StatusBadRequest
	case model.ErrKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// toIdeaResponse はmodel.IdeaからAPIレスポンスに変換する。
// タグは常に非nilの配列としてシリアライズする。
func toIdeaResponse(i *model.Idea) ideaResponse {
	tags := i.Tags
	if tags == nil {
		tags = []string{}
	}
	return ideaResponse{
		ID:        i.ID,
		UserID:    i.UserID,
		Title:     i.Title,
		Notes:     i.Notes,
		Stage:     string(i.Stage),
		Priority:  string(i.Priority),
		Tags:      tags,
		DueDate:   i.DueDate,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
