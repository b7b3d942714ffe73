package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nadeemsangrasi/creator-vault-sub004/internal/idea"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/middleware"
	"github.com/nadeemsangrasi/creator-vault-sub004/internal/model"
)

// --- モック定義 ---

// mockIdeaService はIdeaServiceInterfaceのモック実装。
type mockIdeaService struct {
	createFn        func(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error)
	getFn           func(ctx context.Context, userID, ideaID string) (*model.Idea, error)
	listFn          func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error)
	updatePartialFn func(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error)
	updateFullFn    func(ctx context.Context, userID, ideaID string, input idea.CreateIdeaInput) (*model.Idea, error)
	deleteFn        func(ctx context.Context, userID, ideaID string) error
	statsFn         func(ctx context.Context, userID string) (*model.IdeaStats, error)
}

func (m *mockIdeaService) Create(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, errors.New("createFn not set")
}

func (m *mockIdeaService) Get(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, ideaID)
	}
	return nil, errors.New("getFn not set")
}

func (m *mockIdeaService) List(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, input)
	}
	return nil, errors.New("listFn not set")
}

func (m *mockIdeaService) UpdatePartial(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error) {
	if m.updatePartialFn != nil {
		return m.updatePartialFn(ctx, userID, ideaID, input)
	}
	return nil, errors.New("updatePartialFn not set")
}

func (m *mockIdeaService) UpdateFull(ctx context.Context, userID, ideaID string, input idea.CreateIdeaInput) (*model.Idea, error) {
	if m.updateFullFn != nil {
		return m.updateFullFn(ctx, userID, ideaID, input)
	}
	return nil, errors.New("updateFullFn not set")
}

func (m *mockIdeaService) Delete(ctx context.Context, userID, ideaID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, ideaID)
	}
	return errors.New("deleteFn not set")
}

func (m *mockIdeaService) Stats(ctx context.Context, userID string) (*model.IdeaStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return nil, errors.New("statsFn not set")
}

// mockIdeaMetrics はIdeaMetricsRecorderのモック実装。
type mockIdeaMetrics struct {
	created int
	deleted int
}

func (m *mockIdeaMetrics) RecordIdeaCreated() { m.created++ }
func (m *mockIdeaMetrics) RecordIdeaDeleted() { m.deleted++ }

// --- テストヘルパー ---

// withPrincipal はテスト用にリクエストコンテキストに認証済み主体を注入するヘルパー。
func withPrincipal(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithPrincipal(r.Context(), &model.Principal{UserID: userID})
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseErrorResponse はレスポンスボディを統一エラーフォーマットとしてパースするヘルパー。
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// testIdea はテスト用のアイデアを生成するヘルパー。
func testIdea(userID, ideaID string) *model.Idea {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Idea{
		ID:        ideaID,
		UserID:    userID,
		Title:     "動画企画のメモ",
		Notes:     "<p>撮影場所の候補リスト</p>",
		Stage:     model.IdeaStageIdea,
		Priority:  model.IdeaPriorityMedium,
		Tags:      []string{"video", "vlog"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- POST /api/v1/{user_id}/ideas テスト ---

func TestIdeaHandler_CreateIdea_Success(t *testing.T) {
	svc := &mockIdeaService{
		createFn: func(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if input.Title != "動画企画のメモ" {
				t.Errorf("title = %q, want %q", input.Title, "動画企画のメモ")
			}
			return testIdea("user-123", "idea-1"), nil
		},
	}
	recorder := &mockIdeaMetrics{}
	h := NewIdeaHandler(svc, recorder)

	body := `{"title": "動画企画のメモ", "notes": "<p>撮影場所の候補リスト</p>", "tags": ["video", "vlog"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user-123/ideas", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateIdea(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", contentType, "application/json")
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["id"] != "idea-1" {
		t.Errorf("id = %v, want %q", result["id"], "idea-1")
	}
	if result["stage"] != "idea" {
		t.Errorf("stage = %v, want %q", result["stage"], "idea")
	}
	if result["priority"] != "medium" {
		t.Errorf("priority = %v, want %q", result["priority"], "medium")
	}

	if recorder.created != 1 {
		t.Errorf("created metric = %d, want 1", recorder.created)
	}
}

func TestIdeaHandler_CreateIdea_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewIdeaHandler(&mockIdeaService{}, nil)

	body := `{invalid json`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user-123/ideas", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateIdea(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.ErrorKind != model.ErrKindValidation {
		t.Errorf("error_kind = %q, want %q", errResp.ErrorKind, model.ErrKindValidation)
	}
}

func TestIdeaHandler_CreateIdea_ValidationError_ReturnsBadRequestWithField(t *testing.T) {
	svc := &mockIdeaService{
		createFn: func(ctx context.Context, userID string, input idea.CreateIdeaInput) (*model.Idea, error) {
			return nil, model.NewValidationError("title", "タイトルを入力してください。")
		},
	}
	recorder := &mockIdeaMetrics{}
	h := NewIdeaHandler(svc, recorder)

	body := `{"title": "   "}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user-123/ideas", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateIdea(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.ErrorKind != model.ErrKindValidation {
		t.Errorf("error_kind = %q, want %q", errResp.ErrorKind, model.ErrKindValidation)
	}
	if errResp.Field != "title" {
		t.Errorf("field = %q, want %q", errResp.Field, "title")
	}

	// 検証エラー時はメトリクスを記録しない
	if recorder.created != 0 {
		t.Errorf("created metric = %d, want 0", recorder.created)
	}
}

func TestIdeaHandler_CreateIdea_NoPrincipal_ReturnsUnauthorized(t *testing.T) {
	h := NewIdeaHandler(&mockIdeaService{}, nil)

	body := `{"title": "test"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user-123/ideas", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateIdea(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- GET /api/v1/{user_id}/ideas テスト ---

func TestIdeaHandler_ListIdeas_Success(t *testing.T) {
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			return &idea.IdeaListResult{
				Ideas:   []*model.Idea{testIdea(userID, "idea-1"), testIdea(userID, "idea-2")},
				Total:   5,
				Limit:   2,
				Offset:  0,
				HasMore: true,
			}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas?limit=2", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result struct {
		Items   []map[string]interface{} `json:"items"`
		Total   int                      `json:"total"`
		Limit   int                      `json:"limit"`
		Offset  int                      `json:"offset"`
		HasMore bool                     `json:"has_more"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result.Items) != 2 {
		t.Errorf("items length = %d, want 2", len(result.Items))
	}
	if result.Total != 5 {
		t.Errorf("total = %d, want 5", result.Total)
	}
	if result.Limit != 2 {
		t.Errorf("limit = %d, want 2", result.Limit)
	}
	if !result.HasMore {
		t.Error("has_more = false, want true")
	}
}

func TestIdeaHandler_ListIdeas_QueryParamsPassedToService(t *testing.T) {
	var captured idea.ListIdeasInput
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			captured = input
			return &idea.IdeaListResult{Ideas: []*model.Idea{}, Limit: 10, Offset: 20}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	url := "/api/v1/user-123/ideas?stage=draft&priority=high&tag=video&keyword=script&sort=title&order=asc&limit=10&offset=20"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	if captured.Stage != "draft" {
		t.Errorf("stage = %q, want %q", captured.Stage, "draft")
	}
	if captured.Priority != "high" {
		t.Errorf("priority = %q, want %q", captured.Priority, "high")
	}
	if captured.Tag != "video" {
		t.Errorf("tag = %q, want %q", captured.Tag, "video")
	}
	if captured.Keyword != "script" {
		t.Errorf("keyword = %q, want %q", captured.Keyword, "script")
	}
	if captured.Sort != "title" {
		t.Errorf("sort = %q, want %q", captured.Sort, "title")
	}
	if captured.Order != "asc" {
		t.Errorf("order = %q, want %q", captured.Order, "asc")
	}
	if captured.Limit == nil || *captured.Limit != 10 {
		t.Errorf("limit = %v, want 10", captured.Limit)
	}
	if captured.Offset == nil || *captured.Offset != 20 {
		t.Errorf("offset = %v, want 20", captured.Offset)
	}
}

func TestIdeaHandler_ListIdeas_UnspecifiedLimitOffset_PassedAsNil(t *testing.T) {
	var captured idea.ListIdeasInput
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			captured = input
			return &idea.IdeaListResult{Ideas: []*model.Idea{}}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	if captured.Limit != nil {
		t.Errorf("limit = %v, want nil", *captured.Limit)
	}
	if captured.Offset != nil {
		t.Errorf("offset = %v, want nil", *captured.Offset)
	}
}

func TestIdeaHandler_ListIdeas_NonNumericLimit_ReturnsBadRequest(t *testing.T) {
	serviceCalled := false
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			serviceCalled = true
			return &idea.IdeaListResult{}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas?limit=abc", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.Field != "limit" {
		t.Errorf("field = %q, want %q", errResp.Field, "limit")
	}
	if serviceCalled {
		t.Error("service should not be called for non-numeric limit")
	}
}

func TestIdeaHandler_ListIdeas_NonNumericOffset_ReturnsBadRequest(t *testing.T) {
	h := NewIdeaHandler(&mockIdeaService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas?offset=x", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.Field != "offset" {
		t.Errorf("field = %q, want %q", errResp.Field, "offset")
	}
}

func TestIdeaHandler_ListIdeas_InvalidEnum_ReturnsBadRequest(t *testing.T) {
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			return nil, model.NewInvalidFieldValueError("stage", input.Stage, model.IdeaStageValues())
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas?stage=bogus", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.ErrorKind != model.ErrKindValidation {
		t.Errorf("error_kind = %q, want %q", errResp.ErrorKind, model.ErrKindValidation)
	}
	if errResp.Field != "stage" {
		t.Errorf("field = %q, want %q", errResp.Field, "stage")
	}
}

func TestIdeaHandler_ListIdeas_EmptyResult_ReturnsEmptyArray(t *testing.T) {
	svc := &mockIdeaService{
		listFn: func(ctx context.Context, userID string, input idea.ListIdeasInput) (*idea.IdeaListResult, error) {
			return &idea.IdeaListResult{Ideas: []*model.Idea{}, Total: 0, Limit: 20}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.ListIdeas(w, req)

	// itemsはnullではなく空配列でシリアライズされること
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want items to be an empty array", w.Body.String())
	}
}

// --- GET /api/v1/{user_id}/ideas/{id} テスト ---

func TestIdeaHandler_GetIdea_Success(t *testing.T) {
	svc := &mockIdeaService{
		getFn: func(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if ideaID != "idea-1" {
				t.Errorf("ideaID = %q, want %q", ideaID, "idea-1")
			}
			return testIdea(userID, ideaID), nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas/idea-1", nil)
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.GetIdea(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != "idea-1" {
		t.Errorf("id = %v, want %q", result["id"], "idea-1")
	}
	if result["user_id"] != "user-123" {
		t.Errorf("user_id = %v, want %q", result["user_id"], "user-123")
	}
}

func TestIdeaHandler_GetIdea_NotFound_Returns404(t *testing.T) {
	svc := &mockIdeaService{
		getFn: func(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
			return nil, model.NewIdeaNotFoundError(ideaID)
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas/missing", nil)
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetIdea(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}

	errResp := parseErrorResponse(t, w)
	if errResp.ErrorKind != model.ErrKindNotFound {
		t.Errorf("error_kind = %q, want %q", errResp.ErrorKind, model.ErrKindNotFound)
	}
}

// --- PATCH /api/v1/{user_id}/ideas/{id} テスト ---

func TestIdeaHandler_UpdateIdeaPartial_Success(t *testing.T) {
	var captured idea.UpdateIdeaInput
	svc := &mockIdeaService{
		updatePartialFn: func(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error) {
			captured = input
			updated := testIdea(userID, ideaID)
			updated.Title = *input.Title
			return updated, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	body := `{"title": "改訂後のタイトル"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user-123/ideas/idea-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.UpdateIdeaPartial(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 指定フィールドのみ非nilで渡ること
	if captured.Title == nil || *captured.Title != "改訂後のタイトル" {
		t.Errorf("title = %v, want 改訂後のタイトル", captured.Title)
	}
	if captured.Notes != nil {
		t.Errorf("notes = %v, want nil", *captured.Notes)
	}
	if captured.Stage != nil {
		t.Errorf("stage = %v, want nil", *captured.Stage)
	}
	if captured.Tags != nil {
		t.Errorf("tags = %v, want nil", *captured.Tags)
	}
}

func TestIdeaHandler_UpdateIdeaPartial_EmptyTags_PassedAsEmptySlice(t *testing.T) {
	var captured idea.UpdateIdeaInput
	svc := &mockIdeaService{
		updatePartialFn: func(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error) {
			captured = input
			return testIdea(userID, ideaID), nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	// tagsに空配列を指定した場合は「タグを全て外す」更新になる
	body := `{"tags": []}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user-123/ideas/idea-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.UpdateIdeaPartial(w, req)

	if captured.Tags == nil {
		t.Fatal("tags = nil, want empty slice")
	}
	if len(*captured.Tags) != 0 {
		t.Errorf("tags = %v, want empty", *captured.Tags)
	}
}

func TestIdeaHandler_UpdateIdeaPartial_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewIdeaHandler(&mockIdeaService{}, nil)

	body := `{"title": `
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user-123/ideas/idea-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.UpdateIdeaPartial(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestIdeaHandler_UpdateIdeaPartial_NotFound_Returns404(t *testing.T) {
	svc := &mockIdeaService{
		updatePartialFn: func(ctx context.Context, userID, ideaID string, input idea.UpdateIdeaInput) (*model.Idea, error) {
			return nil, model.NewIdeaNotFoundError(ideaID)
		},
	}
	h := NewIdeaHandler(svc, nil)

	body := `{"title": "x"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/user-123/ideas/missing", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.UpdateIdeaPartial(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- PUT /api/v1/{user_id}/ideas/{id} テスト ---

func TestIdeaHandler_UpdateIdeaFull_Success(t *testing.T) {
	var captured idea.CreateIdeaInput
	svc := &mockIdeaService{
		updateFullFn: func(ctx context.Context, userID, ideaID string, input idea.CreateIdeaInput) (*model.Idea, error) {
			captured = input
			return testIdea(userID, ideaID), nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	body := `{"title": "全置換タイトル", "stage": "draft", "priority": "high"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user-123/ideas/idea-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.UpdateIdeaFull(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if captured.Title != "全置換タイトル" {
		t.Errorf("title = %q, want %q", captured.Title, "全置換タイトル")
	}
	if captured.Stage != "draft" {
		t.Errorf("stage = %q, want %q", captured.Stage, "draft")
	}
	// 省略された期日はゼロ値（クリア）として渡ること
	if captured.DueDate != nil {
		t.Errorf("due_date = %v, want nil", captured.DueDate)
	}
}

// --- DELETE /api/v1/{user_id}/ideas/{id} テスト ---

func TestIdeaHandler_DeleteIdea_Success_Returns204(t *testing.T) {
	svc := &mockIdeaService{
		deleteFn: func(ctx context.Context, userID, ideaID string) error {
			if ideaID != "idea-1" {
				t.Errorf("ideaID = %q, want %q", ideaID, "idea-1")
			}
			return nil
		},
	}
	recorder := &mockIdeaMetrics{}
	h := NewIdeaHandler(svc, recorder)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user-123/ideas/idea-1", nil)
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.DeleteIdea(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if recorder.deleted != 1 {
		t.Errorf("deleted metric = %d, want 1", recorder.deleted)
	}
}

func TestIdeaHandler_DeleteIdea_NotFound_Returns404(t *testing.T) {
	svc := &mockIdeaService{
		deleteFn: func(ctx context.Context, userID, ideaID string) error {
			return model.NewIdeaNotFoundError(ideaID)
		},
	}
	recorder := &mockIdeaMetrics{}
	h := NewIdeaHandler(svc, recorder)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user-123/ideas/gone", nil)
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "gone")
	w := httptest.NewRecorder()

	h.DeleteIdea(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
	// 削除されなかった場合はメトリクスを記録しない
	if recorder.deleted != 0 {
		t.Errorf("deleted metric = %d, want 0", recorder.deleted)
	}
}

// --- GET /api/v1/{user_id}/ideas/stats テスト ---

func TestIdeaHandler_GetIdeaStats_Success(t *testing.T) {
	svc := &mockIdeaService{
		statsFn: func(ctx context.Context, userID string) (*model.IdeaStats, error) {
			return &model.IdeaStats{
				Total: 7,
				ByStage: map[model.IdeaStage]int{
					model.IdeaStageIdea:      3,
					model.IdeaStageOutline:   2,
					model.IdeaStageDraft:     2,
					model.IdeaStagePublished: 0,
				},
				ByPriority: map[model.IdeaPriority]int{
					model.IdeaPriorityLow:    1,
					model.IdeaPriorityMedium: 4,
					model.IdeaPriorityHigh:   2,
				},
			}, nil
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas/stats", nil)
	req = withPrincipal(req, "user-123")
	w := httptest.NewRecorder()

	h.GetIdeaStats(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result struct {
		Total      int            `json:"total"`
		ByStage    map[string]int `json:"by_stage"`
		ByPriority map[string]int `json:"by_priority"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result.Total != 7 {
		t.Errorf("total = %d, want 7", result.Total)
	}
	// 件数0の段階もキーとして含まれること
	if count, ok := result.ByStage["published"]; !ok || count != 0 {
		t.Errorf("by_stage[published] = %d (present=%v), want 0 (present)", count, ok)
	}
	if result.ByStage["idea"] != 3 {
		t.Errorf("by_stage[idea] = %d, want 3", result.ByStage["idea"])
	}
	if result.ByPriority["medium"] != 4 {
		t.Errorf("by_priority[medium] = %d, want 4", result.ByPriority["medium"])
	}
}

// --- エラーマッピングのテスト ---

func TestIdeaHandler_ServiceInternalError_Returns500(t *testing.T) {
	svc := &mockIdeaService{
		getFn: func(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	h := NewIdeaHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user-123/ideas/idea-1", nil)
	req = withPrincipal(req, "user-123")
	req = withChiURLParam(req, "id", "idea-1")
	w := httptest.NewRecorder()

	h.GetIdea(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}

	// ドライバのエラー文字列がレスポンスへ漏れないこと
	errResp := parseErrorResponse(t, w)
	if errResp.ErrorKind != model.ErrKindInternal {
		t.Errorf("error_kind = %q, want %q", errResp.ErrorKind, model.ErrKindInternal)
	}
	if strings.Contains(errResp.Message, "pq:") {
		t.Errorf("message leaks driver error: %q", errResp.Message)
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		kind string
		want int
	}{
		{"未認証", model.ErrKindUnauthenticated, http.StatusUnauthorized},
		{"権限なし", model.ErrKindForbidden, http.StatusForbidden},
		{"未検出", model.ErrKindNotFound, http.StatusNotFound},
		{"検証エラー", model.ErrKindValidation, http.StatusBadRequest},
		{"重複", model.ErrKindConflict, http.StatusConflict},
		{"内部エラー", model.ErrKindInternal, http.StatusInternalServerError},
		{"未知の種別", "SomethingElse", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Kind: tt.kind})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}
