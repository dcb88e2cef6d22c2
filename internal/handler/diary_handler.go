package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kdiary/internal/model"
)

// DiaryServiceInterface は日記ハンドラーが必要とするサービスインターフェース。
type DiaryServiceInterface interface {
	Create(ctx context.Context, userID int64, date string, title *string, content string) (*model.Diary, error)
	ListByUserAndDate(ctx context.Context, userID int64, date string) ([]*model.Diary, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Diary, error)
	Update(ctx context.Context, diaryID, userID int64, title, content *string) (*model.Diary, error)
}

// DiaryHandler は日記のHTTPハンドラー。
type DiaryHandler struct {
	service DiaryServiceInterface
}

// NewDiaryHandler はDiaryHandlerを生成する。
func NewDiaryHandler(service DiaryServiceInterface) *DiaryHandler {
	return &DiaryHandler{
		service: service,
	}
}

// saveDiaryRequest は日記作成リクエストのボディ。
// titleは省略可能。
type saveDiaryRequest struct {
	Date    string  `json:"date"`
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

// updateDiaryRequest は日記更新リクエストのボディ。
// 指定されたフィールドのみ更新する。
type updateDiaryRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// diariesResponse は日付指定の日記一覧レスポンス。
type diariesResponse struct {
	Diaries []diaryResponse `json:"diaries"`
}

// Save は日記を作成する。
// POST /diary/save
func (h *DiaryHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req saveDiaryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if _, err := h.service.Create(r.Context(), userID, req.Date, req.Title, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	writeResultOK(w)
}

// ListByDate は指定日付の日記一覧を返す。
// GET /diary/event?date=YYYY-MM-DD
func (h *DiaryHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	diaries, err := h.service.ListByUserAndDate(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, diariesResponse{Diaries: toDiaryResponses(diaries)})
}

// ListEvents はカレンダー表示用に全日記を返す。
// GET /diary/events
func (h *DiaryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	diaries, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(diaries))
}

// Update は日記のタイトル・本文を更新する。
// PUT /diary/update/{id}
func (h *DiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	// 数値でないIDは存在しない日記として扱う
	diaryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || diaryID <= 0 {
		writeAPIErrorResponse(w, model.NewDiaryNotFoundError())
		return
	}

	var req updateDiaryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if _, err := h.service.Update(r.Context(), diaryID, userID, req.Title, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	writeResultOK(w)
}
