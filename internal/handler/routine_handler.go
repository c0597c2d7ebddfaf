package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/routinely/internal/middleware"
	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/routine"
)

// RoutineServiceInterface はルーティンハンドラーが必要とするサービスインターフェース。
type RoutineServiceInterface interface {
	// List はユーザーのルーティン一覧を実施記録付きで返す。
	List(ctx context.Context, userID string) ([]routine.RoutineWithEntries, error)
	// Create はルーティンを作成する。
	Create(ctx context.Context, userID, title, color string) (*model.Routine, error)
	// Delete はルーティンを削除する。
	Delete(ctx context.Context, userID, routineID string) error
	// ToggleEntry は指定日の実施記録を反転する。
	ToggleEntry(ctx context.Context, userID, routineID, dateStr string) (bool, error)
}

// RoutineHandler はルーティン管理のHTTPハンドラー。
type RoutineHandler struct {
	service RoutineServiceInterface
}

// NewRoutineHandler はRoutineHandlerを生成する。
func NewRoutineHandler(service RoutineServiceInterface) *RoutineHandler {
	return &RoutineHandler{
		service: service,
	}
}

// routineResponse はルーティンのAPIレスポンス。
type routineResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	Entries   []string  `json:"entries"` // YYYY-MM-DD形式の実施日
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// createRoutineRequest はルーティン作成リクエストのボディ。
type createRoutineRequest struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// toggleEntryRequest は実施記録反転リクエストのボディ。
type toggleEntryRequest struct {
	RoutineID string `json:"routine_id"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// toggleEntryResponse は実施記録反転のAPIレスポンス。
type toggleEntryResponse struct {
	RoutineID string `json:"routine_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"` // 反転後に実施済みかどうか
}

// List はユーザーのルーティン一覧を取得する。
// GET /api/routines
func (h *RoutineHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	routines, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]routineResponse, len(routines))
	for i, rw := range routines {
		resp[i] = toRoutineResponse(rw.Routine, rw.Dates)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Create はルーティンを作成する。
// POST /api/routines
func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.Title, req.Color)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toRoutineResponse(created, []string{}))
}

// Delete はルーティンを削除する。
// DELETE /api/routines/:id
func (h *RoutineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	routineID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, routineID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleEntry は指定日の実施記録を反転する。
// POST /api/entries/toggle
func (h *RoutineHandler) ToggleEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req toggleEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	completed, err := h.service.ToggleEntry(r.Context(), userID, req.RoutineID, req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toggleEntryResponse{
		RoutineID: req.RoutineID,
		Date:      req.Date,
		Completed: completed,
	})
}

// toRoutineResponse はmodel.RoutineからAPIレスポンスに変換する。
func toRoutineResponse(r *model.Routine, dates []string) routineResponse {
	if dates == nil {
		dates = []string{}
	}
	return routineResponse{
		ID:        r.ID,
		Title:     r.Title,
		Color:     r.Color,
		Entries:   dates,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
