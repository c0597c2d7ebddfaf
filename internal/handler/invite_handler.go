package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/routinely/internal/invite"
	"github.com/hitoshi/routinely/internal/middleware"
)

// InviteServiceInterface は招待ハンドラーが必要とするサービスインターフェース。
type InviteServiceInterface interface {
	// Create は新しい招待を発行し、共有用URLを返す。
	Create(ctx context.Context, senderID string) (*invite.CreatedInvite, error)
	// Revoke は発行者自身の招待を無効化する。
	Revoke(ctx context.Context, senderID, inviteID string) error
}

// InviteHandler はサインアップ招待のHTTPハンドラー。
type InviteHandler struct {
	service InviteServiceInterface
}

// NewInviteHandler はInviteHandlerを生成する。
func NewInviteHandler(service InviteServiceInterface) *InviteHandler {
	return &InviteHandler{
		service: service,
	}
}

// inviteResponse は招待のAPIレスポンス。
type inviteResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Create は新しい招待を発行する。
// POST /api/invites
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inviteResponse{
		ID:        created.Invite.ID,
		URL:       created.URL,
		Status:    string(created.Invite.Status),
		CreatedAt: created.Invite.CreatedAt,
	})
}

// Revoke は招待を無効化する。
// DELETE /api/invites/:id
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	inviteID := chi.URLParam(r, "id")

	if err := h.service.Revoke(r.Context(), userID, inviteID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
