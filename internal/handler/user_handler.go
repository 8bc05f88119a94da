package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/chatman/internal/middleware"
	"github.com/hitoshi/chatman/internal/model"
	"github.com/hitoshi/chatman/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// ListUsers は呼び出しユーザー以外の全ユーザーをMemberビューで返す。
	ListUsers(ctx context.Context, callerID string) ([]model.Member, error)
	// GetUser は指定ユーザーを所属ルーム解決済みで返す。
	GetUser(ctx context.Context, userID string) (*user.Profile, error)
	// SetColor は呼び出しユーザーのカラーを上書きする。
	SetColor(ctx context.Context, callerID, color string) (*model.Member, error)
	// SetLinks はプロフィールリンクを既存のリンクへ浅くマージする。
	SetLinks(ctx context.Context, callerID string, links map[string]string) (*model.Member, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// setColorRequest はカラー更新リクエストのボディ。
type setColorRequest struct {
	Color string `json:"color"`
}

// setLinksRequest はリンク更新リクエストのボディ。
// 指定したプラットフォームのみ上書きされる部分マップ。
type setLinksRequest struct {
	Links map[string]string `json:"links"`
}

// Me は呼び出しユーザー自身の拡張プロフィールを返す。
// セッションミドルウェアが解決済みのユーザーをそのまま返すため、
// 永続化層への追加の問い合わせは発生しない。
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(caller.ToMe())
}

// ListUsers は呼び出しユーザー以外の全ユーザーを取得する。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	members, err := h.service.ListUsers(r.Context(), caller.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

// GetUser はユーザーを1件、所属ルーム解決済みで取得する。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.CurrentUserFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// SetColor は呼び出しユーザーのプロフィールカラーを更新する。
// PUT /api/me/color
func (h *UserHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req setColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	// カラーの検証: #rrggbb形式かつ暗すぎないこと
	tooDark, err := user.IsColorTooDark(req.Color)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidColorError("#rrggbb形式ではありません"))
		return
	}
	if tooDark {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidColorError("暗すぎて視認できません"))
		return
	}

	member, err := h.service.SetColor(r.Context(), caller.ID, req.Color)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

// SetLinks は呼び出しユーザーのプロフィールリンクを部分更新する。
// PUT /api/me/links
func (h *UserHandler) SetLinks(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req setLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	if err := user.ValidateLinks(req.Links); err != nil {
		handleServiceError(w, err)
		return
	}

	member, err := h.service.SetLinks(r.Context(), caller.ID, req.Links)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}
