// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/chatman/internal/middleware"
	"github.com/hitoshi/chatman/internal/model"
)

// ルーム名の長さ制約（文字数）。
const (
	roomNameMinLength = 2
	roomNameMaxLength = 25
)

// RoomServiceInterface はルームハンドラーが必要とするサービスインターフェース。
type RoomServiceInterface interface {
	// ListRooms は全ルームをメンバー・メッセージ解決済みで返す。
	ListRooms(ctx context.Context) ([]model.RoomView, error)
	// ListCurrentUserRooms は呼び出しユーザーがメンバーであるルームを返す。
	ListCurrentUserRooms(ctx context.Context, userID string) ([]model.RoomView, error)
	// GetRoom は呼び出しユーザーがメンバーであるルームを1件返す。
	GetRoom(ctx context.Context, roomID, userID string) (*model.RoomView, error)
	// CreateRoom はルームを作成する。
	CreateRoom(ctx context.Context, name, userID string) (*model.RoomView, error)
	// DeleteRoom はオーナーのみが実行できるルーム削除。対象なしはnilを返す。
	DeleteRoom(ctx context.Context, roomID, userID string) (*model.RoomView, error)
	// RemoveMember はオーナーによるメンバー削除。
	RemoveMember(ctx context.Context, roomID, memberID, userID string) (*model.Member, error)
}

// RoomHandler はルーム管理のHTTPハンドラー。
type RoomHandler struct {
	service RoomServiceInterface
}

// NewRoomHandler はRoomHandlerを生成する。
func NewRoomHandler(service RoomServiceInterface) *RoomHandler {
	return &RoomHandler{
		service: service,
	}
}

// createRoomRequest はルーム作成リクエストのボディ。
type createRoomRequest struct {
	Name string `json:"name"`
}

// ListRooms は全ルームの一覧を取得する。
// GET /api/rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.CurrentUserFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

// ListCurrentUserRooms は呼び出しユーザーが参加しているルームの一覧を取得する。
// GET /api/rooms/mine
func (h *RoomHandler) ListCurrentUserRooms(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	rooms, err := h.service.ListCurrentUserRooms(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

// GetRoom はルームを1件取得する。非メンバーには404を返す。
// GET /api/rooms/{id}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	roomID := chi.URLParam(r, "id")

	room, err := h.service.GetRoom(r.Context(), roomID, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

// CreateRoom はルームを作成する。
// POST /api/rooms
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	// 名前の長さ検証。永続化処理に到達する前に拒否する。
	if !isValidRoomName(req.Name) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoomNameError())
		return
	}

	room, err := h.service.CreateRoom(r.Context(), req.Name, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// DeleteRoom はルームを削除する。オーナー以外の呼び出しは何も変更せず、
// 削除対象なしとして204を返す（エラーではない）。
// DELETE /api/rooms/{id}
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	roomID := chi.URLParam(r, "id")

	room, err := h.service.DeleteRoom(r.Context(), roomID, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if room == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

// RemoveMember はルームからメンバーを削除し、削除されたメンバーを返す。
// DELETE /api/rooms/{id}/members/{memberId}
func (h *RoomHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	roomID := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "memberId")

	member, err := h.service.RemoveMember(r.Context(), roomID, memberID, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

// isValidRoomName はルーム名が長さ制約（2〜25文字）を満たすかどうかを返す。
// 長さはバイト数ではなく文字数で数える。
func isValidRoomName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= roomNameMinLength && n <= roomNameMaxLength
}

// --- ヘルパー関数 ---

// apiErrorResponse はAPIエラーレスポンスのJSON表現。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は未認証エラーの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う。
	// 永続化層の生のエラーはここで遮蔽され、詳細はログにのみ残る。
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeRoomNotFound, model.ErrCodeUserNotFound, model.ErrCodeMemberRemoveFailed:
		return http.StatusNotFound
	case model.ErrCodeInvalidRoomName, model.ErrCodeCannotRemoveSelf,
		model.ErrCodeInvalidColor, model.ErrCodeInvalidLink:
		return http.StatusBadRequest
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
