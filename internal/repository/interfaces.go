// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/chatman/internal/model"
)

// UserRepository はユーザードキュメントの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByIDs は指定ID集合のユーザーをまとめて取得する。
	// 存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)

	// ListExcept は指定ユーザー以外の全ユーザーを返す。
	ListExcept(ctx context.Context, userID string) ([]*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// AddRoom はユーザーのroomsにルームIDを重複なく追加する。
	AddRoom(ctx context.Context, userID, roomID string) error

	// RemoveRoom はユーザーのroomsからルームIDを取り除き、更新後のユーザーを返す。
	// ユーザーが見つからない場合はnilを返す。
	RemoveRoom(ctx context.Context, userID, roomID string) (*model.User, error)

	// RemoveRoomFromUsers は指定ユーザー群のroomsからルームIDを一括で取り除く。
	// ルーム削除時のカスケード用。
	RemoveRoomFromUsers(ctx context.Context, userIDs []string, roomID string) error

	// UpdateColor はユーザーのカラーを上書きし、更新後のユーザーを返す。
	// ユーザーが見つからない場合はnilを返す。
	UpdateColor(ctx context.Context, userID, color string) (*model.User, error)

	// UpdateLinks はユーザーのリンクマップ全体を置き換え、更新後のユーザーを返す。
	// マージ処理は呼び出し側（サービス層）が行う。
	UpdateLinks(ctx context.Context, userID string, links map[string]string) (*model.User, error)
}

// RoomRepository はルームドキュメントの永続化インターフェース。
type RoomRepository interface {
	// FindAll は全ルームを返す。
	FindAll(ctx context.Context) ([]*model.Room, error)

	// FindByMember は指定ユーザーがメンバーであるルームを返す。
	FindByMember(ctx context.Context, userID string) ([]*model.Room, error)

	// FindByIDAndMember はIDとメンバー条件を単一クエリで満たすルームを返す。
	// 条件を満たさない場合はnilを返す。存在チェックとメンバーシップチェックを
	// 分離しないことで、非メンバーにルームの存在を漏らさない。
	FindByIDAndMember(ctx context.Context, roomID, userID string) (*model.Room, error)

	// Create はルームを作成する。
	Create(ctx context.Context, room *model.Room) error

	// DeleteByIDAndOwner はIDとオーナー条件を満たすルームをアトミックに削除し、
	// 削除したルームを返す。条件を満たさない場合はnilを返す（非変更・非エラー）。
	DeleteByIDAndOwner(ctx context.Context, roomID, ownerID string) (*model.Room, error)

	// PullMember はIDとオーナー条件を満たすルームからメンバーを取り除き、
	// 更新後のルームを返す。条件を満たさない場合はnilを返す。
	// オーナー権限の検査は更新フィルタに畳み込まれている。
	PullMember(ctx context.Context, roomID, ownerID, memberID string) (*model.Room, error)
}

// MessageRepository はメッセージドキュメントの読み取りインターフェース。
// メッセージは追記専用で、このサービスからは作成・変更しない。
type MessageRepository interface {
	// FindByIDs は指定ID集合のメッセージをまとめて取得する。
	// 存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Message, error)
}

// SessionRepository はセッションドキュメントの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
