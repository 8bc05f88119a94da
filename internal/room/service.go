// Package room はルームの作成・削除とメンバーシップ管理を提供する。
//
// Room.membersとUser.roomsは双方向参照であり、片側を変更する操作は必ず
// もう片側の変更と対で実行される。この対の書き込みはトランザクションで
// 保護されない。途中で失敗した場合のロールバックは行わず、片側のみ適用
// された状態が残りうる（DESIGN.md参照）。
package room

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/chatman/internal/model"
	"github.com/hitoshi/chatman/internal/repository"
)

// MetricsRecorder はルーム操作のドメインメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordRoomCreated()
	RecordRoomDeleted()
	RecordMemberRemoved()
}

// Service はルームとメンバーシップに関するビジネスロジックを提供する。
type Service struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	msgRepo  repository.MessageRepository
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	msgRepo repository.MessageRepository,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		roomRepo: roomRepo,
		userRepo: userRepo,
		msgRepo:  msgRepo,
		metrics:  metrics,
	}
}

// ListRooms は全ルームをメンバー・メッセージ解決済みで返す。
// ページネーションもフィルタリングも行わない全件取得。
func (s *Service) ListRooms(ctx context.Context) ([]model.RoomView, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.populateRooms(ctx, rooms)
}

// ListCurrentUserRooms は呼び出しユーザーがメンバーであるルームを返す。
func (s *Service) ListCurrentUserRooms(ctx context.Context, userID string) ([]model.RoomView, error) {
	rooms, err := s.roomRepo.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populateRooms(ctx, rooms)
}

// GetRoom は呼び出しユーザーがメンバーであるルームを1件返す。
// 存在チェックとメンバーシップチェックは単一クエリに畳み込まれており、
// 非メンバーには「存在しない」と「参加していない」の区別がつかない。
func (s *Service) GetRoom(ctx context.Context, roomID, userID string) (*model.RoomView, error) {
	room, err := s.roomRepo.FindByIDAndMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, model.NewRoomNotFoundError()
	}

	views, err := s.populateRooms(ctx, []*model.Room{room})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CreateRoom はルームを作成する。オーナーは呼び出しユーザーで固定され、
// メンバーは呼び出しユーザーのみで開始する。ユーザー側のrooms参照を先に
// 追加し、その後ルーム本体を保存する。
// 名前の長さ検証はサービスに到達する前にハンドラー側で完了している。
func (s *Service) CreateRoom(ctx context.Context, name, userID string) (*model.RoomView, error) {
	now := time.Now()
	room := &model.Room{
		ID:        uuid.New().String(),
		Name:      name,
		Owner:     userID,
		Members:   []string{userID},
		Messages:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.AddRoom(ctx, userID, room.ID); err != nil {
		return nil, err
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	s.metrics.RecordRoomCreated()

	views, err := s.populateRooms(ctx, []*model.Room{room})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteRoom はオーナーのみが実行できるルーム削除。
// IDとオーナーの両条件を単一のfind-and-deleteで検査するため、
// 非オーナーの呼び出しはルームを変更せずnilを返す（エラーではない）。
// 削除成功後、旧メンバーのrooms参照からルームIDを取り除く。
// カスケードは旧メンバーに限定する。本体削除後にカスケードが失敗した
// 場合、参照が残ったままになる（ロールバックしない）。
func (s *Service) DeleteRoom(ctx context.Context, roomID, userID string) (*model.RoomView, error) {
	room, err := s.roomRepo.DeleteByIDAndOwner(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	if err := s.userRepo.RemoveRoomFromUsers(ctx, room.Members, room.ID); err != nil {
		return nil, err
	}

	s.metrics.RecordRoomDeleted()

	views, err := s.populateRooms(ctx, []*model.Room{room})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// RemoveMember はオーナーによるメンバー削除。自分自身の削除は禁止される。
// ルーム側の$pullとユーザー側の$pullは独立した2つの更新で、両方を試行
// した後にどちらかの対象が見つからなければエラーを返す。片側だけ適用
// された更新は巻き戻さない。
func (s *Service) RemoveMember(ctx context.Context, roomID, memberID, userID string) (*model.Member, error) {
	if memberID == userID {
		return nil, model.NewCannotRemoveSelfError()
	}

	room, err := s.roomRepo.PullMember(ctx, roomID, userID, memberID)
	if err != nil {
		return nil, err
	}

	member, err := s.userRepo.RemoveRoom(ctx, memberID, roomID)
	if err != nil {
		return nil, err
	}

	if room == nil || member == nil {
		return nil, model.NewMemberRemoveFailedError()
	}

	s.metrics.RecordMemberRemoved()

	view := member.ToMember()
	return &view, nil
}

// populateRooms はルーム群のメンバーとメッセージを明示的な追加フェッチで
// 解決し、APIビューへ変換する。関連の解決は
//  1. 全ルームのメッセージIDをまとめて取得
//  2. メンバーIDとメッセージ投稿者IDの和集合でユーザーをまとめて取得
// の2段で行い、ルームごとのN+1クエリを避ける。
// 参照先が見つからないID（削除済みユーザー等）は黙って読み飛ばす。
func (s *Service) populateRooms(ctx context.Context, rooms []*model.Room) ([]model.RoomView, error) {
	msgIDs := make([]string, 0)
	userIDSet := make(map[string]struct{})
	for _, room := range rooms {
		msgIDs = append(msgIDs, room.Messages...)
		for _, id := range room.Members {
			userIDSet[id] = struct{}{}
		}
	}

	msgs, err := s.msgRepo.FindByIDs(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	msgByID := make(map[string]*model.Message, len(msgs))
	for _, msg := range msgs {
		msgByID[msg.ID] = msg
		userIDSet[msg.Author] = struct{}{}
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	memberByID := make(map[string]model.Member, len(users))
	for _, user := range users {
		memberByID[user.ID] = user.ToMember()
	}

	views := make([]model.RoomView, 0, len(rooms))
	for _, room := range rooms {
		view := model.RoomView{
			ID:        room.ID,
			Name:      room.Name,
			Owner:     room.Owner,
			Members:   make([]model.Member, 0, len(room.Members)),
			Messages:  make([]model.MessageView, 0, len(room.Messages)),
			CreatedAt: room.CreatedAt,
		}
		for _, id := range room.Members {
			if m, ok := memberByID[id]; ok {
				view.Members = append(view.Members, m)
			}
		}
		for _, id := range room.Messages {
			msg, ok := msgByID[id]
			if !ok {
				continue
			}
			author, ok := memberByID[msg.Author]
			if !ok {
				continue
			}
			view.Messages = append(view.Messages, model.MessageView{
				ID:        msg.ID,
				Content:   msg.Content,
				Author:    author,
				CreatedAt: msg.CreatedAt,
			})
		}
		views = append(views, view)
	}
	return views, nil
}
