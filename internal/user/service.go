// Package user はユーザープロフィールの参照と更新を提供する。
package user

import (
	"context"

	"github.com/hitoshi/chatman/internal/model"
	"github.com/hitoshi/chatman/internal/repository"
)

// Profile はルーム解決済みのユーザープロフィールビュー。
type Profile struct {
	model.Member
	Rooms []model.RoomSummary `json:"rooms"`
}

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	roomRepo repository.RoomRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, roomRepo repository.RoomRepository) *Service {
	return &Service{
		userRepo: userRepo,
		roomRepo: roomRepo,
	}
}

// ListUsers は呼び出しユーザー以外の全ユーザーをMemberビューで返す。
func (s *Service) ListUsers(ctx context.Context, callerID string) ([]model.Member, error) {
	users, err := s.userRepo.ListExcept(ctx, callerID)
	if err != nil {
		return nil, err
	}

	members := make([]model.Member, 0, len(users))
	for _, u := range users {
		members = append(members, u.ToMember())
	}
	return members, nil
}

// GetUser は指定ユーザーを所属ルーム解決済みで返す。
// ユーザーが存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	// 所属ルームの解決。ユーザーのrooms参照ではなくルーム側のmembersを
	// 正として引くため、カスケード漏れで残った参照はここに現れない。
	rooms, err := s.roomRepo.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		Member: user.ToMember(),
		Rooms:  make([]model.RoomSummary, 0, len(rooms)),
	}
	for _, r := range rooms {
		profile.Rooms = append(profile.Rooms, r.ToSummary())
	}
	return profile, nil
}

// SetColor は呼び出しユーザーのカラーを無条件に上書きする。
// 形式・輝度の検証はハンドラー側で完了している。
func (s *Service) SetColor(ctx context.Context, callerID, color string) (*model.Member, error) {
	user, err := s.userRepo.UpdateColor(ctx, callerID, color)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(callerID)
	}

	member := user.ToMember()
	return &member, nil
}

// SetLinks は指定されたプラットフォームリンクを既存のリンクへ浅くマージする。
// 指定されたキーは上書きし、指定されなかった既存キーは保持する。
// 読み取り・マージ・書き込みの3段で行い、マージはサービス層の責務。
func (s *Service) SetLinks(ctx context.Context, callerID string, links map[string]string) (*model.Member, error) {
	user, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(callerID)
	}

	merged := make(map[string]string, len(user.Links)+len(links))
	for k, v := range user.Links {
		merged[k] = v
	}
	for k, v := range links {
		merged[k] = v
	}

	updated, err := s.userRepo.UpdateLinks(ctx, callerID, merged)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError(callerID)
	}

	member := updated.ToMember()
	return &member, nil
}
