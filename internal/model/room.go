package model

import "time"

// Room は名前付きのグループを表す。roomsコレクションのドキュメントに対応する。
// 作成時点でオーナーは必ずメンバーに含まれる。
// Messagesは追記専用で、このサービスからは変更されない。
type Room struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Owner     string    `bson:"owner"`
	Members   []string  `bson:"members"`
	Messages  []string  `bson:"messages"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Message はルーム内の1メッセージを表す。messagesコレクションのドキュメントに対応する。
type Message struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	Author    string    `bson:"author"`
	CreatedAt time.Time `bson:"created_at"`
}

// RoomView はメンバーとメッセージを解決済みのルームAPIレスポンス。
type RoomView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Owner     string        `json:"owner"`
	Members   []Member      `json:"members"`
	Messages  []MessageView `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}

// MessageView は投稿者をMemberビューに解決済みのメッセージAPIレスポンス。
type MessageView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    Member    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomSummary はユーザープロフィールに埋め込むルームの要約ビュー。
type RoomSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// ToSummary はRoomから要約ビューへの射影を返す。
func (r *Room) ToSummary() RoomSummary {
	return RoomSummary{
		ID:    r.ID,
		Name:  r.Name,
		Owner: r.Owner,
	}
}
