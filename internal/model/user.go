// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// usersコレクションのドキュメントに対応する。
type User struct {
	ID           string            `bson:"_id"`
	Username     string            `bson:"username"`
	Name         string            `bson:"name"`
	Email        string            `bson:"email"`
	PasswordHash string            `bson:"password_hash"`
	Color        string            `bson:"color"`
	Links        map[string]string `bson:"links"`
	Rooms        []string          `bson:"rooms"`
	CreatedAt    time.Time         `bson:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Member は他の参加者に公開するユーザーの縮退ビュー。
// メールアドレス・パスワードハッシュ・所属ルーム一覧は含まない。
type Member struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Color    string            `json:"color"`
	Links    map[string]string `json:"links,omitempty"`
}

// Me は本人にのみ返す拡張プロフィールビュー。
type Me struct {
	Member
	Email string   `json:"email"`
	Rooms []string `json:"rooms"`
}

// ToMember はUserからMemberビューへの射影を返す。
func (u *User) ToMember() Member {
	return Member{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Color:    u.Color,
		Links:    u.Links,
	}
}

// ToMe はUserから本人向けビューへの射影を返す。
func (u *User) ToMe() Me {
	rooms := u.Rooms
	if rooms == nil {
		rooms = []string{}
	}
	return Me{
		Member: u.ToMember(),
		Email:  u.Email,
		Rooms:  rooms,
	}
}
