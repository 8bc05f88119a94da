package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, room, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeRoomNotFound       = "ROOM_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidRoomName    = "INVALID_ROOM_NAME"
	ErrCodeCannotRemoveSelf   = "CANNOT_REMOVE_SELF"
	ErrCodeMemberRemoveFailed = "MEMBER_REMOVE_FAILED"
	ErrCodeInvalidColor       = "INVALID_COLOR"
	ErrCodeInvalidLink        = "INVALID_LINK"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// NewRoomNotFoundError はルーム未検出エラーを生成する。
// 非メンバーからの参照もこのエラーで返し、ルームの存在自体を秘匿する。
func NewRoomNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRoomNotFound,
		Message:  "指定されたルームが見つかりません。",
		Category: "room",
		Action:   "ルームIDと参加状況を確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidRoomNameError はルーム名が長さ制約を満たさない場合のエラーを生成する。
func NewInvalidRoomNameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRoomName,
		Message:  "ルーム名は2文字以上25文字以下で指定してください。",
		Category: "validation",
		Action:   "ルーム名の長さを確認してください。",
	}
}

// NewCannotRemoveSelfError は自分自身のメンバー削除を拒否するエラーを生成する。
func NewCannotRemoveSelfError() *APIError {
	return &APIError{
		Code:     ErrCodeCannotRemoveSelf,
		Message:  "自分自身をルームから削除することはできません。",
		Category: "validation",
		Action:   "他のメンバーを指定するか、ルーム自体を削除してください。",
	}
}

// NewMemberRemoveFailedError はメンバー削除の対象が見つからない場合のエラーを生成する。
// ルームがオーナー所有でない場合と、メンバーが存在しない場合の両方を含む。
func NewMemberRemoveFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeMemberRemoveFailed,
		Message:  "メンバーをルームから削除できませんでした。",
		Category: "room",
		Action:   "ルームのオーナー権限とメンバーIDを確認してください。",
	}
}

// NewInvalidColorError は無効なカラー値エラーを生成する。
func NewInvalidColorError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidColor,
		Message:  fmt.Sprintf("無効なカラー値です: %s", reason),
		Category: "validation",
		Action:   "#rrggbb形式で、暗すぎない色を指定してください。",
	}
}

// NewInvalidLinkError は無効なプロフィールリンクエラーを生成する。
func NewInvalidLinkError(platform string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLink,
		Message:  fmt.Sprintf("無効なプロフィールリンクです: %s", platform),
		Category: "validation",
		Action:   "対応プラットフォーム（youtube, instagram, github, twitter）の正しいURLを指定してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別せず同一メッセージで返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
