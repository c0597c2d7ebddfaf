// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, routine, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeRoutineNotFound = "ROUTINE_NOT_FOUND"
	ErrCodeInvalidTitle    = "INVALID_TITLE"
	ErrCodeInvalidColor    = "INVALID_COLOR"
	ErrCodeInvalidDate     = "INVALID_DATE"
	ErrCodeInviteRequired  = "INVITE_REQUIRED"
	ErrCodeInviteInvalid   = "INVITE_INVALID"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
)

// NewRoutineNotFoundError はルーティン未検出エラーを生成する。
// 他ユーザーのルーティンへのアクセスも存在を漏らさないよう同じエラーにする。
func NewRoutineNotFoundError(routineID string) *APIError {
	return &APIError{
		Code:     ErrCodeRoutineNotFound,
		Message:  fmt.Sprintf("指定されたルーティンが見つかりません: %s", routineID),
		Category: "routine",
		Action:   "ルーティンIDを確認してください。",
	}
}

// NewInvalidTitleError は無効なタイトルエラーを生成する。
func NewInvalidTitleError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  fmt.Sprintf("無効なタイトルです: %s", reason),
		Category: "validation",
		Action:   "タイトルは1〜100文字で入力してください。",
	}
}

// NewInvalidColorError は無効なカラーコードエラーを生成する。
func NewInvalidColorError(color string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidColor,
		Message:  fmt.Sprintf("無効なカラーコードです: %s", color),
		Category: "validation",
		Action:   "カラーは #rrggbb 形式で指定してください。",
	}
}

// NewInvalidDateError は無効な日付エラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", date),
		Category: "validation",
		Action:   "日付は YYYY-MM-DD 形式で指定してください。",
	}
}

// NewInviteRequiredError は招待必須エラーを生成する。
func NewInviteRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeInviteRequired,
		Message:  "サインアップには招待が必要です。",
		Category: "auth",
		Action:   "既存ユーザーから招待リンクを受け取ってください。",
	}
}

// NewInviteInvalidError は無効な招待エラーを生成する。
func NewInviteInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeInviteInvalid,
		Message:  "招待リンクが無効です。",
		Category: "auth",
		Action:   "招待リンクが使用済みまたは無効化されていないか発行者に確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
